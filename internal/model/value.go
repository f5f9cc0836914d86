package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

type valueKind uint8

const (
	valueMissing valueKind = iota
	valueNumber
	valueCategory
)

// Value is a normalized cell: a decimal number, a canonical category
// string, or the missing marker. Missing is structurally distinct from
// zero and from the empty category so that aggregation never conflates
// "no data" with a legitimate zero.
type Value struct {
	kind valueKind
	num  decimal.Decimal
	cat  string
}

// Missing returns the missing marker.
func Missing() Value {
	return Value{kind: valueMissing}
}

// Number returns a numeric value.
func Number(d decimal.Decimal) Value {
	return Value{kind: valueNumber, num: d}
}

// Category returns a categorical value.
func Category(s string) Value {
	return Value{kind: valueCategory, cat: s}
}

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool {
	return v.kind == valueMissing
}

// Num returns the numeric value and whether v is numeric.
func (v Value) Num() (decimal.Decimal, bool) {
	return v.num, v.kind == valueNumber
}

// Cat returns the category value and whether v is categorical.
func (v Value) Cat() (string, bool) {
	return v.cat, v.kind == valueCategory
}

// String renders v for display. Missing renders as an em dash so that
// serialized samples show "no data" rather than a misleading blank.
func (v Value) String() string {
	switch v.kind {
	case valueNumber:
		return v.num.String()
	case valueCategory:
		return v.cat
	default:
		return "—"
	}
}

// valueJSON is the persisted wire shape. Numbers travel as strings to
// preserve decimal precision through JSON round trips.
type valueJSON struct {
	Num *string `json:"num,omitempty"`
	Cat *string `json:"cat,omitempty"`
}

// MarshalJSON encodes missing as null, numbers as {"num":"..."}, and
// categories as {"cat":"..."}.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueNumber:
		s := v.num.String()
		return json.Marshal(valueJSON{Num: &s})
	case valueCategory:
		s := v.cat
		return json.Marshal(valueJSON{Cat: &s})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes the shape produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Missing()
		return nil
	}
	var raw valueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: unmarshal value")
	}
	switch {
	case raw.Num != nil:
		d, err := decimal.NewFromString(*raw.Num)
		if err != nil {
			return eris.Wrapf(err, "model: parse number %q", *raw.Num)
		}
		*v = Number(d)
	case raw.Cat != nil:
		*v = Category(*raw.Cat)
	default:
		*v = Missing()
	}
	return nil
}
