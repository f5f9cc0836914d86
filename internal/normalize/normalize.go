// Package normalize converts raw board cells into canonical typed
// values and assembles them into complete records. Per-cell problems
// never abort a batch: an unparseable or sentinel cell degrades to the
// missing marker for that one (record, role) pair and processing
// continues.
package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/skylark-bi/boardpulse/internal/model"
	"github.com/skylark-bi/boardpulse/internal/schema"
)

// sentinels are raw strings that mean "no data" regardless of role.
// Boards mask restricted cells with literal text; conflating those
// with zero would corrupt sums and averages.
var sentinels = map[string]struct{}{
	"":       {},
	"-":      {},
	"masked": {},
	"n/a":    {},
	"na":     {},
	"null":   {},
	"none":   {},
}

// currencyStripper removes currency symbols, thousands separators, and
// other decoration commonly found in money cells.
var currencyStripper = strings.NewReplacer(
	"$", "", "€", "", "£", "", "₹", "",
	",", "", "%", "", " ", "", "\t", "",
)

// Engine normalizes raw rows against a role configuration. An Engine
// is immutable after construction and safe for concurrent use.
type Engine struct {
	roles *schema.RoleSet
}

// NewEngine creates an Engine for the given role set.
func NewEngine(roles *schema.RoleSet) *Engine {
	return &Engine{roles: roles}
}

// NormalizeRows converts every raw row into a Record using the given
// column mapping. The result has exactly one Record per input row, and
// every declared role is present as a key in every Record — roles the
// mapping left unresolved carry the missing marker throughout.
func (e *Engine) NormalizeRows(mapping model.ColumnMapping, rows []model.RawRow) []model.Record {
	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, e.normalizeRow(mapping, row))
	}
	return records
}

func (e *Engine) normalizeRow(mapping model.ColumnMapping, row model.RawRow) model.Record {
	rec := make(model.Record, e.roles.Len())
	for _, role := range e.roles.Roles() {
		col, ok := mapping.Column(role)
		if !ok {
			rec[role] = model.Missing()
			continue
		}
		raw, ok := row[col]
		if !ok {
			rec[role] = model.Missing()
			continue
		}
		rec[role] = e.NormalizeCell(role, raw)
	}
	return rec
}

// NormalizeCell converts one raw cell according to the kind declared
// for role. Unknown roles degrade to missing; the role set constructor
// already rejects configurations with undeclared kinds.
func (e *Engine) NormalizeCell(role model.Role, raw string) model.Value {
	kind, ok := e.roles.Kind(role)
	if !ok {
		return model.Missing()
	}
	switch kind {
	case model.KindNumber:
		return NormalizeNumber(raw)
	case model.KindCategory:
		return e.NormalizeCategory(raw)
	default:
		return model.Missing()
	}
}

// NormalizeNumber cleans a raw numeric cell and parses it as a
// decimal. Sentinel strings and unparseable residue yield the missing
// marker, never zero.
func NormalizeNumber(raw string) model.Value {
	trimmed := strings.TrimSpace(raw)
	if isSentinel(trimmed) {
		return model.Missing()
	}
	cleaned := currencyStripper.Replace(trimmed)
	if cleaned == "" {
		return model.Missing()
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		zap.L().Debug("unparseable numeric cell",
			zap.String("raw", raw),
		)
		return model.Missing()
	}
	return model.Number(d)
}

// NormalizeCategory trims a raw categorical cell, collapses internal
// whitespace runs, and title-cases the result so "in progress",
// "In Progress", and "IN PROGRESS " collapse to one canonical value.
func (e *Engine) NormalizeCategory(raw string) model.Value {
	collapsed := strings.Join(strings.Fields(raw), " ")
	if isSentinel(collapsed) {
		return model.Missing()
	}
	// cases.Caser carries internal state, so build one per call rather
	// than sharing it across goroutines.
	titler := cases.Title(language.English)
	return model.Category(titler.String(strings.ToLower(collapsed)))
}

func isSentinel(s string) bool {
	_, ok := sentinels[strings.ToLower(s)]
	return ok
}
