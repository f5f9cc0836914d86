// Package aggregate computes numeric summaries over normalized record
// sets. Missing values are excluded from every computation — a masked
// revenue cell must not pull an average toward zero.
package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/skylark-bi/boardpulse/internal/model"
	"github.com/skylark-bi/boardpulse/internal/schema"
)

// UnknownBucket labels group-by buckets whose grouping value was
// missing, so masked categories stay visible in reports instead of
// silently disappearing.
const UnknownBucket = "(unknown)"

// Summary holds the numeric profile of one role over a record set.
// Count is the number of records with a usable numeric value; when it
// is zero the remaining fields are meaningless.
type Summary struct {
	Count int
	Sum   decimal.Decimal
	Mean  decimal.Decimal
	Min   decimal.Decimal
	Max   decimal.Decimal
}

// Sum totals the numeric values of role across records and reports how
// many records contributed.
func Sum(records []model.Record, role model.Role) (decimal.Decimal, int) {
	total := decimal.Zero
	count := 0
	for _, rec := range records {
		if d, ok := rec[role].Num(); ok {
			total = total.Add(d)
			count++
		}
	}
	return total, count
}

// Summarize computes count, sum, mean, min, and max for role.
func Summarize(records []model.Record, role model.Role) Summary {
	var s Summary
	for _, rec := range records {
		d, ok := rec[role].Num()
		if !ok {
			continue
		}
		if s.Count == 0 {
			s.Min, s.Max = d, d
		} else {
			if d.LessThan(s.Min) {
				s.Min = d
			}
			if d.GreaterThan(s.Max) {
				s.Max = d
			}
		}
		s.Sum = s.Sum.Add(d)
		s.Count++
	}
	if s.Count > 0 {
		s.Mean = s.Sum.Div(decimal.NewFromInt(int64(s.Count))).Round(2)
	}
	return s
}

// GroupBy buckets records by the category under byRole and totals the
// numeric values under sumRole per bucket. Records with a missing
// grouping value land in the UnknownBucket; records with a missing
// numeric value contribute to no bucket total.
func GroupBy(records []model.Record, byRole, sumRole model.Role) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, rec := range records {
		d, ok := rec[sumRole].Num()
		if !ok {
			continue
		}
		bucket := UnknownBucket
		if cat, ok := rec[byRole].Cat(); ok {
			bucket = cat
		}
		out[bucket] = out[bucket].Add(d)
	}
	return out
}

// RoleSummary pairs a role with its summary for ordered reporting.
type RoleSummary struct {
	Role    model.Role
	Summary Summary
}

// Describe summarizes every numeric role in rs, in resolution order.
func Describe(records []model.Record, rs *schema.RoleSet) []RoleSummary {
	var out []RoleSummary
	for _, role := range rs.Roles() {
		if kind, ok := rs.Kind(role); !ok || kind != model.KindNumber {
			continue
		}
		out = append(out, RoleSummary{Role: role, Summary: Summarize(records, role)})
	}
	return out
}
