package schema

import (
	"strings"
	"unicode"

	"github.com/skylark-bi/boardpulse/internal/model"
)

// normalizeHeader lowercases a column name and collapses every run of
// non-alphanumeric characters to a single space, so "Deal Value ($)"
// and "deal_value" compare equal under substring matching.
func normalizeHeader(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// Resolve assigns each role in rs to the best-matching raw column.
//
// Roles are considered in declared priority order. For each role the
// headers are scanned in source order; the first unclaimed column
// whose normalized name contains one of the role's keywords is
// assigned, and a column claimed once is never reassigned. A role with
// no match is simply absent from the result — downstream layers
// degrade it to all-missing rather than failing.
//
// Resolve is a pure function of (headers, rs): same inputs, same
// mapping.
func Resolve(headers []string, rs *RoleSet) model.ColumnMapping {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	mapping := make(model.ColumnMapping, rs.Len())
	claimed := make([]bool, len(headers))
	for _, role := range rs.ordered {
		spec := rs.specs[role]
		for i, name := range normalized {
			if claimed[i] || name == "" {
				continue
			}
			if !matchesAny(name, spec.Keywords) {
				continue
			}
			mapping[role] = headers[i]
			claimed[i] = true
			break
		}
	}
	return mapping
}

func matchesAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
