// Package schema resolves the fixed set of business roles against
// whatever column names a source board currently has. Boards are
// user-populated and column names drift ("Deal Value", "Value ($)",
// "Revenue Amount"), so the mapping is re-derived from live headers on
// every fetch rather than configured per board.
package schema

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/skylark-bi/boardpulse/internal/model"
)

// RoleSpec configures one role: the keywords expected to appear in a
// matching column name, the priority used to order resolution when
// keyword sets overlap, and how raw cells under the role are typed.
type RoleSpec struct {
	Priority int             `yaml:"priority"`
	Keywords []string        `yaml:"keywords"`
	Kind     model.ValueKind `yaml:"kind"`
}

// RoleSet is a validated, immutable role configuration. Construct via
// NewRoleSet, DefaultRoleSet, or LoadRoleSet; a RoleSet that exists is
// safe to use from any number of goroutines.
type RoleSet struct {
	specs   map[model.Role]RoleSpec
	ordered []model.Role // ascending priority, role name tie-break
}

// NewRoleSet validates specs and builds a RoleSet. A role with no
// keywords or an unrecognized kind is a deployment error: it fails
// here, before any row is processed.
func NewRoleSet(specs map[model.Role]RoleSpec) (*RoleSet, error) {
	if len(specs) == 0 {
		return nil, eris.New("schema: role set is empty")
	}
	normalized := make(map[model.Role]RoleSpec, len(specs))
	for role, spec := range specs {
		if len(spec.Keywords) == 0 {
			return nil, eris.Errorf("schema: role %q has no keywords", role)
		}
		if !spec.Kind.Valid() {
			return nil, eris.Errorf("schema: role %q has unknown kind %q", role, spec.Kind)
		}
		keywords := make([]string, 0, len(spec.Keywords))
		for _, kw := range spec.Keywords {
			n := normalizeHeader(kw)
			if n == "" {
				return nil, eris.Errorf("schema: role %q has blank keyword", role)
			}
			keywords = append(keywords, n)
		}
		spec.Keywords = keywords
		normalized[role] = spec
	}

	ordered := make([]model.Role, 0, len(normalized))
	for role := range normalized {
		ordered = append(ordered, role)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if normalized[a].Priority != normalized[b].Priority {
			return normalized[a].Priority < normalized[b].Priority
		}
		return a < b
	})

	return &RoleSet{specs: normalized, ordered: ordered}, nil
}

// DefaultRoleSet returns the compiled-in role configuration covering
// the Work Orders and Deals boards. The keyword lists mirror the
// column vocabulary seen in real exports.
func DefaultRoleSet() *RoleSet {
	rs, err := NewRoleSet(map[model.Role]RoleSpec{
		model.RoleBilled: {
			Priority: 10,
			Keywords: []string{"billed", "invoiced"},
			Kind:     model.KindNumber,
		},
		model.RoleCollected: {
			Priority: 20,
			Keywords: []string{"collected", "received", "paid"},
			Kind:     model.KindNumber,
		},
		model.RoleProbability: {
			Priority: 30,
			Keywords: []string{"probability", "likelihood", "confidence"},
			Kind:     model.KindNumber,
		},
		model.RoleRevenue: {
			Priority: 40,
			Keywords: []string{"revenue", "amount", "value", "price", "budget"},
			Kind:     model.KindNumber,
		},
		model.RoleSector: {
			Priority: 50,
			Keywords: []string{"sector", "industry", "vertical"},
			Kind:     model.KindCategory,
		},
		model.RoleStatus: {
			Priority: 60,
			Keywords: []string{"status", "stage", "phase"},
			Kind:     model.KindCategory,
		},
		model.RoleOwner: {
			Priority: 70,
			Keywords: []string{"owner", "assignee", "account manager", "rep"},
			Kind:     model.KindCategory,
		},
		model.RoleName: {
			Priority: 80,
			Keywords: []string{"name", "title", "item", "project"},
			Kind:     model.KindCategory,
		},
	})
	if err != nil {
		// The compiled-in set is validated by tests; reaching here
		// means the binary itself is broken.
		panic(err)
	}
	return rs
}

// LoadRoleSet reads a role configuration from a YAML file keyed by
// role name.
func LoadRoleSet(path string) (*RoleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schema: read roles file %s", path)
	}
	var specs map[model.Role]RoleSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, eris.Wrapf(err, "schema: parse roles file %s", path)
	}
	return NewRoleSet(specs)
}

// Roles returns all roles in resolution order (ascending priority).
func (r *RoleSet) Roles() []model.Role {
	out := make([]model.Role, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Spec returns the configuration for role.
func (r *RoleSet) Spec(role model.Role) (RoleSpec, bool) {
	spec, ok := r.specs[role]
	return spec, ok
}

// Kind returns the value kind declared for role.
func (r *RoleSet) Kind(role model.Role) (model.ValueKind, bool) {
	spec, ok := r.specs[role]
	return spec.Kind, ok
}

// Len returns the number of declared roles.
func (r *RoleSet) Len() int {
	return len(r.ordered)
}
