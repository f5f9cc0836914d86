package model

// Role is a semantic business field the pipeline locates in arbitrary
// source schemas. The set of roles is fixed at build time; which raw
// column fills each role is resolved per board snapshot.
type Role string

// Roles recognized by the default configuration.
const (
	RoleName        Role = "name"
	RoleRevenue     Role = "revenue"
	RoleBilled      Role = "billed"
	RoleCollected   Role = "collected"
	RoleProbability Role = "probability"
	RoleSector      Role = "sector"
	RoleStatus      Role = "status"
	RoleOwner       Role = "owner"
)

// ValueKind declares how raw cells under a role are normalized.
type ValueKind string

const (
	KindNumber   ValueKind = "number"
	KindCategory ValueKind = "category"
)

// Valid reports whether k is a recognized kind.
func (k ValueKind) Valid() bool {
	return k == KindNumber || k == KindCategory
}

// ColumnMapping binds each resolved role to the raw column name chosen
// for it. Roles with no acceptable match are absent; use Resolved to
// distinguish. A raw column is claimed by at most one role.
type ColumnMapping map[Role]string

// Column returns the raw column bound to role and whether it resolved.
func (m ColumnMapping) Column(role Role) (string, bool) {
	col, ok := m[role]
	return col, ok
}

// Resolved reports whether role was bound to a raw column.
func (m ColumnMapping) Resolved(role Role) bool {
	_, ok := m[role]
	return ok
}
