package permission

import "strings"

const (
	// RolePrefix marks an authority as a role rather than a permission.
	RolePrefix = "ROLE_"
	// RoleAdmin is the role that passes every ownership check.
	RoleAdmin = RolePrefix + "ADMIN"
)

// Set is an immutable lookup over a principal's authorities.
type Set struct {
	m map[string]struct{}
}

// NewSet copies authorities into a Set. Blank entries are dropped.
func NewSet(authorities []string) Set {
	m := make(map[string]struct{}, len(authorities))
	for _, a := range authorities {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		m[a] = struct{}{}
	}
	return Set{m: m}
}

// Has reports whether authority is present, compared exactly.
func (s Set) Has(authority string) bool {
	_, ok := s.m[authority]
	return ok
}

// HasAny reports whether at least one of authorities is present.
func (s Set) HasAny(authorities ...string) bool {
	for _, a := range authorities {
		if s.Has(a) {
			return true
		}
	}
	return false
}

// HasRole checks a role by bare name; "ADMIN" and "ROLE_ADMIN" are equivalent.
func (s Set) HasRole(role string) bool {
	if !strings.HasPrefix(role, RolePrefix) {
		role = RolePrefix + role
	}
	return s.Has(role)
}

// IsAdmin reports whether the set carries RoleAdmin.
func (s Set) IsAdmin() bool {
	return s.Has(RoleAdmin)
}

// Len returns the number of distinct authorities.
func (s Set) Len() int {
	return len(s.m)
}

// IsOwner reports whether userID owns the resource. Empty ids never match.
func IsOwner(userID, ownerID string) bool {
	return userID != "" && userID == ownerID
}

// CanAccess allows administrators and the resource owner.
func CanAccess(s Set, userID, ownerID string) bool {
	return s.IsAdmin() || IsOwner(userID, ownerID)
}
