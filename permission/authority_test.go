package permission

import "testing"

func TestSetHasAndRoles(t *testing.T) {
	s := NewSet([]string{"common", "ROLE_USER", " ", ""})

	if s.Len() != 2 {
		t.Fatalf("expected blank entries to be dropped, got %d", s.Len())
	}
	if !s.Has("common") || s.Has("admin") {
		t.Fatal("unexpected Has result")
	}
	if !s.HasRole("USER") || !s.HasRole("ROLE_USER") {
		t.Fatal("expected HasRole to accept bare and prefixed names")
	}
	if s.HasRole("ADMIN") || s.IsAdmin() {
		t.Fatal("non-admin reported as admin")
	}
	if !s.HasAny("admin", "common") || s.HasAny("admin", "root") {
		t.Fatal("unexpected HasAny result")
	}
}

func TestCanAccess(t *testing.T) {
	admin := NewSet([]string{RoleAdmin})
	user := NewSet([]string{"common"})

	tests := []struct {
		name    string
		set     Set
		userID  string
		ownerID string
		want    bool
	}{
		{"admin on foreign resource", admin, "1", "2", true},
		{"owner", user, "2", "2", true},
		{"stranger", user, "1", "2", false},
		{"empty ids", user, "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanAccess(tc.set, tc.userID, tc.ownerID); got != tc.want {
				t.Fatalf("CanAccess = %v, want %v", got, tc.want)
			}
		})
	}
}
