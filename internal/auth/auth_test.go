package auth

import "testing"

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"owner", "admin", "fleet_manager", "driver", "viewer"} {
		if _, err := ParseRole(valid); err != nil {
			t.Errorf("ParseRole(%q) returned error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "Owner", "superuser"} {
		if _, err := ParseRole(invalid); err == nil {
			t.Errorf("ParseRole(%q) accepted unknown role", invalid)
		}
	}
}

func TestNewRoleSetIgnoresUnknown(t *testing.T) {
	rs := NewRoleSet("driver", "bogus", "admin")
	if len(rs) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(rs))
	}
	if !rs.Has(RoleDriver) || !rs.Has(RoleAdmin) {
		t.Errorf("missing expected roles in %v", rs.Roles())
	}
	if rs.Has(RoleOwner) {
		t.Error("set should not contain owner")
	}
}

func TestRoleSetHasAny(t *testing.T) {
	rs := NewRoleSet("viewer")
	if !rs.HasAny(RoleOwner, RoleViewer) {
		t.Error("HasAny should match viewer")
	}
	if rs.HasAny(RoleOwner, RoleAdmin) {
		t.Error("HasAny matched roles the set does not hold")
	}
	if RoleSet(nil).HasAny(RoleOwner) {
		t.Error("empty set matched a role")
	}
}

func TestRoleSetOrdering(t *testing.T) {
	rs := NewRoleSet("viewer", "owner", "driver")
	roles := rs.Roles()
	want := []Role{RoleOwner, RoleDriver, RoleViewer}
	if len(roles) != len(want) {
		t.Fatalf("expected %d roles, got %d", len(want), len(roles))
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Errorf("roles[%d] = %q, want %q", i, roles[i], want[i])
		}
	}
	if rs.Primary() != RoleOwner {
		t.Errorf("Primary() = %q, want owner", rs.Primary())
	}
	if RoleSet(nil).Primary() != "" {
		t.Error("empty set should have no primary role")
	}
}

func TestChecksNormalized(t *testing.T) {
	c := Checks{SkipTenant: true}.normalized()
	if !c.SkipRoles {
		t.Error("skipping tenant resolution must force role checks off")
	}

	c = Checks{SkipRoles: true}.normalized()
	if c.SkipTenant || c.SkipAuth {
		t.Error("skipping roles alone must not widen other stages")
	}
}
