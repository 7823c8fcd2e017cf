package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPolicyAllowed(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name     string
		resource string
		action   Action
		roles    RoleSet
		want     bool
	}{
		{"owner deletes tenant", "tenants", ActionDelete, NewRoleSet("owner"), true},
		{"admin cannot delete tenant", "tenants", ActionDelete, NewRoleSet("admin"), false},
		{"admin updates tenant", "tenants", ActionUpdate, NewRoleSet("admin"), true},
		{"driver cannot add member", "memberships", ActionCreate, NewRoleSet("driver"), false},
		{"fleet manager creates vehicle", "vehicles", ActionCreate, NewRoleSet("fleet_manager"), true},
		{"viewer cannot create vehicle", "vehicles", ActionCreate, NewRoleSet("viewer"), false},
		{"viewer reads vehicles", "vehicles", ActionRead, NewRoleSet("viewer"), true},
		{"driver logs fuel", "fuel", ActionCreate, NewRoleSet("driver"), true},
		{"viewer logs odometer", "odometer", ActionCreate, NewRoleSet("viewer"), true},
		{"unknown resource open", "reports", ActionDelete, NewRoleSet("viewer"), true},
		{"additive roles", "tenants", ActionDelete, NewRoleSet("viewer", "owner"), true},
		{"empty set denied on restricted", "tenants", ActionDelete, NewRoleSet(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Allowed(tt.resource, tt.action, tt.roles); got != tt.want {
				t.Errorf("Allowed(%q, %q, %v) = %v, want %v",
					tt.resource, tt.action, tt.roles.Roles(), got, tt.want)
			}
		})
	}
}

func TestLoadPolicyOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := `
vehicles:
  create: [owner]
fuel:
  create: [owner, admin, fleet_manager, driver]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy returned error: %v", err)
	}

	if p.Allowed("vehicles", ActionCreate, NewRoleSet("fleet_manager")) {
		t.Error("override should have revoked fleet_manager vehicle creation")
	}
	if !p.Allowed("vehicles", ActionCreate, NewRoleSet("owner")) {
		t.Error("owner should still create vehicles")
	}
	if p.Allowed("fuel", ActionCreate, NewRoleSet("viewer")) {
		t.Error("override should have closed fuel logging to viewers")
	}
	// Untouched entries keep their defaults.
	if p.Allowed("tenants", ActionDelete, NewRoleSet("admin")) {
		t.Error("tenant deletion should remain owner-only")
	}
}

func TestLoadPolicyRejectsUnknownRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("vehicles:\n  create: [root]\n"), 0o644); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}
	if _, err := LoadPolicy(path); err == nil {
		t.Error("expected error for unknown role in policy file")
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	if _, err := LoadPolicy("/nonexistent/policy.yaml"); err == nil {
		t.Error("expected error for missing policy file")
	}
}
