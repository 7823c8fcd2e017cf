package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeSessions struct {
	identities map[string]*Identity
}

func (f fakeSessions) ResolveSession(_ context.Context, token string) (*Identity, error) {
	return f.identities[token], nil
}

type fakeMemberships struct {
	// keyed by userID + "/" + tenantID
	roles map[string]RoleSet
}

func (f fakeMemberships) ResolveMembership(_ context.Context, userID, tenantID string) (RoleSet, error) {
	return f.roles[userID+"/"+tenantID], nil
}

func testDeps(rejections *[]string) GuardDeps {
	return GuardDeps{
		Sessions: fakeSessions{identities: map[string]*Identity{
			"good-token": {UserID: "user-1", Email: "a@b.test", SessionID: "hash-1"},
		}},
		Memberships: fakeMemberships{roles: map[string]RoleSet{
			"user-1/tenant-1": NewRoleSet("driver"),
		}},
		Policy: DefaultPolicy(),
		OnReject: func(stage string) {
			if rejections != nil {
				*rejections = append(*rejections, stage)
			}
		},
	}
}

func guardedRequest(t *testing.T, deps GuardDeps, checks Checks, resource string, action Action, setup func(*http.Request)) (*httptest.ResponseRecorder, *Context) {
	t.Helper()

	var captured *Context
	handler := Require(deps, checks, resource, action)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body.Error.Code
}

func TestGuardMissingToken(t *testing.T) {
	var rejections []string
	rec, _ := guardedRequest(t, testDeps(&rejections), Checks{}, "operations", ActionRead, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "unauthenticated" {
		t.Errorf("error code = %q", code)
	}
	if len(rejections) != 1 || rejections[0] != "session" {
		t.Errorf("rejections = %v", rejections)
	}
}

func TestGuardInvalidToken(t *testing.T) {
	rec, _ := guardedRequest(t, testDeps(nil), Checks{}, "operations", ActionRead,
		func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer expired-token")
		})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "unauthenticated" {
		t.Errorf("error code = %q", code)
	}
}

func TestGuardMissingTenantHeader(t *testing.T) {
	var rejections []string
	rec, _ := guardedRequest(t, testDeps(&rejections), Checks{}, "operations", ActionRead,
		func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer good-token")
		})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "tenant_required" {
		t.Errorf("error code = %q", code)
	}
	if len(rejections) != 1 || rejections[0] != "tenant" {
		t.Errorf("rejections = %v", rejections)
	}
}

func TestGuardNoMembership(t *testing.T) {
	rec, _ := guardedRequest(t, testDeps(nil), Checks{}, "operations", ActionRead,
		func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer good-token")
			r.Header.Set(TenantHeader, "tenant-2")
		})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "tenant_required" {
		t.Errorf("error code = %q", code)
	}
}

func TestGuardInsufficientRole(t *testing.T) {
	var rejections []string
	rec, _ := guardedRequest(t, testDeps(&rejections), Checks{}, "vehicles", ActionCreate,
		func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer good-token")
			r.Header.Set(TenantHeader, "tenant-1")
		})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if code := errorCode(t, rec); code != "forbidden" {
		t.Errorf("error code = %q", code)
	}
	if len(rejections) != 1 || rejections[0] != "roles" {
		t.Errorf("rejections = %v", rejections)
	}
}

func TestGuardSuccessInjectsContext(t *testing.T) {
	rec, ac := guardedRequest(t, testDeps(nil), Checks{}, "operations", ActionRead,
		func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer good-token")
			r.Header.Set(TenantHeader, "tenant-1")
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ac == nil {
		t.Fatal("auth context not injected")
	}
	if ac.UserID != "user-1" || ac.SessionID != "hash-1" || ac.TenantID != "tenant-1" {
		t.Errorf("unexpected context %+v", ac)
	}
	if !ac.Roles.Has(RoleDriver) {
		t.Errorf("context roles = %v", ac.Roles.Roles())
	}
}

func TestGuardSkipAuth(t *testing.T) {
	rec, ac := guardedRequest(t, testDeps(nil), Public, "operations", ActionRead, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ac != nil {
		t.Error("public routes must not carry an auth context")
	}
}

func TestGuardSessionOnly(t *testing.T) {
	rec, ac := guardedRequest(t, testDeps(nil), SessionOnly, "tenants", ActionRead,
		func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer good-token")
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ac == nil {
		t.Fatal("auth context not injected")
	}
	if ac.TenantID != "" || len(ac.Roles) != 0 {
		t.Errorf("session-only context must stay tenant-free, got %+v", ac)
	}
}

func TestGuardSkipRolesStillResolvesTenant(t *testing.T) {
	// vehicles.create would be forbidden for a driver, but SkipRoles
	// bypasses the policy while keeping the membership requirement.
	rec, ac := guardedRequest(t, testDeps(nil), Checks{SkipRoles: true}, "vehicles", ActionCreate,
		func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer good-token")
			r.Header.Set(TenantHeader, "tenant-1")
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ac == nil || ac.TenantID != "tenant-1" {
		t.Errorf("tenant should still be resolved, got %+v", ac)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Basic abc123", ""},
		{"Bearer", ""},
		{"", ""},
		{"Bearer  ", " "},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := extractBearerToken(req); got != tt.want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
