package category

import (
	"context"
	"errors"
	"testing"
)

type fakeLookup struct {
	categories map[string]*Category
	lastIDs    []string
}

func (f *fakeLookup) GetByIDs(_ context.Context, ids []string) ([]*Category, error) {
	f.lastIDs = ids
	var out []*Category
	for _, id := range ids {
		if c, ok := f.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func newFakeLookup() *fakeLookup {
	return &fakeLookup{categories: map[string]*Category{
		"fuel-sys":    {ID: "fuel-sys", TenantID: nil, Name: "Diesel", Source: SourceFuel},
		"fuel-own":    {ID: "fuel-own", TenantID: strPtr("tenant-1"), Name: "Premium", Source: SourceFuel},
		"fuel-other":  {ID: "fuel-other", TenantID: strPtr("tenant-2"), Name: "Theirs", Source: SourceFuel},
		"service-own": {ID: "service-own", TenantID: strPtr("tenant-1"), Name: "Tires", Source: SourceService},
	}}
}

func TestValidateEmptyInput(t *testing.T) {
	v := NewValidator(newFakeLookup())
	if err := v.Validate(context.Background(), "tenant-1", nil, SourceFuel); err != nil {
		t.Errorf("empty input should be valid, got %v", err)
	}
}

func TestValidateSystemAndOwnCategories(t *testing.T) {
	v := NewValidator(newFakeLookup())
	err := v.Validate(context.Background(), "tenant-1", []string{"fuel-sys", "fuel-own"}, SourceFuel)
	if err != nil {
		t.Errorf("system and own categories should validate, got %v", err)
	}
}

func TestValidateDedupesBeforeFetch(t *testing.T) {
	lookup := newFakeLookup()
	v := NewValidator(lookup)
	err := v.Validate(context.Background(), "tenant-1",
		[]string{"fuel-own", "fuel-own", "fuel-own"}, SourceFuel)
	if err != nil {
		t.Fatalf("duplicated ids should validate, got %v", err)
	}
	if len(lookup.lastIDs) != 1 {
		t.Errorf("expected deduplicated fetch of 1 id, got %v", lookup.lastIDs)
	}
}

func TestValidateForeignTenant(t *testing.T) {
	v := NewValidator(newFakeLookup())
	err := v.Validate(context.Background(), "tenant-1", []string{"fuel-other"}, SourceFuel)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("foreign-tenant category must be unknown, got %v", err)
	}
}

func TestValidateMissingID(t *testing.T) {
	v := NewValidator(newFakeLookup())
	err := v.Validate(context.Background(), "tenant-1", []string{"fuel-own", "no-such"}, SourceFuel)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("unresolved id must be unknown, got %v", err)
	}
}

func TestValidateSourceMismatch(t *testing.T) {
	v := NewValidator(newFakeLookup())
	err := v.Validate(context.Background(), "tenant-1", []string{"service-own"}, SourceFuel)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("source mismatch must be unknown, got %v", err)
	}
}

func TestValidateLookupError(t *testing.T) {
	v := NewValidator(failingLookup{})
	err := v.Validate(context.Background(), "tenant-1", []string{"x"}, SourceFuel)
	if err == nil || errors.Is(err, ErrUnknownCategory) {
		t.Errorf("store errors must pass through, got %v", err)
	}
}

type failingLookup struct{}

func (failingLookup) GetByIDs(context.Context, []string) ([]*Category, error) {
	return nil, errors.New("connection refused")
}

func TestParseSource(t *testing.T) {
	for _, valid := range []string{"fuel", "service", "expense", "income"} {
		if _, err := ParseSource(valid); err != nil {
			t.Errorf("ParseSource(%q) returned error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "Fuel", "misc"} {
		if _, err := ParseSource(invalid); !errors.Is(err, ErrInvalidSource) {
			t.Errorf("ParseSource(%q): expected ErrInvalidSource, got %v", invalid, err)
		}
	}
}
