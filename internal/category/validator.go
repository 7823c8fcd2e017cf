package category

import "context"

// Lookup is the read interface the validator needs from a store.
type Lookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]*Category, error)
}

// Validator checks that a set of category ids is usable by a tenant for a
// given payload source.
type Validator struct {
	store Lookup
}

// NewValidator creates a validator backed by the given category lookup.
func NewValidator(store Lookup) *Validator {
	return &Validator{store: store}
}

// Validate checks every id against the caller's tenant and the expected
// source, in a fixed order: de-duplicate, fetch, reject foreign-tenant
// rows, reject unresolved ids (the fetched count must match), reject
// source mismatches. An empty input is trivially valid. All failures
// return ErrUnknownCategory.
func (v *Validator) Validate(ctx context.Context, tenantID string, ids []string, expected Source) error {
	if len(ids) == 0 {
		return nil
	}

	unique := dedupe(ids)

	cats, err := v.store.GetByIDs(ctx, unique)
	if err != nil {
		return err
	}

	for _, c := range cats {
		if c.TenantID != nil && *c.TenantID != tenantID {
			return ErrUnknownCategory
		}
	}

	// A shortfall means some id did not resolve. Ids belonging to other
	// tenants already failed above with the same error, so both cases are
	// indistinguishable to the caller.
	if len(cats) != len(unique) {
		return ErrUnknownCategory
	}

	for _, c := range cats {
		if c.Source != expected {
			return ErrUnknownCategory
		}
	}

	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
