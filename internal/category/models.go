package category

import (
	"errors"
	"time"
)

// Source determines which operation payloads a category may be attached to.
type Source string

const (
	SourceFuel    Source = "fuel"
	SourceService Source = "service"
	SourceExpense Source = "expense"
	SourceIncome  Source = "income"
)

// ParseSource validates a category source string.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceFuel, SourceService, SourceExpense, SourceIncome:
		return Source(s), nil
	}
	return "", ErrInvalidSource
}

var (
	ErrNameRequired  = errors.New("category name is required")
	ErrInvalidSource = errors.New("category source must be fuel, service, expense or income")

	// ErrUnknownCategory covers every validation failure: missing ids,
	// foreign-tenant ids and source mismatches are deliberately
	// indistinguishable so cross-tenant existence never leaks.
	ErrUnknownCategory = errors.New("category not found")

	// ErrSystemCategory is returned when a tenant tries to mutate a
	// system-wide (tenant-less) category.
	ErrSystemCategory = errors.New("system categories are read-only")
)

// Category labels operation payload lines. A nil TenantID marks a
// system-wide category usable read-only by every tenant.
type Category struct {
	ID        string    `json:"id"`
	TenantID  *string   `json:"tenant_id,omitempty"`
	Name      string    `json:"name"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// IsSystem reports whether the category is a system-wide one.
func (c *Category) IsSystem() bool {
	return c.TenantID == nil
}

// CreateCategoryInput holds the fields required to create a category.
type CreateCategoryInput struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// UpdateCategoryInput holds optional fields for a partial category update.
// Source is immutable once set; operations already reference it by kind.
type UpdateCategoryInput struct {
	Name *string `json:"name"`
}
