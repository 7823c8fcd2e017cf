package operation

import (
	"errors"
	"time"

	"github.com/fleetlog/fleetlog/internal/category"
)

// Kind discriminates the typed child of an operation. The set is closed;
// kinds are not user-extensible.
type Kind string

const (
	KindFuel        Kind = "fuel"
	KindOdometer    Kind = "odometer"
	KindService     Kind = "service"
	KindTransaction Kind = "transaction"
)

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindFuel, KindOdometer, KindService, KindTransaction:
		return Kind(s), nil
	}
	return "", ErrInvalidKind
}

// TransactionType is the direction of a transaction operation.
type TransactionType string

const (
	TransactionExpense TransactionType = "expense"
	TransactionIncome  TransactionType = "income"
)

// Source returns the category source transaction items must carry.
func (t TransactionType) Source() (category.Source, error) {
	switch t {
	case TransactionExpense:
		return category.SourceExpense, nil
	case TransactionIncome:
		return category.SourceIncome, nil
	}
	return "", ErrInvalidTransactionType
}

var (
	// ErrNotFound covers both an absent operation and one belonging to a
	// different tenant; the two must be indistinguishable.
	ErrNotFound = errors.New("operation not found")

	ErrInvalidKind            = errors.New("invalid operation kind")
	ErrInvalidTransactionType = errors.New("transaction type must be expense or income")
	ErrChildRequired          = errors.New("operation payload for its kind is required")
	ErrCategoryRequired       = errors.New("category reference is required")
	ErrItemsRequired          = errors.New("at least one item is required")
	ErrDuplicateItemID        = errors.New("duplicate item id in submission")
	ErrItemNotFound           = errors.New("submitted item id does not exist")
	ErrVehicleNotFound        = errors.New("vehicle not found")
	ErrReadingNotAllowed      = errors.New("odometer operations cannot carry a second reading")
)

// Operation is the aggregate root for one fleet event. It holds only the
// discriminant and shared fields; the kind-specific payload lives in
// exactly one child row.
type Operation struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	TenantID  string    `json:"tenant_id"`
	VehicleID string    `json:"vehicle_id"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fuel is the payload of a fuel operation.
type Fuel struct {
	OperationID string  `json:"operation_id"`
	Quantity    float64 `json:"quantity"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id"`
}

// Odometer is an odometer reading. It is the mandatory child of an
// odometer operation, or the optional side reading of any other kind;
// either way it is reached only through its parent operation.
type Odometer struct {
	ID          string `json:"id"`
	OperationID string `json:"operation_id"`
	Value       int64  `json:"value"`
	Description string `json:"description"`
}

// ServiceDetail is the payload of a service operation, owning an ordered,
// non-empty item collection.
type ServiceDetail struct {
	OperationID string        `json:"operation_id"`
	Description string        `json:"description"`
	Items       []ServiceItem `json:"items"`
}

// ServiceItem is one line of a service operation.
type ServiceItem struct {
	ID          string  `json:"id"`
	OperationID string  `json:"operation_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id"`
}

// Transaction is the payload of a transaction operation.
type Transaction struct {
	OperationID string            `json:"operation_id"`
	Type        TransactionType   `json:"type"`
	Description string            `json:"description"`
	Items       []TransactionItem `json:"items"`
}

// TransactionItem is one line of a transaction operation.
type TransactionItem struct {
	ID          string  `json:"id"`
	OperationID string  `json:"operation_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id"`
}

// Aggregate is an operation with its children loaded. Exactly one of the
// child fields matching the kind is set; Odometer additionally carries the
// optional side reading of a non-odometer operation.
type Aggregate struct {
	Operation   *Operation     `json:"operation"`
	Fuel        *Fuel          `json:"fuel,omitempty"`
	Odometer    *Odometer      `json:"odometer,omitempty"`
	Service     *ServiceDetail `json:"service,omitempty"`
	Transaction *Transaction   `json:"transaction,omitempty"`
}

// FuelCreate holds the fuel payload for creation.
type FuelCreate struct {
	Quantity    float64 `json:"quantity"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id"`
}

// FuelUpdate holds optional fields for a partial fuel update.
type FuelUpdate struct {
	Quantity    *float64 `json:"quantity"`
	Amount      *float64 `json:"amount"`
	Description *string  `json:"description"`
	CategoryID  *string  `json:"category_id"`
}

// OdometerPayload is the full odometer shape, used when creating a reading
// and when overwriting a side reading in place.
type OdometerPayload struct {
	Value       int64  `json:"value"`
	Description string `json:"description"`
}

// OdometerUpdate holds optional fields for a partial update of the
// mandatory odometer child.
type OdometerUpdate struct {
	Value       *int64  `json:"value"`
	Description *string `json:"description"`
}

// ItemInput is one submitted service or transaction item. A non-empty ID
// targets an existing row; an empty ID inserts a new one.
type ItemInput struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id"`
}

// ServiceCreate holds the service payload for creation.
type ServiceCreate struct {
	Description string      `json:"description"`
	Items       []ItemInput `json:"items"`
}

// ServiceUpdate holds optional fields for a partial service update. A nil
// Items slice leaves the stored items untouched; a non-nil slice is
// reconciled against them.
type ServiceUpdate struct {
	Description *string     `json:"description"`
	Items       []ItemInput `json:"items"`
}

// TransactionCreate holds the transaction payload for creation.
type TransactionCreate struct {
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Items       []ItemInput     `json:"items"`
}

// TransactionUpdate holds optional fields for a partial transaction
// update. The type is immutable: items already reference categories of the
// matching source.
type TransactionUpdate struct {
	Description *string     `json:"description"`
	Items       []ItemInput `json:"items"`
}

// CreateInput is the kind-tagged creation payload. Exactly the child
// matching Kind must be set; Odometer doubles as the mandatory child for
// odometer operations and the optional side reading for every other kind.
type CreateInput struct {
	VehicleID   string
	Kind        Kind
	Fuel        *FuelCreate
	Service     *ServiceCreate
	Transaction *TransactionCreate
	Odometer    *OdometerPayload
}

// UpdateInput is the kind-tagged update payload. Reading carries the side
// reading of a non-odometer operation: present means create-or-overwrite,
// absent means delete-if-present.
type UpdateInput struct {
	Fuel        *FuelUpdate
	Odometer    *OdometerUpdate
	Service     *ServiceUpdate
	Transaction *TransactionUpdate
	Reading     *OdometerPayload
}

// ListParams controls listing and pagination of operations.
type ListParams struct {
	VehicleID string
	Kind      Kind
	Cursor    string
	Limit     int
}
