package vehicle

import (
	"errors"
	"time"
)

var (
	ErrNameRequired = errors.New("vehicle name is required")
	ErrNotFound     = errors.New("vehicle not found")
)

// Vehicle is a tenant-owned vehicle that operations are logged against.
type Vehicle struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Registration string    `json:"registration,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateVehicleInput holds the fields required to create a vehicle.
type CreateVehicleInput struct {
	Name         string `json:"name"`
	Registration string `json:"registration"`
}
