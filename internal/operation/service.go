package operation

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetlog/fleetlog/internal/category"
	"github.com/fleetlog/fleetlog/internal/vehicle"
)

// VehicleLookup resolves a vehicle within a tenant.
type VehicleLookup interface {
	GetByID(ctx context.Context, tenantID, id string) (*vehicle.Vehicle, error)
}

// CategoryChecker validates that a set of category ids is visible to the
// tenant and carries the expected source.
type CategoryChecker interface {
	Validate(ctx context.Context, tenantID string, ids []string, expected category.Source) error
}

// Service validates operation payloads and their references before handing
// writes to the store. The store enforces tenant ownership of the
// aggregate itself; the service enforces ownership of everything the
// payload points at.
type Service struct {
	store      *Store
	vehicles   VehicleLookup
	categories CategoryChecker
}

// NewService creates a Service.
func NewService(store *Store, vehicles VehicleLookup, categories CategoryChecker) *Service {
	return &Service{store: store, vehicles: vehicles, categories: categories}
}

// CreateFuel records a fuel operation. The vehicle is resolved before any
// payload validation so an unknown vehicle always reports first.
func (s *Service) CreateFuel(ctx context.Context, tenantID, authorID, vehicleID string, in FuelCreate, reading *OdometerPayload) (*Aggregate, error) {
	if err := s.checkVehicle(ctx, tenantID, vehicleID); err != nil {
		return nil, err
	}
	if in.CategoryID == "" {
		return nil, ErrCategoryRequired
	}
	if err := s.categories.Validate(ctx, tenantID, []string{in.CategoryID}, category.SourceFuel); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, tenantID, authorID, CreateInput{
		VehicleID: vehicleID,
		Kind:      KindFuel,
		Fuel:      &in,
		Odometer:  reading,
	})
}

// CreateOdometer records a standalone odometer operation.
func (s *Service) CreateOdometer(ctx context.Context, tenantID, authorID, vehicleID string, in OdometerPayload) (*Aggregate, error) {
	if err := s.checkVehicle(ctx, tenantID, vehicleID); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, tenantID, authorID, CreateInput{
		VehicleID: vehicleID,
		Kind:      KindOdometer,
		Odometer:  &in,
	})
}

// CreateService records a service operation.
func (s *Service) CreateService(ctx context.Context, tenantID, authorID, vehicleID string, in ServiceCreate, reading *OdometerPayload) (*Aggregate, error) {
	if err := s.checkVehicle(ctx, tenantID, vehicleID); err != nil {
		return nil, err
	}
	if err := s.validateItems(ctx, tenantID, in.Items, category.SourceService); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, tenantID, authorID, CreateInput{
		VehicleID: vehicleID,
		Kind:      KindService,
		Service:   &in,
		Odometer:  reading,
	})
}

// CreateTransaction records a transaction operation.
func (s *Service) CreateTransaction(ctx context.Context, tenantID, authorID, vehicleID string, in TransactionCreate, reading *OdometerPayload) (*Aggregate, error) {
	if err := s.checkVehicle(ctx, tenantID, vehicleID); err != nil {
		return nil, err
	}
	source, err := in.Type.Source()
	if err != nil {
		return nil, err
	}
	if err := s.validateItems(ctx, tenantID, in.Items, source); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, tenantID, authorID, CreateInput{
		VehicleID:   vehicleID,
		Kind:        KindTransaction,
		Transaction: &in,
		Odometer:    reading,
	})
}

// Get loads the aggregate within the caller's tenant.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Aggregate, error) {
	return s.store.GetByID(ctx, tenantID, id)
}

// List returns a page of operations for the tenant.
func (s *Service) List(ctx context.Context, tenantID string, params ListParams) ([]*Operation, string, error) {
	if params.VehicleID != "" {
		if err := s.checkVehicle(ctx, tenantID, params.VehicleID); err != nil {
			return nil, "", err
		}
	}
	return s.store.List(ctx, tenantID, params)
}

// UpdateFuel applies a partial update to a fuel operation. A nil reading
// removes the side reading; a non-nil one creates or overwrites it.
func (s *Service) UpdateFuel(ctx context.Context, tenantID, id string, in FuelUpdate, reading *OdometerPayload) (*Aggregate, error) {
	if err := s.checkKind(ctx, tenantID, id, KindFuel); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			return nil, ErrCategoryRequired
		}
		if err := s.categories.Validate(ctx, tenantID, []string{*in.CategoryID}, category.SourceFuel); err != nil {
			return nil, err
		}
	}
	return s.store.Update(ctx, tenantID, id, UpdateInput{Fuel: &in, Reading: reading})
}

// UpdateOdometer applies a partial update to a standalone odometer
// operation. Odometer operations cannot carry a second reading.
func (s *Service) UpdateOdometer(ctx context.Context, tenantID, id string, in OdometerUpdate) (*Aggregate, error) {
	if err := s.checkKind(ctx, tenantID, id, KindOdometer); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, tenantID, id, UpdateInput{Odometer: &in})
}

// UpdateService applies a partial update to a service operation,
// reconciling the submitted items against the stored collection when a
// non-nil item list is given.
func (s *Service) UpdateService(ctx context.Context, tenantID, id string, in ServiceUpdate, reading *OdometerPayload) (*Aggregate, error) {
	if err := s.checkKind(ctx, tenantID, id, KindService); err != nil {
		return nil, err
	}
	if in.Items != nil {
		if err := s.validateItems(ctx, tenantID, in.Items, category.SourceService); err != nil {
			return nil, err
		}
	}
	return s.store.Update(ctx, tenantID, id, UpdateInput{Service: &in, Reading: reading})
}

// UpdateTransaction applies a partial update to a transaction operation.
// The transaction type itself is immutable.
func (s *Service) UpdateTransaction(ctx context.Context, tenantID, id string, in TransactionUpdate, reading *OdometerPayload) (*Aggregate, error) {
	op, err := s.store.CheckOwnership(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if op.Kind != KindTransaction {
		return nil, ErrNotFound
	}
	if in.Items != nil {
		agg, err := s.store.GetByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		source, err := agg.Transaction.Type.Source()
		if err != nil {
			return nil, fmt.Errorf("stored transaction type: %w", err)
		}
		if err := s.validateItems(ctx, tenantID, in.Items, source); err != nil {
			return nil, err
		}
	}
	return s.store.Update(ctx, tenantID, id, UpdateInput{Transaction: &in, Reading: reading})
}

// Remove deletes the operation and all of its children, reporting the
// deleted operation's kind.
func (s *Service) Remove(ctx context.Context, tenantID, id string) (Kind, error) {
	return s.store.Delete(ctx, tenantID, id)
}

// checkKind resolves the operation within the tenant and confirms its
// kind. A kind mismatch reports ErrNotFound: from the caller's point of
// view no such fuel (or service, ...) operation exists.
func (s *Service) checkKind(ctx context.Context, tenantID, id string, kind Kind) error {
	op, err := s.store.CheckOwnership(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if op.Kind != kind {
		return ErrNotFound
	}
	return nil
}

func (s *Service) checkVehicle(ctx context.Context, tenantID, vehicleID string) error {
	_, err := s.vehicles.GetByID(ctx, tenantID, vehicleID)
	if err != nil {
		if errors.Is(err, vehicle.ErrNotFound) {
			return ErrVehicleNotFound
		}
		return fmt.Errorf("resolving vehicle: %w", err)
	}
	return nil
}

// validateItems rejects an empty item collection and checks every
// referenced category against the expected source.
func (s *Service) validateItems(ctx context.Context, tenantID string, items []ItemInput, source category.Source) error {
	if len(items) == 0 {
		return ErrItemsRequired
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.CategoryID == "" {
			return ErrCategoryRequired
		}
		ids = append(ids, it.CategoryID)
	}
	return s.categories.Validate(ctx, tenantID, ids, source)
}
