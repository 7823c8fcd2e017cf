package operation

import (
	"context"
	"errors"
	"testing"

	"github.com/fleetlog/fleetlog/internal/category"
	"github.com/fleetlog/fleetlog/internal/vehicle"
)

type fakeVehicles struct {
	known map[string]bool
}

func (f fakeVehicles) GetByID(_ context.Context, tenantID, id string) (*vehicle.Vehicle, error) {
	if f.known[tenantID+"/"+id] {
		return &vehicle.Vehicle{ID: id, TenantID: tenantID}, nil
	}
	return nil, vehicle.ErrNotFound
}

type fakeCategories struct {
	lastIDs    []string
	lastSource category.Source
	err        error
}

func (f *fakeCategories) Validate(_ context.Context, _ string, ids []string, expected category.Source) error {
	f.lastIDs = ids
	f.lastSource = expected
	return f.err
}

func newTestService(cats *fakeCategories) *Service {
	return NewService(nil, fakeVehicles{known: map[string]bool{"tenant-1/veh-1": true}}, cats)
}

func TestCreateFuelRequiresCategory(t *testing.T) {
	svc := newTestService(&fakeCategories{})
	_, err := svc.CreateFuel(context.Background(), "tenant-1", "user-1", "veh-1",
		FuelCreate{Quantity: 10, Amount: 20}, nil)
	if !errors.Is(err, ErrCategoryRequired) {
		t.Errorf("expected ErrCategoryRequired, got %v", err)
	}
}

func TestCreateFuelValidatesCategorySource(t *testing.T) {
	cats := &fakeCategories{err: category.ErrUnknownCategory}
	svc := newTestService(cats)

	_, err := svc.CreateFuel(context.Background(), "tenant-1", "user-1", "veh-1",
		FuelCreate{Quantity: 10, Amount: 20, CategoryID: "cat-1"}, nil)
	if !errors.Is(err, category.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if cats.lastSource != category.SourceFuel {
		t.Errorf("fuel payload validated against source %q", cats.lastSource)
	}
}

func TestCreateServiceRejectsEmptyItems(t *testing.T) {
	svc := newTestService(&fakeCategories{})
	_, err := svc.CreateService(context.Background(), "tenant-1", "user-1", "veh-1",
		ServiceCreate{Description: "oil change"}, nil)
	if !errors.Is(err, ErrItemsRequired) {
		t.Errorf("expected ErrItemsRequired, got %v", err)
	}
}

func TestCreateServiceValidatesItemCategories(t *testing.T) {
	cats := &fakeCategories{err: category.ErrUnknownCategory}
	svc := newTestService(cats)

	_, err := svc.CreateService(context.Background(), "tenant-1", "user-1", "veh-1",
		ServiceCreate{Items: []ItemInput{
			{Amount: 10, CategoryID: "cat-a"},
			{Amount: 20, CategoryID: "cat-b"},
		}}, nil)
	if !errors.Is(err, category.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if len(cats.lastIDs) != 2 || cats.lastSource != category.SourceService {
		t.Errorf("item categories not validated: ids=%v source=%q", cats.lastIDs, cats.lastSource)
	}
}

func TestCreateChecksVehicleBeforeCategories(t *testing.T) {
	cats := &fakeCategories{err: category.ErrUnknownCategory}
	svc := newTestService(cats)

	// Both the vehicle and the category are unknown; the vehicle must
	// report first and the category validator must never run.
	_, err := svc.CreateFuel(context.Background(), "tenant-1", "user-1", "veh-missing",
		FuelCreate{Quantity: 10, Amount: 20, CategoryID: "bad-cat"}, nil)
	if !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("expected ErrVehicleNotFound, got %v", err)
	}
	if cats.lastIDs != nil {
		t.Errorf("category validator ran before the vehicle lookup: ids=%v", cats.lastIDs)
	}

	_, err = svc.CreateService(context.Background(), "tenant-1", "user-1", "veh-missing",
		ServiceCreate{Items: []ItemInput{{Amount: 10, CategoryID: "bad-cat"}}}, nil)
	if !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("expected ErrVehicleNotFound, got %v", err)
	}
	if cats.lastIDs != nil {
		t.Errorf("category validator ran before the vehicle lookup: ids=%v", cats.lastIDs)
	}
}

func TestCreateServiceRejectsItemWithoutCategory(t *testing.T) {
	svc := newTestService(&fakeCategories{})
	_, err := svc.CreateService(context.Background(), "tenant-1", "user-1", "veh-1",
		ServiceCreate{Items: []ItemInput{{Amount: 10}}}, nil)
	if !errors.Is(err, ErrCategoryRequired) {
		t.Errorf("expected ErrCategoryRequired, got %v", err)
	}
}

func TestCreateTransactionMapsTypeToSource(t *testing.T) {
	cats := &fakeCategories{err: category.ErrUnknownCategory}
	svc := newTestService(cats)

	_, err := svc.CreateTransaction(context.Background(), "tenant-1", "user-1", "veh-1",
		TransactionCreate{
			Type:  TransactionIncome,
			Items: []ItemInput{{Amount: 100, CategoryID: "cat-1"}},
		}, nil)
	if !errors.Is(err, category.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if cats.lastSource != category.SourceIncome {
		t.Errorf("income transaction validated against source %q", cats.lastSource)
	}
}

func TestCreateTransactionRejectsUnknownType(t *testing.T) {
	svc := newTestService(&fakeCategories{})
	_, err := svc.CreateTransaction(context.Background(), "tenant-1", "user-1", "veh-1",
		TransactionCreate{
			Type:  TransactionType("transfer"),
			Items: []ItemInput{{Amount: 100, CategoryID: "cat-1"}},
		}, nil)
	if !errors.Is(err, ErrInvalidTransactionType) {
		t.Errorf("expected ErrInvalidTransactionType, got %v", err)
	}
}

func TestCreateRejectsForeignVehicle(t *testing.T) {
	svc := newTestService(&fakeCategories{})
	_, err := svc.CreateOdometer(context.Background(), "tenant-2", "user-1", "veh-1",
		OdometerPayload{Value: 100})
	if !errors.Is(err, ErrVehicleNotFound) {
		t.Errorf("vehicle in another tenant must be unresolvable, got %v", err)
	}
}
