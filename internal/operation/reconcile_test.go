package operation

import (
	"errors"
	"testing"
)

func TestReconcileItemsEmptySubmission(t *testing.T) {
	_, err := reconcileItems([]string{"a"}, nil)
	if !errors.Is(err, ErrItemsRequired) {
		t.Errorf("expected ErrItemsRequired, got %v", err)
	}

	_, err = reconcileItems(nil, []ItemInput{})
	if !errors.Is(err, ErrItemsRequired) {
		t.Errorf("expected ErrItemsRequired for empty slice, got %v", err)
	}
}

func TestReconcileItemsDuplicateID(t *testing.T) {
	_, err := reconcileItems([]string{"a"}, []ItemInput{
		{ID: "a", Amount: 10},
		{ID: "a", Amount: 20},
	})
	if !errors.Is(err, ErrDuplicateItemID) {
		t.Errorf("expected ErrDuplicateItemID, got %v", err)
	}
}

func TestReconcileItemsUnknownID(t *testing.T) {
	_, err := reconcileItems([]string{"a"}, []ItemInput{{ID: "b", Amount: 10}})
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestReconcileItemsSplit(t *testing.T) {
	plan, err := reconcileItems([]string{"a", "b", "c"}, []ItemInput{
		{ID: "a", Amount: 1},
		{ID: "c", Amount: 3},
		{Amount: 4, Description: "new"},
		{Amount: 5, Description: "another"},
	})
	if err != nil {
		t.Fatalf("reconcileItems returned error: %v", err)
	}

	if len(plan.deleteIDs) != 1 || plan.deleteIDs[0] != "b" {
		t.Errorf("expected delete of [b], got %v", plan.deleteIDs)
	}
	if len(plan.updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(plan.updates))
	}
	if plan.updates[0].ID != "a" || plan.updates[1].ID != "c" {
		t.Errorf("unexpected update ids: %v, %v", plan.updates[0].ID, plan.updates[1].ID)
	}
	if len(plan.inserts) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(plan.inserts))
	}
	for _, it := range plan.inserts {
		if it.ID != "" {
			t.Errorf("insert carries an id: %q", it.ID)
		}
	}
}

func TestReconcileItemsFullReplacement(t *testing.T) {
	plan, err := reconcileItems([]string{"a", "b"}, []ItemInput{
		{Amount: 1, Description: "fresh"},
	})
	if err != nil {
		t.Fatalf("reconcileItems returned error: %v", err)
	}
	if len(plan.deleteIDs) != 2 {
		t.Errorf("expected both stored rows deleted, got %v", plan.deleteIDs)
	}
	if len(plan.updates) != 0 {
		t.Errorf("expected no updates, got %d", len(plan.updates))
	}
	if len(plan.inserts) != 1 {
		t.Errorf("expected 1 insert, got %d", len(plan.inserts))
	}
}

func TestReconcileItemsIdempotentResubmission(t *testing.T) {
	submitted := []ItemInput{
		{ID: "a", Amount: 1},
		{ID: "b", Amount: 2},
	}
	plan, err := reconcileItems([]string{"a", "b"}, submitted)
	if err != nil {
		t.Fatalf("reconcileItems returned error: %v", err)
	}
	if len(plan.deleteIDs) != 0 || len(plan.inserts) != 0 {
		t.Errorf("resubmission should only update, got deletes %v inserts %v",
			plan.deleteIDs, plan.inserts)
	}
	if len(plan.updates) != 2 {
		t.Errorf("expected 2 updates, got %d", len(plan.updates))
	}
}

func TestReconcileItemsNoStoredRows(t *testing.T) {
	plan, err := reconcileItems(nil, []ItemInput{{Amount: 1}})
	if err != nil {
		t.Fatalf("reconcileItems returned error: %v", err)
	}
	if len(plan.inserts) != 1 || len(plan.updates) != 0 || len(plan.deleteIDs) != 0 {
		t.Errorf("expected a single insert, got %+v", plan)
	}
}
