package operation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// recordingQuerier captures Exec statements; Query and QueryRow are never
// reached by the reading policy.
type recordingQuerier struct {
	execs []execCall
}

type execCall struct {
	sql  string
	args []any
}

func (r *recordingQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.execs = append(r.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func (r *recordingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("unexpected Query")
}

func (r *recordingQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("unexpected QueryRow")
}

func TestApplyReadingPolicyDeletesOnAbsentPayload(t *testing.T) {
	q := &recordingQuerier{}
	if err := applyReadingPolicy(context.Background(), q, KindFuel, "op-1", nil); err != nil {
		t.Fatalf("applyReadingPolicy: %v", err)
	}
	if len(q.execs) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(q.execs))
	}
	if !strings.HasPrefix(q.execs[0].sql, "DELETE FROM odometer_readings") {
		t.Errorf("expected a delete, got %q", q.execs[0].sql)
	}
	if q.execs[0].args[0] != "op-1" {
		t.Errorf("delete targeted %v", q.execs[0].args)
	}
}

func TestApplyReadingPolicyUpsertsOnPresentPayload(t *testing.T) {
	q := &recordingQuerier{}
	reading := &OdometerPayload{Value: 125000, Description: "at the pump"}
	if err := applyReadingPolicy(context.Background(), q, KindFuel, "op-1", reading); err != nil {
		t.Fatalf("applyReadingPolicy: %v", err)
	}
	if len(q.execs) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(q.execs))
	}
	sql := q.execs[0].sql
	if !strings.Contains(sql, "INSERT INTO odometer_readings") ||
		!strings.Contains(sql, "ON CONFLICT (operation_id) DO UPDATE") {
		t.Errorf("expected an upsert, got %q", sql)
	}
	if q.execs[0].args[1] != int64(125000) {
		t.Errorf("upsert args = %v", q.execs[0].args)
	}
}

// Applying the same payload twice must converge on one row with the final
// values, which the upsert guarantees statement-for-statement.
func TestApplyReadingPolicyIdempotentResubmission(t *testing.T) {
	q := &recordingQuerier{}
	reading := &OdometerPayload{Value: 1000}
	for i := 0; i < 2; i++ {
		if err := applyReadingPolicy(context.Background(), q, KindService, "op-1", reading); err != nil {
			t.Fatalf("applyReadingPolicy: %v", err)
		}
	}
	if len(q.execs) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(q.execs))
	}
	if q.execs[0].sql != q.execs[1].sql {
		t.Errorf("resubmission issued a different statement")
	}
	if !strings.Contains(q.execs[0].sql, "ON CONFLICT (operation_id) DO UPDATE") {
		t.Errorf("expected an upsert, got %q", q.execs[0].sql)
	}
}

func TestApplyReadingPolicySkipsOdometerKind(t *testing.T) {
	q := &recordingQuerier{}
	if err := applyReadingPolicy(context.Background(), q, KindOdometer, "op-1", nil); err != nil {
		t.Fatalf("applyReadingPolicy: %v", err)
	}
	err := applyReadingPolicy(context.Background(), q, KindOdometer, "op-1", &OdometerPayload{Value: 5})
	if !errors.Is(err, ErrReadingNotAllowed) {
		t.Fatalf("expected ErrReadingNotAllowed, got %v", err)
	}
	if len(q.execs) != 0 {
		t.Errorf("mandatory reading of an odometer operation was touched: %v", q.execs)
	}
}
