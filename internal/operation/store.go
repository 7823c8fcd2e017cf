package operation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for the operation aggregate. Every
// multi-row write happens inside a single transaction; a parent row is
// never persisted without its mandatory child. Deletion relies on the
// schema's ON DELETE CASCADE from operations to all child tables.
//
// No optimistic-concurrency token exists on operations: two concurrent
// updates to the same aggregate are serialized only by the database's
// transaction isolation, and the last write wins.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so aggregate
// loading and child writes work inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const operationColumns = `id, kind, tenant_id, vehicle_id, author_id, created_at, updated_at`

func scanOperation(row pgx.Row) (*Operation, error) {
	op := &Operation{}
	err := row.Scan(&op.ID, &op.Kind, &op.TenantID, &op.VehicleID, &op.AuthorID,
		&op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return op, nil
}

// getOperation fetches the parent row scoped to the caller's tenant. An
// absent row and a row owned by another tenant both return ErrNotFound;
// this is the ownership check every access path goes through.
func getOperation(ctx context.Context, q querier, tenantID, id string) (*Operation, error) {
	op, err := scanOperation(q.QueryRow(ctx,
		`SELECT `+operationColumns+` FROM operations WHERE id = $1 AND tenant_id = $2`,
		id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting operation: %w", err)
	}
	return op, nil
}

// CheckOwnership resolves the operation within the caller's tenant.
func (s *Store) CheckOwnership(ctx context.Context, tenantID, id string) (*Operation, error) {
	return getOperation(ctx, s.pool, tenantID, id)
}

// GetByID loads the full aggregate scoped to the caller's tenant.
func (s *Store) GetByID(ctx context.Context, tenantID, id string) (*Aggregate, error) {
	op, err := getOperation(ctx, s.pool, tenantID, id)
	if err != nil {
		return nil, err
	}
	return loadAggregate(ctx, s.pool, op)
}

// Create inserts the operation, its mandatory typed child and the optional
// side reading in one transaction, returning every created row.
func (s *Store) Create(ctx context.Context, tenantID, authorID string, in CreateInput) (*Aggregate, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	op, err := scanOperation(tx.QueryRow(ctx,
		`INSERT INTO operations (kind, tenant_id, vehicle_id, author_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+operationColumns,
		in.Kind, tenantID, in.VehicleID, authorID))
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}

	switch in.Kind {
	case KindFuel:
		if err := insertFuel(ctx, tx, op.ID, in.Fuel); err != nil {
			return nil, err
		}
	case KindOdometer:
		if err := insertReading(ctx, tx, op.ID, in.Odometer); err != nil {
			return nil, err
		}
	case KindService:
		if err := insertService(ctx, tx, op.ID, in.Service); err != nil {
			return nil, err
		}
	case KindTransaction:
		if err := insertTransaction(ctx, tx, op.ID, in.Transaction); err != nil {
			return nil, err
		}
	}

	// The side reading of a non-odometer operation shares the readings
	// table with standalone odometer children.
	if in.Kind != KindOdometer && in.Odometer != nil {
		if err := insertReading(ctx, tx, op.ID, in.Odometer); err != nil {
			return nil, err
		}
	}

	agg, err := loadAggregate(ctx, tx, op)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing operation create: %w", err)
	}
	return agg, nil
}

// Update applies a partial update to the aggregate in one transaction:
// ownership re-check, mandatory child merge, item reconciliation and the
// side-reading policy all commit together or not at all.
func (s *Store) Update(ctx context.Context, tenantID, id string, in UpdateInput) (*Aggregate, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	op, err := getOperation(ctx, tx, tenantID, id)
	if err != nil {
		return nil, err
	}

	switch op.Kind {
	case KindFuel:
		if err := updateFuel(ctx, tx, op.ID, in.Fuel); err != nil {
			return nil, err
		}
	case KindOdometer:
		if err := updateReading(ctx, tx, op.ID, in.Odometer); err != nil {
			return nil, err
		}
	case KindService:
		if err := updateService(ctx, tx, op.ID, in.Service); err != nil {
			return nil, err
		}
	case KindTransaction:
		if err := updateTransaction(ctx, tx, op.ID, in.Transaction); err != nil {
			return nil, err
		}
	}

	if err := applyReadingPolicy(ctx, tx, op.Kind, op.ID, in.Reading); err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx,
		`UPDATE operations SET updated_at = $1 WHERE id = $2 RETURNING updated_at`,
		time.Now().UTC(), op.ID).Scan(&op.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("touching operation: %w", err)
	}

	agg, err := loadAggregate(ctx, tx, op)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing operation update: %w", err)
	}
	return agg, nil
}

// Delete removes the operation within the caller's tenant, reporting its
// kind; child rows fall to the schema's cascade.
func (s *Store) Delete(ctx context.Context, tenantID, id string) (Kind, error) {
	var kind Kind
	err := s.pool.QueryRow(ctx,
		`DELETE FROM operations WHERE id = $1 AND tenant_id = $2 RETURNING kind`,
		id, tenantID).Scan(&kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("deleting operation: %w", err)
	}
	return kind, nil
}

// List returns a page of parent rows for the tenant ordered by
// created_at DESC, id DESC with cursor-based pagination.
func (s *Store) List(ctx context.Context, tenantID string, params ListParams) ([]*Operation, string, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	args := []any{tenantID}
	whereClauses := []string{"tenant_id = $1"}

	if params.VehicleID != "" {
		args = append(args, params.VehicleID)
		whereClauses = append(whereClauses, fmt.Sprintf("vehicle_id = $%d", len(args)))
	}
	if params.Kind != "" {
		args = append(args, params.Kind)
		whereClauses = append(whereClauses, fmt.Sprintf("kind = $%d", len(args)))
	}
	if params.Cursor != "" {
		cursorTime, cursorID, err := decodeCursor(params.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", err)
		}
		args = append(args, cursorTime, cursorID)
		whereClauses = append(whereClauses,
			fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := fmt.Sprintf(
		`SELECT %s FROM operations WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d`,
		operationColumns, strings.Join(whereClauses, " AND "), len(args)+1)
	args = append(args, limit+1) // fetch one extra to determine next cursor

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, "", fmt.Errorf("scanning operation row: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterating operation rows: %w", err)
	}

	var nextCursor string
	if len(ops) > limit {
		last := ops[limit-1]
		nextCursor = encodeCursor(last.CreatedAt, last.ID)
		ops = ops[:limit]
	}

	return ops, nextCursor, nil
}

func loadAggregate(ctx context.Context, q querier, op *Operation) (*Aggregate, error) {
	agg := &Aggregate{Operation: op}

	switch op.Kind {
	case KindFuel:
		f := &Fuel{}
		err := q.QueryRow(ctx,
			`SELECT operation_id, quantity, amount, description, category_id
			 FROM fuel_details WHERE operation_id = $1`, op.ID,
		).Scan(&f.OperationID, &f.Quantity, &f.Amount, &f.Description, &f.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("loading fuel details: %w", err)
		}
		agg.Fuel = f
	case KindService:
		sv := &ServiceDetail{}
		err := q.QueryRow(ctx,
			`SELECT operation_id, description FROM service_details WHERE operation_id = $1`,
			op.ID).Scan(&sv.OperationID, &sv.Description)
		if err != nil {
			return nil, fmt.Errorf("loading service details: %w", err)
		}
		items, err := loadServiceItems(ctx, q, op.ID)
		if err != nil {
			return nil, err
		}
		sv.Items = items
		agg.Service = sv
	case KindTransaction:
		t := &Transaction{}
		err := q.QueryRow(ctx,
			`SELECT operation_id, type, description FROM transaction_details WHERE operation_id = $1`,
			op.ID).Scan(&t.OperationID, &t.Type, &t.Description)
		if err != nil {
			return nil, fmt.Errorf("loading transaction details: %w", err)
		}
		items, err := loadTransactionItems(ctx, q, op.ID)
		if err != nil {
			return nil, err
		}
		t.Items = items
		agg.Transaction = t
	}

	// The reading row is the mandatory child for odometer operations and
	// the optional side child otherwise.
	rd := &Odometer{}
	err := q.QueryRow(ctx,
		`SELECT id, operation_id, value, description
		 FROM odometer_readings WHERE operation_id = $1`, op.ID,
	).Scan(&rd.ID, &rd.OperationID, &rd.Value, &rd.Description)
	switch {
	case err == nil:
		agg.Odometer = rd
	case errors.Is(err, pgx.ErrNoRows):
		if op.Kind == KindOdometer {
			return nil, fmt.Errorf("odometer operation %s has no reading row", op.ID)
		}
	default:
		return nil, fmt.Errorf("loading odometer reading: %w", err)
	}

	return agg, nil
}

func loadServiceItems(ctx context.Context, q querier, operationID string) ([]ServiceItem, error) {
	rows, err := q.Query(ctx,
		`SELECT id, operation_id, amount, description, category_id
		 FROM service_items WHERE operation_id = $1 ORDER BY created_at, id`,
		operationID)
	if err != nil {
		return nil, fmt.Errorf("loading service items: %w", err)
	}
	defer rows.Close()

	var items []ServiceItem
	for rows.Next() {
		var it ServiceItem
		if err := rows.Scan(&it.ID, &it.OperationID, &it.Amount, &it.Description, &it.CategoryID); err != nil {
			return nil, fmt.Errorf("scanning service item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func loadTransactionItems(ctx context.Context, q querier, operationID string) ([]TransactionItem, error) {
	rows, err := q.Query(ctx,
		`SELECT id, operation_id, amount, description, category_id
		 FROM transaction_items WHERE operation_id = $1 ORDER BY created_at, id`,
		operationID)
	if err != nil {
		return nil, fmt.Errorf("loading transaction items: %w", err)
	}
	defer rows.Close()

	var items []TransactionItem
	for rows.Next() {
		var it TransactionItem
		if err := rows.Scan(&it.ID, &it.OperationID, &it.Amount, &it.Description, &it.CategoryID); err != nil {
			return nil, fmt.Errorf("scanning transaction item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// --- cursor helpers ---

// encodeCursor encodes a timestamp and id into an opaque cursor string.
func encodeCursor(ts time.Time, id string) string {
	raw := ts.Format(time.RFC3339Nano) + "|" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor decodes an opaque cursor string into a timestamp and id.
func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("decoding cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("malformed cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("parsing cursor timestamp: %w", err)
	}
	return ts, parts[1], nil
}
