package operation

import (
	"context"
	"fmt"
	"strings"
)

// Child-row writers. They take the shared querier so they run the same
// inside Store.Create and Store.Update transactions.

func insertFuel(ctx context.Context, q querier, operationID string, in *FuelCreate) error {
	_, err := q.Exec(ctx,
		`INSERT INTO fuel_details (operation_id, quantity, amount, description, category_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		operationID, in.Quantity, in.Amount, in.Description, in.CategoryID)
	if err != nil {
		return fmt.Errorf("creating fuel details: %w", err)
	}
	return nil
}

func insertReading(ctx context.Context, q querier, operationID string, in *OdometerPayload) error {
	_, err := q.Exec(ctx,
		`INSERT INTO odometer_readings (operation_id, value, description)
		 VALUES ($1, $2, $3)`,
		operationID, in.Value, in.Description)
	if err != nil {
		return fmt.Errorf("creating odometer reading: %w", err)
	}
	return nil
}

func insertService(ctx context.Context, q querier, operationID string, in *ServiceCreate) error {
	_, err := q.Exec(ctx,
		`INSERT INTO service_details (operation_id, description) VALUES ($1, $2)`,
		operationID, in.Description)
	if err != nil {
		return fmt.Errorf("creating service details: %w", err)
	}
	return insertItems(ctx, q, "service_items", operationID, in.Items)
}

func insertTransaction(ctx context.Context, q querier, operationID string, in *TransactionCreate) error {
	_, err := q.Exec(ctx,
		`INSERT INTO transaction_details (operation_id, type, description) VALUES ($1, $2, $3)`,
		operationID, in.Type, in.Description)
	if err != nil {
		return fmt.Errorf("creating transaction details: %w", err)
	}
	return insertItems(ctx, q, "transaction_items", operationID, in.Items)
}

func insertItems(ctx context.Context, q querier, table, operationID string, items []ItemInput) error {
	for _, it := range items {
		_, err := q.Exec(ctx,
			`INSERT INTO `+table+` (operation_id, amount, description, category_id)
			 VALUES ($1, $2, $3, $4)`,
			operationID, it.Amount, it.Description, it.CategoryID)
		if err != nil {
			return fmt.Errorf("creating %s row: %w", table, err)
		}
	}
	return nil
}

func updateFuel(ctx context.Context, q querier, operationID string, in *FuelUpdate) error {
	if in == nil {
		return nil
	}

	setClauses := []string{}
	args := []any{}
	argIdx := 1

	if in.Quantity != nil {
		setClauses = append(setClauses, fmt.Sprintf("quantity = $%d", argIdx))
		args = append(args, *in.Quantity)
		argIdx++
	}
	if in.Amount != nil {
		setClauses = append(setClauses, fmt.Sprintf("amount = $%d", argIdx))
		args = append(args, *in.Amount)
		argIdx++
	}
	if in.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *in.Description)
		argIdx++
	}
	if in.CategoryID != nil {
		setClauses = append(setClauses, fmt.Sprintf("category_id = $%d", argIdx))
		args = append(args, *in.CategoryID)
		argIdx++
	}
	if len(setClauses) == 0 {
		return nil
	}

	args = append(args, operationID)
	query := fmt.Sprintf(`UPDATE fuel_details SET %s WHERE operation_id = $%d`,
		strings.Join(setClauses, ", "), argIdx)
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("updating fuel details: %w", err)
	}
	return nil
}

func updateReading(ctx context.Context, q querier, operationID string, in *OdometerUpdate) error {
	if in == nil {
		return nil
	}

	setClauses := []string{}
	args := []any{}
	argIdx := 1

	if in.Value != nil {
		setClauses = append(setClauses, fmt.Sprintf("value = $%d", argIdx))
		args = append(args, *in.Value)
		argIdx++
	}
	if in.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *in.Description)
		argIdx++
	}
	if len(setClauses) == 0 {
		return nil
	}

	args = append(args, operationID)
	query := fmt.Sprintf(`UPDATE odometer_readings SET %s WHERE operation_id = $%d`,
		strings.Join(setClauses, ", "), argIdx)
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("updating odometer reading: %w", err)
	}
	return nil
}

func updateService(ctx context.Context, q querier, operationID string, in *ServiceUpdate) error {
	if in == nil {
		return nil
	}
	if in.Description != nil {
		_, err := q.Exec(ctx,
			`UPDATE service_details SET description = $1 WHERE operation_id = $2`,
			*in.Description, operationID)
		if err != nil {
			return fmt.Errorf("updating service details: %w", err)
		}
	}
	if in.Items != nil {
		if err := reconcileStoredItems(ctx, q, "service_items", operationID, in.Items); err != nil {
			return err
		}
	}
	return nil
}

func updateTransaction(ctx context.Context, q querier, operationID string, in *TransactionUpdate) error {
	if in == nil {
		return nil
	}
	if in.Description != nil {
		_, err := q.Exec(ctx,
			`UPDATE transaction_details SET description = $1 WHERE operation_id = $2`,
			*in.Description, operationID)
		if err != nil {
			return fmt.Errorf("updating transaction details: %w", err)
		}
	}
	if in.Items != nil {
		if err := reconcileStoredItems(ctx, q, "transaction_items", operationID, in.Items); err != nil {
			return err
		}
	}
	return nil
}

// reconcileStoredItems applies a full item submission to the stored rows:
// stored rows absent from the submission are deleted, submitted rows with a
// known id are updated in place, and id-less rows are inserted.
func reconcileStoredItems(ctx context.Context, q querier, table, operationID string, submitted []ItemInput) error {
	existing, err := loadItemIDs(ctx, q, table, operationID)
	if err != nil {
		return err
	}

	plan, err := reconcileItems(existing, submitted)
	if err != nil {
		return err
	}

	for _, id := range plan.deleteIDs {
		_, err := q.Exec(ctx,
			`DELETE FROM `+table+` WHERE id = $1 AND operation_id = $2`, id, operationID)
		if err != nil {
			return fmt.Errorf("deleting %s row: %w", table, err)
		}
	}
	for _, it := range plan.updates {
		_, err := q.Exec(ctx,
			`UPDATE `+table+` SET amount = $1, description = $2, category_id = $3
			 WHERE id = $4 AND operation_id = $5`,
			it.Amount, it.Description, it.CategoryID, it.ID, operationID)
		if err != nil {
			return fmt.Errorf("updating %s row: %w", table, err)
		}
	}
	return insertItems(ctx, q, table, operationID, plan.inserts)
}

func loadItemIDs(ctx context.Context, q querier, table, operationID string) ([]string, error) {
	rows, err := q.Query(ctx,
		`SELECT id FROM `+table+` WHERE operation_id = $1`, operationID)
	if err != nil {
		return nil, fmt.Errorf("loading %s ids: %w", table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// applyReadingPolicy reconciles the optional side reading of a non-odometer
// operation against the submitted payload: present payload creates or
// overwrites the row, absent payload removes it. For odometer operations
// the reading is the mandatory child, never a side effect; a side payload
// against one is rejected outright.
func applyReadingPolicy(ctx context.Context, q querier, kind Kind, operationID string, reading *OdometerPayload) error {
	if kind == KindOdometer {
		if reading != nil {
			return ErrReadingNotAllowed
		}
		return nil
	}
	if reading == nil {
		_, err := q.Exec(ctx,
			`DELETE FROM odometer_readings WHERE operation_id = $1`, operationID)
		if err != nil {
			return fmt.Errorf("deleting odometer reading: %w", err)
		}
		return nil
	}

	_, err := q.Exec(ctx,
		`INSERT INTO odometer_readings (operation_id, value, description)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (operation_id) DO UPDATE SET value = $2, description = $3`,
		operationID, reading.Value, reading.Description)
	if err != nil {
		return fmt.Errorf("upserting odometer reading: %w", err)
	}
	return nil
}
