package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alavela/clubhub/services/ledger/internal/domain"
)

// InventoryRepository owns the authoritative (total, available) ledger per
// equipment item.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const equipmentColumns = `id, name, category, total_quantity, available_quantity, status, created_at`

func (r *InventoryRepository) Get(ctx context.Context, equipmentID string) (domain.EquipmentItem, error) {
	const query = `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`
	return r.scanItem(r.queryRow(ctx, query, equipmentID))
}

// GetForUpdate locks the equipment row for the rest of the transaction. Every
// check-then-debit sequence must go through it so two concurrent requests
// cannot both pass the availability check.
func (r *InventoryRepository) GetForUpdate(ctx context.Context, equipmentID string) (domain.EquipmentItem, error) {
	const query = `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 FOR UPDATE`
	return r.scanItem(r.queryRow(ctx, query, equipmentID))
}

func (r *InventoryRepository) List(ctx context.Context) ([]domain.EquipmentItem, error) {
	const query = `SELECT ` + equipmentColumns + ` FROM equipment ORDER BY created_at ASC`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()

	var items []domain.EquipmentItem
	for rows.Next() {
		var item domain.EquipmentItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Total, &item.Available, &item.Status, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate equipment: %w", rows.Err())
	}
	return items, nil
}

func (r *InventoryRepository) Create(ctx context.Context, item domain.EquipmentItem) error {
	const stmt = `
INSERT INTO equipment (id, name, category, total_quantity, available_quantity, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.exec(ctx, stmt, item.ID, item.Name, item.Category, item.Total, item.Available, item.Status, item.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create equipment: %w", err)
	}
	return nil
}

// Debit decreases available quantity by qty. The guard in the statement keeps
// available non-negative even if a caller skipped the row lock.
func (r *InventoryRepository) Debit(ctx context.Context, equipmentID string, qty int) error {
	const stmt = `
UPDATE equipment
SET available_quantity = available_quantity - $2
WHERE id = $1 AND available_quantity >= $2`
	tag, err := r.exec(ctx, stmt, equipmentID, qty)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("debit equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, equipmentID); err != nil {
			return err
		}
		return domain.ErrInsufficientInventory
	}
	return nil
}

// Credit increases available quantity by qty, clamped at total. The clamp
// should never trigger under correct usage; it guards against double-credit.
func (r *InventoryRepository) Credit(ctx context.Context, equipmentID string, qty int) error {
	const stmt = `
UPDATE equipment
SET available_quantity = LEAST(total_quantity, available_quantity + $2)
WHERE id = $1`
	tag, err := r.exec(ctx, stmt, equipmentID, qty)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("credit equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEquipmentNotFound
	}
	return nil
}

// UpdateCapacity writes a resize decided by the service layer, which computes
// the new available quantity from the currently held amount under a row lock.
func (r *InventoryRepository) UpdateCapacity(ctx context.Context, equipmentID string, newTotal, newAvailable int) error {
	const stmt = `UPDATE equipment SET total_quantity = $2, available_quantity = $3 WHERE id = $1`
	tag, err := r.exec(ctx, stmt, equipmentID, newTotal, newAvailable)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update capacity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEquipmentNotFound
	}
	return nil
}

func (r *InventoryRepository) SetStatus(ctx context.Context, equipmentID string, status domain.EquipmentStatus) error {
	const stmt = `UPDATE equipment SET status = $2 WHERE id = $1`
	tag, err := r.exec(ctx, stmt, equipmentID, status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set equipment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEquipmentNotFound
	}
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, equipmentID string) error {
	const stmt = `DELETE FROM equipment WHERE id = $1`
	tag, err := r.exec(ctx, stmt, equipmentID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("delete equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEquipmentNotFound
	}
	return nil
}

// ResetAvailability restores every item's available quantity to its total.
// Manual recovery only; the caller clears the reservation index in the same
// transaction.
func (r *InventoryRepository) ResetAvailability(ctx context.Context) error {
	const stmt = `UPDATE equipment SET available_quantity = total_quantity`
	if _, err := r.exec(ctx, stmt); err != nil {
		return fmt.Errorf("reset availability: %w", err)
	}
	return nil
}

func (r *InventoryRepository) scanItem(row pgx.Row) (domain.EquipmentItem, error) {
	var item domain.EquipmentItem
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Total, &item.Available, &item.Status, &item.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.EquipmentItem{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.EquipmentItem{}, domain.ErrEquipmentNotFound
		}
		return domain.EquipmentItem{}, fmt.Errorf("get equipment: %w", err)
	}
	return item, nil
}

func (r *InventoryRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *InventoryRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *InventoryRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
