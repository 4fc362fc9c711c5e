package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alavela/clubhub/services/ledger/internal/domain"
)

// ReservationRepository owns one row per (event, equipment) pair plus the
// secondary lookup on the correlation token.
type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const reservationColumns = `event_id, equipment_id, quantity, requested_by, requested_at, status, decided_by, correlation_token`

func (r *ReservationRepository) Get(ctx context.Context, eventID, equipmentID string) (domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE event_id = $1 AND equipment_id = $2`
	return r.scanReservation(r.queryRow(ctx, query, eventID, equipmentID))
}

func (r *ReservationRepository) GetForUpdate(ctx context.Context, eventID, equipmentID string) (domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE event_id = $1 AND equipment_id = $2 FOR UPDATE`
	return r.scanReservation(r.queryRow(ctx, query, eventID, equipmentID))
}

func (r *ReservationRepository) GetByToken(ctx context.Context, token string) (domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE correlation_token = $1`
	return r.scanReservation(r.queryRow(ctx, query, token))
}

func (r *ReservationRepository) GetByTokenForUpdate(ctx context.Context, token string) (domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE correlation_token = $1 FOR UPDATE`
	return r.scanReservation(r.queryRow(ctx, query, token))
}

// Upsert creates the pair's row with status pending, or merges into the
// existing row: quantity adds up, requester, token and timestamp are
// overwritten, and the status reopens to pending. Last-writer-wins on the
// metadata is deliberate: re-requesting puts a denied or approved line back in
// front of the admins.
func (r *ReservationRepository) Upsert(ctx context.Context, rsv domain.Reservation) (domain.Reservation, error) {
	const stmt = `
INSERT INTO reservations (event_id, equipment_id, quantity, requested_by, requested_at, status, decided_by, correlation_token)
VALUES ($1, $2, $3, $4, $5, $6, '', $7)
ON CONFLICT (event_id, equipment_id) DO UPDATE SET
	quantity = reservations.quantity + EXCLUDED.quantity,
	requested_by = EXCLUDED.requested_by,
	requested_at = EXCLUDED.requested_at,
	status = EXCLUDED.status,
	decided_by = '',
	correlation_token = EXCLUDED.correlation_token
RETURNING ` + reservationColumns

	row := r.queryRow(ctx, stmt,
		rsv.EventID,
		rsv.EquipmentID,
		rsv.Quantity,
		rsv.RequestedBy,
		rsv.RequestedAt,
		domain.ReservationStatusPending,
		rsv.CorrelationToken,
	)
	merged, err := r.scanReservation(row)
	if err != nil {
		if isUniqueViolation(err) {
			// Token already addresses a different pair.
			return domain.Reservation{}, domain.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return domain.Reservation{}, domain.ErrEquipmentNotFound
		}
		return domain.Reservation{}, err
	}
	return merged, nil
}

// SetStatus moves a pending reservation to approved or denied. Rows in any
// other state refuse the transition.
func (r *ReservationRepository) SetStatus(ctx context.Context, eventID, equipmentID string, status domain.ReservationStatus, decidedBy string) (domain.Reservation, error) {
	const stmt = `
UPDATE reservations
SET status = $3, decided_by = $4
WHERE event_id = $1 AND equipment_id = $2 AND status = $5
RETURNING ` + reservationColumns

	updated, err := r.scanReservation(r.queryRow(ctx, stmt, eventID, equipmentID, status, decidedBy, domain.ReservationStatusPending))
	if err == domain.ErrReservationNotFound {
		if _, getErr := r.Get(ctx, eventID, equipmentID); getErr != nil {
			return domain.Reservation{}, getErr
		}
		return domain.Reservation{}, domain.ErrInvalidTransition
	}
	return updated, err
}

// SetStatusByToken is SetStatus addressed by the opaque correlation token,
// for callers that never learned the composite key.
func (r *ReservationRepository) SetStatusByToken(ctx context.Context, token string, status domain.ReservationStatus, decidedBy string) (domain.Reservation, error) {
	const stmt = `
UPDATE reservations
SET status = $2, decided_by = $3
WHERE correlation_token = $1 AND status = $4
RETURNING ` + reservationColumns

	updated, err := r.scanReservation(r.queryRow(ctx, stmt, token, status, decidedBy, domain.ReservationStatusPending))
	if err == domain.ErrReservationNotFound {
		if _, getErr := r.GetByToken(ctx, token); getErr != nil {
			return domain.Reservation{}, getErr
		}
		return domain.Reservation{}, domain.ErrInvalidTransition
	}
	return updated, err
}

// Delete removes the pair's row and returns the quantity and status it held,
// so the caller can decide whether a credit is still owed.
func (r *ReservationRepository) Delete(ctx context.Context, eventID, equipmentID string) (int, domain.ReservationStatus, error) {
	const stmt = `
DELETE FROM reservations
WHERE event_id = $1 AND equipment_id = $2
RETURNING quantity, status`

	var qty int
	var status domain.ReservationStatus
	err := r.queryRow(ctx, stmt, eventID, equipmentID).Scan(&qty, &status)
	if err != nil {
		if isInvalidUUID(err) {
			return 0, "", domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return 0, "", domain.ErrReservationNotFound
		}
		return 0, "", fmt.Errorf("delete reservation: %w", err)
	}
	return qty, status, nil
}

func (r *ReservationRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE event_id = $1 ORDER BY requested_at ASC`
	return r.list(ctx, query, eventID)
}

// ListByEventForUpdate locks every reservation of the event for the rest of
// the transaction. Used by the reclaim sweep.
func (r *ReservationRepository) ListByEventForUpdate(ctx context.Context, eventID string) ([]domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE event_id = $1 ORDER BY requested_at ASC FOR UPDATE`
	return r.list(ctx, query, eventID)
}

// DeleteByEquipment removes every reservation of one equipment item. Used by
// the cascading equipment delete; no credit is owed since the item goes away.
func (r *ReservationRepository) DeleteByEquipment(ctx context.Context, equipmentID string) error {
	const stmt = `DELETE FROM reservations WHERE equipment_id = $1`
	if _, err := r.exec(ctx, stmt, equipmentID); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete reservations by equipment: %w", err)
	}
	return nil
}

// DeleteAll clears the whole index. Manual recovery only.
func (r *ReservationRepository) DeleteAll(ctx context.Context) error {
	const stmt = `DELETE FROM reservations`
	if _, err := r.exec(ctx, stmt); err != nil {
		return fmt.Errorf("delete all reservations: %w", err)
	}
	return nil
}

func (r *ReservationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var rsv domain.Reservation
		if err := rows.Scan(&rsv.EventID, &rsv.EquipmentID, &rsv.Quantity, &rsv.RequestedBy, &rsv.RequestedAt, &rsv.Status, &rsv.DecidedBy, &rsv.CorrelationToken); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, rsv)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reservations: %w", rows.Err())
	}
	return reservations, nil
}

func (r *ReservationRepository) scanReservation(row pgx.Row) (domain.Reservation, error) {
	var rsv domain.Reservation
	err := row.Scan(&rsv.EventID, &rsv.EquipmentID, &rsv.Quantity, &rsv.RequestedBy, &rsv.RequestedAt, &rsv.Status, &rsv.DecidedBy, &rsv.CorrelationToken)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		if isUniqueViolation(err) || isForeignKeyViolation(err) {
			return domain.Reservation{}, err
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return rsv, nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
