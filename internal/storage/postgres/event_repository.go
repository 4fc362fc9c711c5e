package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alavela/clubhub/services/ledger/internal/domain"
)

// EventRepository is a read-only adapter over the calendar subsystem's events
// table. The ledger never writes it.
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Get(ctx context.Context, eventID string) (domain.EventRef, error) {
	const query = `SELECT id, name, starts_at FROM events WHERE id = $1`
	var ev domain.EventRef
	err := r.queryRow(ctx, query, eventID).Scan(&ev.ID, &ev.Name, &ev.ScheduledAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.EventRef{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.EventRef{}, domain.ErrEventNotFound
		}
		return domain.EventRef{}, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// ListEndedBefore returns events whose scheduled time has passed and that
// still have reservations on the books. The EXISTS filter keeps repeated
// sweeps from rescanning long-finished events.
func (r *EventRepository) ListEndedBefore(ctx context.Context, cutoff time.Time) ([]domain.EventRef, error) {
	const query = `
SELECT id, name, starts_at
FROM events
WHERE starts_at <= $1
  AND EXISTS (SELECT 1 FROM reservations WHERE reservations.event_id = events.id)
ORDER BY starts_at ASC`

	rows, err := r.query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list ended events: %w", err)
	}
	defer rows.Close()

	var events []domain.EventRef
	for rows.Next() {
		var ev domain.EventRef
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.ScheduledAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}

func (r *EventRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *EventRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
