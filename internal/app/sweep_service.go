package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alavela/clubhub/services/ledger/internal/clock"
	"github.com/alavela/clubhub/services/ledger/internal/domain"
)

// EventDirectory is the calendar collaborator the sweep consumes.
type EventDirectory interface {
	ListEndedBefore(ctx context.Context, cutoff time.Time) ([]domain.EventRef, error)
}

// SweepIndex is the slice of the reservation store the sweep needs.
type SweepIndex interface {
	ListByEventForUpdate(ctx context.Context, eventID string) ([]domain.Reservation, error)
	Delete(ctx context.Context, eventID, equipmentID string) (int, domain.ReservationStatus, error)
}

// SweepReport summarizes one reclaim pass.
type SweepReport struct {
	// Skipped is true when another pass was still running.
	Skipped          bool
	Events           int
	Reservations     int
	QuantityReturned int
}

// SweepService reclaims reservations of events whose scheduled time has
// passed: held quantities go back to the pool and the index rows are removed.
// An external timer drives it through Tick; the core holds no timer of its
// own.
type SweepService struct {
	tx     TxRunner
	inv    InventoryStore
	index  SweepIndex
	events EventDirectory
	clock  clock.Clock
	logger zerolog.Logger

	mu sync.Mutex
}

func NewSweepService(tx TxRunner, inv InventoryStore, index SweepIndex, events EventDirectory, clk clock.Clock, logger zerolog.Logger) *SweepService {
	return &SweepService{
		tx:     tx,
		inv:    inv,
		index:  index,
		events: events,
		clock:  clk,
		logger: logger,
	}
}

// Tick runs one reclaim pass at the current time.
func (s *SweepService) Tick(ctx context.Context) (SweepReport, error) {
	return s.ReclaimEnded(ctx, s.clock.Now())
}

// ReclaimEnded processes every event scheduled at or before now. Each event's
// reservations are credited and deleted in one transaction, so a partial
// failure can never credit without deleting or vice versa. Running it twice
// for the same instant is a no-op the second time. Overlapping calls skip
// instead of queueing.
func (s *SweepService) ReclaimEnded(ctx context.Context, now time.Time) (SweepReport, error) {
	if !s.mu.TryLock() {
		s.logger.Warn().Msg("reclaim sweep already running, skipping")
		return SweepReport{Skipped: true}, nil
	}
	defer s.mu.Unlock()

	ended, err := s.events.ListEndedBefore(ctx, now)
	if err != nil {
		return SweepReport{}, err
	}

	var report SweepReport
	for _, ev := range ended {
		reclaimed, returned, err := s.reclaimEvent(ctx, ev.ID)
		if err != nil {
			return report, err
		}
		if reclaimed == 0 {
			continue
		}

		report.Events++
		report.Reservations += reclaimed
		report.QuantityReturned += returned
		s.logger.Debug().
			Str("event_id", ev.ID).
			Int("reservations", reclaimed).
			Int("quantity_returned", returned).
			Msg("reclaimed event reservations")
	}

	if report.Events > 0 {
		s.logger.Info().
			Int("events", report.Events).
			Int("reservations", report.Reservations).
			Int("quantity_returned", report.QuantityReturned).
			Msg("reclaim sweep finished")
	}
	return report, nil
}

func (s *SweepService) reclaimEvent(ctx context.Context, eventID string) (reclaimed, returned int, err error) {
	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		reservations, err := s.index.ListByEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}

		for _, rsv := range reservations {
			qty, status, err := s.index.Delete(txCtx, rsv.EventID, rsv.EquipmentID)
			if err != nil {
				return err
			}
			reclaimed++
			if status == domain.ReservationStatusDenied {
				// Denial already returned the quantity.
				continue
			}
			if err := s.inv.Credit(txCtx, rsv.EquipmentID, qty); err != nil {
				return err
			}
			returned += qty
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return reclaimed, returned, nil
}
