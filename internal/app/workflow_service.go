package app

import (
	"context"

	"github.com/alavela/clubhub/services/ledger/internal/clock"
	"github.com/alavela/clubhub/services/ledger/internal/domain"
)

// TxRunner executes fn as one atomic unit of work. Every store call made with
// the ctx it passes to fn joins the same transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// InventoryStore is the slice of the equipment ledger the workflow needs.
type InventoryStore interface {
	GetForUpdate(ctx context.Context, equipmentID string) (domain.EquipmentItem, error)
	Debit(ctx context.Context, equipmentID string, qty int) error
	Credit(ctx context.Context, equipmentID string, qty int) error
}

// ReservationIndex is the slice of the reservation store the workflow needs.
type ReservationIndex interface {
	Get(ctx context.Context, eventID, equipmentID string) (domain.Reservation, error)
	GetForUpdate(ctx context.Context, eventID, equipmentID string) (domain.Reservation, error)
	GetByTokenForUpdate(ctx context.Context, token string) (domain.Reservation, error)
	Upsert(ctx context.Context, rsv domain.Reservation) (domain.Reservation, error)
	SetStatus(ctx context.Context, eventID, equipmentID string, status domain.ReservationStatus, decidedBy string) (domain.Reservation, error)
	SetStatusByToken(ctx context.Context, token string, status domain.ReservationStatus, decidedBy string) (domain.Reservation, error)
	Delete(ctx context.Context, eventID, equipmentID string) (int, domain.ReservationStatus, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Reservation, error)
}

// WorkflowService is the public operation surface of the reservation ledger.
// Each operation runs as one transaction against both stores; preconditions
// are checked before any mutation and a failing step rolls the whole unit
// back.
type WorkflowService struct {
	tx    TxRunner
	inv   InventoryStore
	index ReservationIndex
	clock clock.Clock
}

func NewWorkflowService(tx TxRunner, inv InventoryStore, index ReservationIndex, clk clock.Clock) *WorkflowService {
	return &WorkflowService{
		tx:    tx,
		inv:   inv,
		index: index,
		clock: clk,
	}
}

type RequestInput struct {
	EventID          string
	EquipmentID      string
	Quantity         int
	RequestedBy      string
	CorrelationToken string
}

// Request debits the asked quantity from the equipment pool and creates or
// merges the (event, equipment) reservation. The availability check and the
// debit happen under the equipment row lock, so concurrent requests against
// the same item serialize instead of double-spending.
func (s *WorkflowService) Request(ctx context.Context, in RequestInput) (domain.Reservation, error) {
	if in.Quantity <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}
	if in.RequestedBy == "" {
		return domain.Reservation{}, domain.ErrRequesterRequired
	}
	if in.CorrelationToken == "" {
		return domain.Reservation{}, domain.ErrTokenRequired
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		item, err := s.inv.GetForUpdate(txCtx, in.EquipmentID)
		if err != nil {
			return err
		}
		if item.Status == domain.EquipmentStatusRetired {
			return domain.ErrEquipmentRetired
		}
		if in.Quantity > item.Available {
			return domain.ErrInsufficientInventory
		}

		if err := s.inv.Debit(txCtx, in.EquipmentID, in.Quantity); err != nil {
			return err
		}

		merged, err := s.index.Upsert(txCtx, domain.Reservation{
			EventID:          in.EventID,
			EquipmentID:      in.EquipmentID,
			Quantity:         in.Quantity,
			RequestedBy:      in.RequestedBy,
			RequestedAt:      now,
			CorrelationToken: in.CorrelationToken,
		})
		if err != nil {
			return err
		}

		result = merged
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// Approve is a status-only transition; the quantity was already debited at
// request time.
func (s *WorkflowService) Approve(ctx context.Context, eventID, equipmentID, actingAdmin string) (domain.Reservation, error) {
	if actingAdmin == "" {
		return domain.Reservation{}, domain.ErrAdminRequired
	}

	var result domain.Reservation
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		updated, err := s.index.SetStatus(txCtx, eventID, equipmentID, domain.ReservationStatusApproved, actingAdmin)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// Deny marks the reservation denied and returns its quantity to the pool.
// The row stays behind for history; it no longer counts against availability.
func (s *WorkflowService) Deny(ctx context.Context, eventID, equipmentID, actingAdmin string) (domain.Reservation, error) {
	if actingAdmin == "" {
		return domain.Reservation{}, domain.ErrAdminRequired
	}

	var result domain.Reservation
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		rsv, err := s.index.GetForUpdate(txCtx, eventID, equipmentID)
		if err != nil {
			return err
		}
		if rsv.Status != domain.ReservationStatusPending {
			return domain.ErrInvalidTransition
		}

		updated, err := s.index.SetStatus(txCtx, eventID, equipmentID, domain.ReservationStatusDenied, actingAdmin)
		if err != nil {
			return err
		}
		if err := s.inv.Credit(txCtx, rsv.EquipmentID, rsv.Quantity); err != nil {
			return err
		}

		result = updated
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// Withdraw deletes the reservation in any state and returns its quantity to
// the pool, unless a prior denial already did.
func (s *WorkflowService) Withdraw(ctx context.Context, eventID, equipmentID string) error {
	return s.tx.WithTx(ctx, func(txCtx context.Context) error {
		qty, status, err := s.index.Delete(txCtx, eventID, equipmentID)
		if err != nil {
			return err
		}
		if status == domain.ReservationStatusDenied {
			return nil
		}
		return s.inv.Credit(txCtx, equipmentID, qty)
	})
}

// ApproveByToken is Approve addressed by the opaque correlation token.
func (s *WorkflowService) ApproveByToken(ctx context.Context, token, actingAdmin string) (domain.Reservation, error) {
	if actingAdmin == "" {
		return domain.Reservation{}, domain.ErrAdminRequired
	}

	var result domain.Reservation
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		updated, err := s.index.SetStatusByToken(txCtx, token, domain.ReservationStatusApproved, actingAdmin)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// DenyByToken is Deny addressed by the opaque correlation token.
func (s *WorkflowService) DenyByToken(ctx context.Context, token, actingAdmin string) (domain.Reservation, error) {
	if actingAdmin == "" {
		return domain.Reservation{}, domain.ErrAdminRequired
	}

	var result domain.Reservation
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		rsv, err := s.index.GetByTokenForUpdate(txCtx, token)
		if err != nil {
			return err
		}
		if rsv.Status != domain.ReservationStatusPending {
			return domain.ErrInvalidTransition
		}

		updated, err := s.index.SetStatus(txCtx, rsv.EventID, rsv.EquipmentID, domain.ReservationStatusDenied, actingAdmin)
		if err != nil {
			return err
		}
		if err := s.inv.Credit(txCtx, rsv.EquipmentID, rsv.Quantity); err != nil {
			return err
		}

		result = updated
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

func (s *WorkflowService) GetReservation(ctx context.Context, eventID, equipmentID string) (domain.Reservation, error) {
	return s.index.Get(ctx, eventID, equipmentID)
}

func (s *WorkflowService) ListReservationsForEvent(ctx context.Context, eventID string) ([]domain.Reservation, error) {
	return s.index.ListByEvent(ctx, eventID)
}
