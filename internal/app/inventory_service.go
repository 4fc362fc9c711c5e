package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/alavela/clubhub/services/ledger/internal/clock"
	"github.com/alavela/clubhub/services/ledger/internal/domain"
)

// InventoryAdminStore is the slice of the equipment ledger the admin surface
// needs on top of InventoryStore.
type InventoryAdminStore interface {
	InventoryStore
	Get(ctx context.Context, equipmentID string) (domain.EquipmentItem, error)
	List(ctx context.Context) ([]domain.EquipmentItem, error)
	Create(ctx context.Context, item domain.EquipmentItem) error
	UpdateCapacity(ctx context.Context, equipmentID string, newTotal, newAvailable int) error
	SetStatus(ctx context.Context, equipmentID string, status domain.EquipmentStatus) error
	Delete(ctx context.Context, equipmentID string) error
	ResetAvailability(ctx context.Context) error
}

// ReservationAdminIndex is the slice of the reservation store the admin
// surface needs.
type ReservationAdminIndex interface {
	DeleteByEquipment(ctx context.Context, equipmentID string) error
	DeleteAll(ctx context.Context) error
}

// InventoryService owns the equipment lifecycle and the administrative escape
// hatches.
type InventoryService struct {
	tx    TxRunner
	inv   InventoryAdminStore
	index ReservationAdminIndex
	clock clock.Clock
}

func NewInventoryService(tx TxRunner, inv InventoryAdminStore, index ReservationAdminIndex, clk clock.Clock) *InventoryService {
	return &InventoryService{
		tx:    tx,
		inv:   inv,
		index: index,
		clock: clk,
	}
}

type CreateEquipmentInput struct {
	Name     string
	Category string
	Total    int
}

func (s *InventoryService) CreateEquipment(ctx context.Context, in CreateEquipmentInput) (domain.EquipmentItem, error) {
	if in.Name == "" {
		return domain.EquipmentItem{}, domain.ErrEquipmentNameRequired
	}
	if in.Total < 0 {
		return domain.EquipmentItem{}, domain.ErrInvalidCapacity
	}

	item := domain.EquipmentItem{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Category:  in.Category,
		Total:     in.Total,
		Available: in.Total,
		Status:    domain.EquipmentStatusAvailable,
		CreatedAt: s.clock.Now(),
	}

	if err := s.inv.Create(ctx, item); err != nil {
		return domain.EquipmentItem{}, err
	}
	return item, nil
}

func (s *InventoryService) GetInventory(ctx context.Context, equipmentID string) (domain.EquipmentItem, error) {
	return s.inv.Get(ctx, equipmentID)
}

func (s *InventoryService) ListInventory(ctx context.Context) ([]domain.EquipmentItem, error) {
	return s.inv.List(ctx)
}

// SetCapacity resizes an item's total while preserving the quantity currently
// held by pending and approved reservations: the new available quantity is
// newTotal minus the held amount. A resize below the held amount is rejected,
// so conservation holds across any sequence of resizes.
func (s *InventoryService) SetCapacity(ctx context.Context, equipmentID string, newTotal int) (domain.EquipmentItem, error) {
	if newTotal < 0 {
		return domain.EquipmentItem{}, domain.ErrInvalidCapacity
	}

	var result domain.EquipmentItem
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		item, err := s.inv.GetForUpdate(txCtx, equipmentID)
		if err != nil {
			return err
		}

		held := item.Held()
		if newTotal < held {
			return domain.ErrCapacityBelowHeld
		}

		if err := s.inv.UpdateCapacity(txCtx, equipmentID, newTotal, newTotal-held); err != nil {
			return err
		}

		item.Total = newTotal
		item.Available = newTotal - held
		result = item
		return nil
	})
	if err != nil {
		return domain.EquipmentItem{}, err
	}
	return result, nil
}

// RetireEquipment stops new requests for the item. Existing reservations keep
// flowing until withdrawn or reclaimed.
func (s *InventoryService) RetireEquipment(ctx context.Context, equipmentID string) error {
	return s.inv.SetStatus(ctx, equipmentID, domain.EquipmentStatusRetired)
}

// RemoveEquipment deletes the item after cascading deletion of its
// reservation records.
func (s *InventoryService) RemoveEquipment(ctx context.Context, equipmentID string) error {
	return s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.inv.GetForUpdate(txCtx, equipmentID); err != nil {
			return err
		}
		if err := s.index.DeleteByEquipment(txCtx, equipmentID); err != nil {
			return err
		}
		return s.inv.Delete(txCtx, equipmentID)
	})
}

// ResetAll restores every item's availability to its total and clears the
// reservation index. Manual recovery, not part of normal flow.
func (s *InventoryService) ResetAll(ctx context.Context) error {
	return s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.index.DeleteAll(txCtx); err != nil {
			return err
		}
		return s.inv.ResetAvailability(txCtx)
	})
}
