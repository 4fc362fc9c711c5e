package app

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alavela/clubhub/services/ledger/internal/domain"
)

// fakeLedger is an in-memory stand-in for both stores and the event
// directory. WithTx runs the function directly: service preconditions are
// checked before any mutation, so the fake never needs to roll back.
type fakeLedger struct {
	items        map[string]domain.EquipmentItem
	itemOrder    []string
	reservations map[string]domain.Reservation
	events       []domain.EventRef
}

func newFakeLedger(items []domain.EquipmentItem, reservations []domain.Reservation) *fakeLedger {
	f := &fakeLedger{
		items:        make(map[string]domain.EquipmentItem),
		reservations: make(map[string]domain.Reservation),
	}
	for _, item := range items {
		f.items[item.ID] = item
		f.itemOrder = append(f.itemOrder, item.ID)
	}
	for _, rsv := range reservations {
		f.reservations[pairKey(rsv.EventID, rsv.EquipmentID)] = rsv
	}
	return f
}

func pairKey(eventID, equipmentID string) string {
	return eventID + "|" + equipmentID
}

func (f *fakeLedger) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeLedger) Get(_ context.Context, equipmentID string) (domain.EquipmentItem, error) {
	item, ok := f.items[equipmentID]
	if !ok {
		return domain.EquipmentItem{}, domain.ErrEquipmentNotFound
	}
	return item, nil
}

func (f *fakeLedger) GetForUpdate(ctx context.Context, equipmentID string) (domain.EquipmentItem, error) {
	return f.Get(ctx, equipmentID)
}

func (f *fakeLedger) List(_ context.Context) ([]domain.EquipmentItem, error) {
	items := make([]domain.EquipmentItem, 0, len(f.itemOrder))
	for _, id := range f.itemOrder {
		items = append(items, f.items[id])
	}
	return items, nil
}

func (f *fakeLedger) Create(_ context.Context, item domain.EquipmentItem) error {
	f.items[item.ID] = item
	f.itemOrder = append(f.itemOrder, item.ID)
	return nil
}

func (f *fakeLedger) Debit(_ context.Context, equipmentID string, qty int) error {
	item, ok := f.items[equipmentID]
	if !ok {
		return domain.ErrEquipmentNotFound
	}
	if qty > item.Available {
		return domain.ErrInsufficientInventory
	}
	item.Available -= qty
	f.items[equipmentID] = item
	return nil
}

func (f *fakeLedger) Credit(_ context.Context, equipmentID string, qty int) error {
	item, ok := f.items[equipmentID]
	if !ok {
		return domain.ErrEquipmentNotFound
	}
	item.Available += qty
	if item.Available > item.Total {
		item.Available = item.Total
	}
	f.items[equipmentID] = item
	return nil
}

func (f *fakeLedger) UpdateCapacity(_ context.Context, equipmentID string, newTotal, newAvailable int) error {
	item, ok := f.items[equipmentID]
	if !ok {
		return domain.ErrEquipmentNotFound
	}
	item.Total = newTotal
	item.Available = newAvailable
	f.items[equipmentID] = item
	return nil
}

func (f *fakeLedger) SetStatus(_ context.Context, equipmentID string, status domain.EquipmentStatus) error {
	item, ok := f.items[equipmentID]
	if !ok {
		return domain.ErrEquipmentNotFound
	}
	item.Status = status
	f.items[equipmentID] = item
	return nil
}

func (f *fakeLedger) Delete(_ context.Context, equipmentID string) error {
	if _, ok := f.items[equipmentID]; !ok {
		return domain.ErrEquipmentNotFound
	}
	delete(f.items, equipmentID)
	for i, id := range f.itemOrder {
		if id == equipmentID {
			f.itemOrder = append(f.itemOrder[:i], f.itemOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeLedger) ResetAvailability(_ context.Context) error {
	for id, item := range f.items {
		item.Available = item.Total
		f.items[id] = item
	}
	return nil
}

// checkConservation asserts Invariant A on every item: available plus the
// quantity of pending and approved reservations equals total.
func (f *fakeLedger) checkConservation(t *testing.T) {
	t.Helper()
	for id, item := range f.items {
		held := 0
		for _, rsv := range f.reservations {
			if rsv.EquipmentID == id && rsv.HoldsInventory() {
				held += rsv.Quantity
			}
		}
		if item.Available+held != item.Total {
			t.Fatalf("conservation violated for %s: available=%d held=%d total=%d", id, item.Available, held, item.Total)
		}
	}
}

// fakeIndex adapts fakeLedger's reservation map to the index interfaces.
// Split from fakeLedger so the equipment Delete and reservation Delete
// methods can coexist.
type fakeIndex struct {
	ledger *fakeLedger
}

func (f *fakeIndex) Get(_ context.Context, eventID, equipmentID string) (domain.Reservation, error) {
	rsv, ok := f.ledger.reservations[pairKey(eventID, equipmentID)]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return rsv, nil
}

func (f *fakeIndex) GetForUpdate(ctx context.Context, eventID, equipmentID string) (domain.Reservation, error) {
	return f.Get(ctx, eventID, equipmentID)
}

func (f *fakeIndex) GetByTokenForUpdate(_ context.Context, token string) (domain.Reservation, error) {
	for _, rsv := range f.ledger.reservations {
		if rsv.CorrelationToken == token {
			return rsv, nil
		}
	}
	return domain.Reservation{}, domain.ErrReservationNotFound
}

func (f *fakeIndex) Upsert(_ context.Context, rsv domain.Reservation) (domain.Reservation, error) {
	for k, existing := range f.ledger.reservations {
		if existing.CorrelationToken == rsv.CorrelationToken && k != pairKey(rsv.EventID, rsv.EquipmentID) {
			return domain.Reservation{}, domain.ErrConflict
		}
	}

	key := pairKey(rsv.EventID, rsv.EquipmentID)
	merged := rsv
	merged.Status = domain.ReservationStatusPending
	merged.DecidedBy = ""
	if existing, ok := f.ledger.reservations[key]; ok {
		merged.Quantity += existing.Quantity
	}
	f.ledger.reservations[key] = merged
	return merged, nil
}

func (f *fakeIndex) SetStatus(_ context.Context, eventID, equipmentID string, status domain.ReservationStatus, decidedBy string) (domain.Reservation, error) {
	key := pairKey(eventID, equipmentID)
	rsv, ok := f.ledger.reservations[key]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	if rsv.Status != domain.ReservationStatusPending {
		return domain.Reservation{}, domain.ErrInvalidTransition
	}
	rsv.Status = status
	rsv.DecidedBy = decidedBy
	f.ledger.reservations[key] = rsv
	return rsv, nil
}

func (f *fakeIndex) SetStatusByToken(ctx context.Context, token string, status domain.ReservationStatus, decidedBy string) (domain.Reservation, error) {
	rsv, err := f.GetByTokenForUpdate(ctx, token)
	if err != nil {
		return domain.Reservation{}, err
	}
	return f.SetStatus(ctx, rsv.EventID, rsv.EquipmentID, status, decidedBy)
}

func (f *fakeIndex) Delete(_ context.Context, eventID, equipmentID string) (int, domain.ReservationStatus, error) {
	key := pairKey(eventID, equipmentID)
	rsv, ok := f.ledger.reservations[key]
	if !ok {
		return 0, "", domain.ErrReservationNotFound
	}
	delete(f.ledger.reservations, key)
	return rsv.Quantity, rsv.Status, nil
}

func (f *fakeIndex) ListByEvent(_ context.Context, eventID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, rsv := range f.ledger.reservations {
		if rsv.EventID == eventID {
			out = append(out, rsv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EquipmentID < out[j].EquipmentID })
	return out, nil
}

func (f *fakeIndex) ListByEventForUpdate(ctx context.Context, eventID string) ([]domain.Reservation, error) {
	return f.ListByEvent(ctx, eventID)
}

func (f *fakeIndex) DeleteByEquipment(_ context.Context, equipmentID string) error {
	for k, rsv := range f.ledger.reservations {
		if rsv.EquipmentID == equipmentID {
			delete(f.ledger.reservations, k)
		}
	}
	return nil
}

func (f *fakeIndex) DeleteAll(_ context.Context) error {
	f.ledger.reservations = make(map[string]domain.Reservation)
	return nil
}

// fakeEvents is a canned event directory.
type fakeEvents struct {
	events []domain.EventRef
}

func (f *fakeEvents) ListEndedBefore(_ context.Context, cutoff time.Time) ([]domain.EventRef, error) {
	var out []domain.EventRef
	for _, ev := range f.events {
		if ev.Ended(cutoff) {
			out = append(out, ev)
		}
	}
	return out, nil
}
