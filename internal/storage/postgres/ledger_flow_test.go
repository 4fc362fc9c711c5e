package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alavela/clubhub/services/ledger/internal/app"
	"github.com/alavela/clubhub/services/ledger/internal/clock"
	"github.com/alavela/clubhub/services/ledger/internal/domain"
	"github.com/alavela/clubhub/services/ledger/internal/storage/postgres"
	"github.com/alavela/clubhub/services/ledger/internal/testutil"
)

// TestLedgerFlow exercises the real repositories through the services:
// request, merge, deny, and reclaim against a live database.
func TestLedgerFlow(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	inventoryRepo := postgres.NewInventoryRepository(pool)
	reservationRepo := postgres.NewReservationRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)

	eventTime := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	eventID := testutil.InsertEvent(t, ctx, pool, "Club night", eventTime)
	equipmentID := testutil.InsertEquipment(t, ctx, pool, "Radio", 10, 10)

	now := eventTime.Add(-24 * time.Hour)
	workflow := app.NewWorkflowService(inventoryRepo, inventoryRepo, reservationRepo, clock.NewFixed(now))

	rsv, err := workflow.Request(ctx, app.RequestInput{
		EventID: eventID, EquipmentID: equipmentID, Quantity: 4,
		RequestedBy: "u1", CorrelationToken: "tok-1",
	})
	if err != nil {
		t.Fatalf("request 1: %v", err)
	}
	if rsv.Quantity != 4 || rsv.Status != domain.ReservationStatusPending {
		t.Fatalf("unexpected reservation: %+v", rsv)
	}
	assertAvailable(t, ctx, inventoryRepo, equipmentID, 6)

	rsv, err = workflow.Request(ctx, app.RequestInput{
		EventID: eventID, EquipmentID: equipmentID, Quantity: 3,
		RequestedBy: "u2", CorrelationToken: "tok-2",
	})
	if err != nil {
		t.Fatalf("request 2: %v", err)
	}
	if rsv.Quantity != 7 || rsv.RequestedBy != "u2" || rsv.CorrelationToken != "tok-2" {
		t.Fatalf("expected merged row, got %+v", rsv)
	}
	assertAvailable(t, ctx, inventoryRepo, equipmentID, 3)

	if _, err := workflow.Request(ctx, app.RequestInput{
		EventID: eventID, EquipmentID: equipmentID, Quantity: 4,
		RequestedBy: "u3", CorrelationToken: "tok-3",
	}); err != domain.ErrInsufficientInventory {
		t.Fatalf("expected ErrInsufficientInventory, got %v", err)
	}
	assertAvailable(t, ctx, inventoryRepo, equipmentID, 3)

	rsv, err = workflow.Deny(ctx, eventID, equipmentID, "admin")
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if rsv.Status != domain.ReservationStatusDenied || rsv.Quantity != 7 {
		t.Fatalf("unexpected denied row: %+v", rsv)
	}
	assertAvailable(t, ctx, inventoryRepo, equipmentID, 10)

	sweep := app.NewSweepService(inventoryRepo, inventoryRepo, reservationRepo, eventRepo, clock.NewFixed(time.Now().UTC()), zerolog.Nop())
	report, err := sweep.Tick(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Events != 1 || report.Reservations != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.QuantityReturned != 0 {
		t.Fatalf("expected no credit for the denied row, got %d", report.QuantityReturned)
	}
	assertAvailable(t, ctx, inventoryRepo, equipmentID, 10)

	if _, err := reservationRepo.Get(ctx, eventID, equipmentID); err != domain.ErrReservationNotFound {
		t.Fatalf("expected row removed by sweep, got %v", err)
	}

	// A second pass finds nothing left to do.
	report, err = sweep.Tick(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if report.Events != 0 {
		t.Fatalf("expected idle second pass, got %+v", report)
	}
}

func assertAvailable(t *testing.T, ctx context.Context, repo *postgres.InventoryRepository, equipmentID string, want int) {
	t.Helper()
	item, err := repo.Get(ctx, equipmentID)
	if err != nil {
		t.Fatalf("get equipment: %v", err)
	}
	if item.Available != want {
		t.Fatalf("expected available %d, got %d", want, item.Available)
	}
}
