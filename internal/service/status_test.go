package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orderdeck/api/internal/database"
)

// statusStore wires a single order into the mock store and records the
// guarded update and loyalty calls.
func statusStore(order database.Order) *mockOrderStore {
	store := &mockOrderStore{}
	store.getOrderFn = func(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
		if arg.ID == order.ID && arg.TenantID == order.TenantID {
			return order, nil
		}
		return database.Order{}, pgx.ErrNoRows
	}
	store.updateOrderStatusFn = func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
		updated := order
		updated.Status = arg.Status
		return updated, nil
	}
	store.cancelOrderFn = func(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
		updated := order
		updated.Status = "CANCELLED"
		return updated, nil
	}
	store.addLoyaltyPointsFn = func(ctx context.Context, arg database.AddLoyaltyPointsParams) (database.Customer, error) {
		return database.Customer{ID: arg.ID, TenantID: arg.TenantID}, nil
	}
	store.createLoyaltyEntryFn = func(ctx context.Context, arg database.CreateLoyaltyEntryParams) (database.LoyaltyEntry, error) {
		return database.LoyaltyEntry{ID: uuid.New(), CustomerID: arg.CustomerID, Points: arg.Points, Reason: arg.Reason}, nil
	}
	return store
}

func sampleOrder(status string) database.Order {
	return database.Order{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		OrderNumber: "ORD-0007",
		Status:      status,
		TotalAmount: makeNumeric("18.50"),
	}
}

func TestUpdateStatus_HappyPath(t *testing.T) {
	order := sampleOrder("NEW")
	store := statusStore(order)
	svc, _ := newTestService(store)

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		TenantID: order.TenantID,
		OrderID:  order.ID,
		Status:   "PREPARING",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != "PREPARING" {
		t.Errorf("status: got %v, want PREPARING", updated.Status)
	}
}

func TestUpdateStatus_InvalidStatusValue(t *testing.T) {
	order := sampleOrder("NEW")
	store := statusStore(order)
	svc, _ := newTestService(store)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		TenantID: order.TenantID,
		OrderID:  order.ID,
		Status:   "SHIPPED",
	})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got: %v", err)
	}
}

func TestUpdateStatus_SkippingAStage(t *testing.T) {
	order := sampleOrder("NEW")
	store := statusStore(order)
	svc, _ := newTestService(store)

	// NEW cannot jump straight to COMPLETED.
	_, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		TenantID: order.TenantID,
		OrderID:  order.ID,
		Status:   "COMPLETED",
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestUpdateStatus_TerminalStatusIsFinal(t *testing.T) {
	for _, terminal := range []string{"COMPLETED", "CANCELLED"} {
		order := sampleOrder(terminal)
		store := statusStore(order)
		svc, _ := newTestService(store)

		_, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
			TenantID: order.TenantID,
			OrderID:  order.ID,
			Status:   "PREPARING",
		})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s: expected ErrInvalidTransition, got: %v", terminal, err)
		}
	}
}

func TestUpdateStatus_ConcurrentChangeSurfacesConflict(t *testing.T) {
	order := sampleOrder("READY")
	store := statusStore(order)
	store.updateOrderStatusFn = func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
		// Another worker moved the order first: the guarded UPDATE misses.
		return database.Order{}, pgx.ErrNoRows
	}
	svc, _ := newTestService(store)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		TenantID: order.TenantID,
		OrderID:  order.ID,
		Status:   "COMPLETED",
	})
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got: %v", err)
	}
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	order := sampleOrder("NEW")
	store := statusStore(order)
	svc, _ := newTestService(store)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		TenantID: order.TenantID,
		OrderID:  uuid.New(),
		Status:   "PREPARING",
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestUpdateStatus_CompletionAccruesLoyalty(t *testing.T) {
	customerID := uuid.New()
	order := sampleOrder("READY")
	order.CustomerID = pgtype.UUID{Bytes: customerID, Valid: true}
	store := statusStore(order)

	var pointsAdded int32
	store.addLoyaltyPointsFn = func(ctx context.Context, arg database.AddLoyaltyPointsParams) (database.Customer, error) {
		pointsAdded = arg.Points
		if arg.ID != customerID {
			t.Errorf("loyalty customer: got %v, want %v", arg.ID, customerID)
		}
		return database.Customer{ID: arg.ID}, nil
	}
	var entry database.CreateLoyaltyEntryParams
	store.createLoyaltyEntryFn = func(ctx context.Context, arg database.CreateLoyaltyEntryParams) (database.LoyaltyEntry, error) {
		entry = arg
		return database.LoyaltyEntry{ID: uuid.New()}, nil
	}

	svc, _ := newTestService(store)
	_, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		TenantID: order.TenantID,
		OrderID:  order.ID,
		Status:   "COMPLETED",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One point per whole currency unit: floor(18.50) = 18.
	if pointsAdded != 18 {
		t.Errorf("points: got %d, want 18", pointsAdded)
	}
	if entry.Reason != "ORDER" {
		t.Errorf("ledger reason: got %q, want ORDER", entry.Reason)
	}
	if !entry.OrderID.Valid || entry.OrderID.Bytes != order.ID {
		t.Errorf("ledger order_id: got %v, want %v", entry.OrderID, order.ID)
	}
}

func TestUpdateStatus_NoLoyaltyForGuestOrder(t *testing.T) {
	order := sampleOrder("READY") // no customer attached
	store := statusStore(order)
	store.addLoyaltyPointsFn = func(ctx context.Context, arg database.AddLoyaltyPointsParams) (database.Customer, error) {
		t.Fatal("loyalty should not accrue without a customer")
		return database.Customer{}, nil
	}

	svc, _ := newTestService(store)
	_, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		TenantID: order.TenantID,
		OrderID:  order.ID,
		Status:   "COMPLETED",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCancel_HappyPath(t *testing.T) {
	order := sampleOrder("PREPARING")
	store := statusStore(order)
	svc, _ := newTestService(store)

	cancelled, err := svc.Cancel(context.Background(), order.TenantID, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != "CANCELLED" {
		t.Errorf("status: got %v, want CANCELLED", cancelled.Status)
	}
}

func TestCancel_CompletedOrderRejected(t *testing.T) {
	order := sampleOrder("COMPLETED")
	store := statusStore(order)
	store.cancelOrderFn = func(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}
	svc, _ := newTestService(store)

	_, err := svc.Cancel(context.Background(), order.TenantID, order.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestCancel_UnknownOrder(t *testing.T) {
	order := sampleOrder("NEW")
	store := statusStore(order)
	store.cancelOrderFn = func(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}
	svc, _ := newTestService(store)

	_, err := svc.Cancel(context.Background(), order.TenantID, uuid.New())
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}
