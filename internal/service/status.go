package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orderdeck/api/internal/database"
	"github.com/orderdeck/api/internal/enum"
)

// orderTransitions maps each status to the statuses it may move to.
// COMPLETED and CANCELLED are terminal.
var orderTransitions = map[string][]string{
	enum.OrderStatusNew:       {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusCompleted: {},
	enum.OrderStatusCancelled: {},
}

func isValidStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

func canTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatusRequest moves an order to a new status.
type UpdateStatusRequest struct {
	TenantID uuid.UUID
	OrderID  uuid.UUID
	Status   string
}

// UpdateStatus transitions an order along the NEW -> PREPARING -> READY ->
// COMPLETED path (any non-terminal status may also move to CANCELLED). The
// update is guarded on the status the order had when we read it, so a
// concurrent transition makes this call fail with ErrStatusConflict instead
// of silently overwriting. Loyalty points accrue when the order completes.
func (s *OrderService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*database.Order, error) {
	if !isValidStatus(req.Status) {
		return nil, ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, database.GetOrderParams{
		ID:       req.OrderID,
		TenantID: req.TenantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if !canTransition(order.Status, req.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, req.Status)
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         req.OrderID,
		TenantID:   req.TenantID,
		Status:     req.Status,
		FromStatus: order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if req.Status == enum.OrderStatusCompleted && updated.CustomerID.Valid {
		if err := s.accrueLoyalty(ctx, store, updated); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

// accrueLoyalty awards one point per whole currency unit of the order total
// and records the ledger entry alongside the balance update.
func (s *OrderService) accrueLoyalty(ctx context.Context, store OrderStore, order database.Order) error {
	points := int32(numericToDecimal(order.TotalAmount).IntPart())
	if points <= 0 {
		return nil
	}
	if _, err := store.AddLoyaltyPoints(ctx, database.AddLoyaltyPointsParams{
		ID:       uuid.UUID(order.CustomerID.Bytes),
		TenantID: order.TenantID,
		Points:   points,
	}); err != nil {
		return fmt.Errorf("add loyalty points: %w", err)
	}
	if _, err := store.CreateLoyaltyEntry(ctx, database.CreateLoyaltyEntryParams{
		CustomerID: uuid.UUID(order.CustomerID.Bytes),
		OrderID:    pgtype.UUID{Bytes: order.ID, Valid: true},
		Points:     points,
		Reason:     "ORDER",
	}); err != nil {
		return fmt.Errorf("create loyalty entry: %w", err)
	}
	return nil
}

// Cancel moves an order to CANCELLED unless it has already completed or been
// cancelled. The precondition lives in the UPDATE itself.
func (s *OrderService) Cancel(ctx context.Context, tenantID, orderID uuid.UUID) (*database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.CancelOrder(ctx, database.CancelOrderParams{
		ID:       orderID,
		TenantID: tenantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the order does not exist or it is already terminal.
			if _, getErr := store.GetOrder(ctx, database.GetOrderParams{ID: orderID, TenantID: tenantID}); getErr != nil {
				return nil, ErrOrderNotFound
			}
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}
