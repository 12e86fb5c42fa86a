package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/orderdeck/api/internal/database"
	"github.com/orderdeck/api/internal/enum"
	"github.com/orderdeck/api/internal/pricing"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems          = errors.New("items are required")
	ErrInvalidOrderType    = errors.New("invalid order_type")
	ErrInvalidPayment      = errors.New("invalid payment_method")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrInvalidMenuItemID   = errors.New("invalid menu_item_id")
	ErrInvalidCustomerID   = errors.New("invalid customer_id")
	ErrInvalidGroupID      = errors.New("invalid addon group_id")
	ErrInvalidOptionID     = errors.New("invalid addon option_id")
	ErrMenuItemNotFound    = errors.New("menu item not found in tenant")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrAddonGroupNotFound  = errors.New("addon group does not belong to menu item")
	ErrAddonOptionNotFound = errors.New("addon option does not belong to group")
	ErrAddonUnavailable    = errors.New("addon option is not available")
	ErrDeliveryDetails     = errors.New("delivery_address and delivery_postcode are required for DELIVERY orders")
	ErrDeliveryUnavailable = errors.New("no delivery zone covers this postcode")
	ErrBelowZoneMinimum    = errors.New("order subtotal is below the zone minimum")
	ErrVoucherNotFound     = errors.New("voucher not found")
	ErrVoucherExpired      = errors.New("voucher has expired")
	ErrVoucherExhausted    = errors.New("voucher redemption limit reached")
	ErrVoucherMinOrder     = errors.New("order subtotal is below the voucher minimum")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrStatusConflict      = errors.New("order status changed, please retry")
	ErrOrderNotFound       = errors.New("order not found")
)

// AddonValidationError carries the selection rule failures for one item.
// The messages come straight from the pricing validator and are safe to
// surface to the customer.
type AddonValidationError struct {
	ItemIndex int
	Messages  []string
}

func (e *AddonValidationError) Error() string {
	return fmt.Sprintf("item[%d]: %s", e.ItemIndex, strings.Join(e.Messages, "; "))
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create and transition orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int32, error)
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	ListAddonGroupsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]database.AddonGroup, error)
	ListAddonOptionsByGroup(ctx context.Context, addonGroupID uuid.UUID) ([]database.AddonOption, error)
	ListZonesByTenant(ctx context.Context, tenantID uuid.UUID) ([]database.DeliveryZone, error)
	GetVoucherByCode(ctx context.Context, arg database.GetVoucherByCodeParams) (database.Voucher, error)
	IncrementVoucherRedemptions(ctx context.Context, id uuid.UUID) (database.Voucher, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreateOrderItemAddon(ctx context.Context, arg database.CreateOrderItemAddonParams) (database.OrderItemAddon, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)
	AddLoyaltyPoints(ctx context.Context, arg database.AddLoyaltyPointsParams) (database.Customer, error)
	CreateLoyaltyEntry(ctx context.Context, arg database.CreateLoyaltyEntryParams) (database.LoyaltyEntry, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order. Prices
// never appear in it: every amount is derived server-side from the stored
// menu and addon configuration.
type CreateOrderRequest struct {
	TenantID         uuid.UUID
	CustomerID       string
	OrderType        string
	PaymentMethod    string
	DeliveryAddress  string
	DeliveryPostcode string
	VoucherCode      string
	Notes            string
	Items            []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single item in the order.
type CreateOrderItemRequest struct {
	MenuItemID          string
	Quantity            int32
	SpecialInstructions string
	Addons              []CreateOrderItemAddonRequest
}

// CreateOrderItemAddonRequest is one selected addon option on an item.
type CreateOrderItemAddonRequest struct {
	GroupID  string
	OptionID string
	Quantity int32
	Note     string
}

// CreateOrderResult is the full created order with items.
type CreateOrderResult struct {
	Order database.Order
	Items []OrderItemResult
}

// OrderItemResult is an item with its addon snapshots.
type OrderItemResult struct {
	Item   database.OrderItem
	Addons []database.OrderItemAddon
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// addonInfo holds a priced addon snapshot to insert.
type addonInfo struct {
	groupID    uuid.UUID
	groupName  string
	optionID   uuid.UUID
	optionName string
	quantity   int32
	unitPrice  decimal.Decimal
	totalPrice decimal.Decimal
	note       string
}

// processedItem holds a prepared order item and its addons.
type processedItem struct {
	params database.CreateOrderItemParams
	addons []addonInfo
}

// CreateOrder validates the request, enforces every addon group rule
// server-side, prices the order, and creates it atomically.
// Retries up to maxOrderNumberRetries times on order_number unique constraint
// violations (race condition where concurrent transactions get the same MAX).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validateOrderType(req.OrderType); err != nil {
		return nil, err
	}
	if !isValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPayment
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.OrderType == enum.OrderTypeDelivery {
		if req.DeliveryAddress == "" || req.DeliveryPostcode == "" {
			return nil, ErrDeliveryDetails
		}
	}

	// Retry loop: handles order_number unique constraint race condition.
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_tenant_id_order_number_key"
	}
	return false
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Generate order number ---
	nextNum, err := store.GetNextOrderNumber(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("ORD-%04d", nextNum)

	// --- Process items: enforce addon rules + derive prices ---
	orderSubtotal := decimal.Zero
	var items []processedItem

	for i, item := range req.Items {
		pi, lineTotal, err := s.processItem(ctx, store, req.TenantID, i, item)
		if err != nil {
			return nil, err
		}
		orderSubtotal = orderSubtotal.Add(lineTotal)
		items = append(items, pi)
	}

	// --- Delivery fee from the matched zone ---
	deliveryFee := decimal.Zero
	zoneID := pgtype.UUID{}
	deliveryAddress := pgtype.Text{}
	deliveryPostcode := pgtype.Text{}
	if req.OrderType == enum.OrderTypeDelivery {
		zones, err := store.ListZonesByTenant(ctx, req.TenantID)
		if err != nil {
			return nil, fmt.Errorf("list zones: %w", err)
		}
		zone, ok := MatchZone(zones, req.DeliveryPostcode)
		if !ok {
			return nil, ErrDeliveryUnavailable
		}
		if zone.MinOrderAmount.Valid && orderSubtotal.LessThan(numericToDecimal(zone.MinOrderAmount)) {
			return nil, ErrBelowZoneMinimum
		}
		deliveryFee = numericToDecimal(zone.DeliveryFee)
		zoneID = pgtype.UUID{Bytes: zone.ID, Valid: true}
		deliveryAddress = pgtype.Text{String: req.DeliveryAddress, Valid: true}
		deliveryPostcode = pgtype.Text{String: NormalizePostcode(req.DeliveryPostcode), Valid: true}
	}

	// --- Voucher: redeem inside the tx, store the flat discount ---
	discount := decimal.Zero
	voucherID := pgtype.UUID{}
	voucherCode := pgtype.Text{}
	if req.VoucherCode != "" {
		voucher, err := store.GetVoucherByCode(ctx, database.GetVoucherByCodeParams{
			TenantID: req.TenantID,
			Code:     req.VoucherCode,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrVoucherNotFound
			}
			return nil, fmt.Errorf("get voucher: %w", err)
		}
		discount, err = VoucherDiscount(voucher, orderSubtotal, time.Now())
		if err != nil {
			return nil, err
		}
		if _, err := store.IncrementVoucherRedemptions(ctx, voucher.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrVoucherExhausted
			}
			return nil, fmt.Errorf("redeem voucher: %w", err)
		}
		voucherID = pgtype.UUID{Bytes: voucher.ID, Valid: true}
		voucherCode = pgtype.Text{String: voucher.Code, Valid: true}
	}

	totalAmount := pricing.OrderTotal(orderSubtotal, deliveryFee, discount)

	// --- Build order params ---
	customerID := pgtype.UUID{}
	if req.CustomerID != "" {
		cid, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, ErrInvalidCustomerID
		}
		customerID = pgtype.UUID{Bytes: cid, Valid: true}
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	// --- Insert order ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TenantID:         req.TenantID,
		OrderNumber:      orderNumber,
		CustomerID:       customerID,
		OrderType:        req.OrderType,
		DeliveryAddress:  deliveryAddress,
		DeliveryPostcode: deliveryPostcode,
		ZoneID:           zoneID,
		Subtotal:         decimalToNumeric(orderSubtotal),
		DeliveryFee:      decimalToNumeric(deliveryFee),
		DiscountAmount:   decimalToNumeric(discount),
		VoucherID:        voucherID,
		VoucherCode:      voucherCode,
		TotalAmount:      decimalToNumeric(totalAmount),
		PaymentMethod:    req.PaymentMethod,
		Notes:            notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert items ---
	var itemResults []OrderItemResult
	for _, pi := range items {
		pi.params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, pi.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}

		var addonResults []database.OrderItemAddon
		for _, a := range pi.addons {
			oia, err := store.CreateOrderItemAddon(ctx, database.CreateOrderItemAddonParams{
				OrderItemID:   item.ID,
				AddonGroupID:  a.groupID,
				GroupName:     a.groupName,
				AddonOptionID: a.optionID,
				OptionName:    a.optionName,
				Quantity:      a.quantity,
				UnitPrice:     decimalToNumeric(a.unitPrice),
				TotalPrice:    decimalToNumeric(a.totalPrice),
				Note:          textOrNull(a.note),
			})
			if err != nil {
				return nil, fmt.Errorf("create order item addon: %w", err)
			}
			addonResults = append(addonResults, oia)
		}

		itemResults = append(itemResults, OrderItemResult{
			Item:   item,
			Addons: addonResults,
		})
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{
		Order: order,
		Items: itemResults,
	}, nil
}

// processItem validates one item's addon selection against its stored group
// definitions and prices the line.
func (s *OrderService) processItem(ctx context.Context, store OrderStore, tenantID uuid.UUID, i int, item CreateOrderItemRequest) (processedItem, decimal.Decimal, error) {
	if item.Quantity <= 0 {
		return processedItem{}, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
	}

	menuItemID, err := uuid.Parse(item.MenuItemID)
	if err != nil {
		return processedItem{}, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrInvalidMenuItemID)
	}

	menuItem, err := store.GetMenuItem(ctx, database.GetMenuItemParams{
		ID:       menuItemID,
		TenantID: tenantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return processedItem{}, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrMenuItemNotFound)
		}
		return processedItem{}, decimal.Zero, fmt.Errorf("item[%d]: get menu item: %w", i, err)
	}
	if !menuItem.IsAvailable {
		return processedItem{}, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrMenuItemUnavailable)
	}

	groups, err := s.loadAddonConfig(ctx, store, menuItemID)
	if err != nil {
		return processedItem{}, decimal.Zero, fmt.Errorf("item[%d]: %w", i, err)
	}

	// Load the client's selection into the selection state, rejecting IDs
	// that do not belong to this item, then let the validator judge the
	// cardinality rules as a whole.
	sel := pricing.NewSelection(groups)
	for j, a := range item.Addons {
		if a.Quantity <= 0 {
			return processedItem{}, decimal.Zero, fmt.Errorf("item[%d].addons[%d]: %w", i, j, ErrInvalidQuantity)
		}
		groupID, err := uuid.Parse(a.GroupID)
		if err != nil {
			return processedItem{}, decimal.Zero, fmt.Errorf("item[%d].addons[%d]: %w", i, j, ErrInvalidGroupID)
		}
		optionID, err := uuid.Parse(a.OptionID)
		if err != nil {
			return processedItem{}, decimal.Zero, fmt.Errorf("item[%d].addons[%d]: %w", i, j, ErrInvalidOptionID)
		}
		group, ok := findGroup(groups, groupID)
		if !ok {
			return processedItem{}, decimal.Zero, fmt.Errorf("item[%d].addons[%d]: %w", i, j, ErrAddonGroupNotFound)
		}
		opt, ok := group.Option(optionID)
		if !ok {
			return processedItem{}, decimal.Zero, fmt.Errorf("item[%d].addons[%d]: %w", i, j, ErrAddonOptionNotFound)
		}
		if !opt.Available {
			return processedItem{}, decimal.Zero, fmt.Errorf("item[%d].addons[%d]: %w", i, j, ErrAddonUnavailable)
		}
		sel.Apply(groupID, optionID, a.Quantity, a.Note)
	}

	if v := sel.Validate(); !v.Valid {
		return processedItem{}, decimal.Zero, &AddonValidationError{ItemIndex: i, Messages: v.Errors}
	}

	var addons []addonInfo
	for _, sa := range sel.SelectedAddons() {
		group, _ := findGroup(groups, sa.GroupID)
		for _, so := range sa.Options {
			opt, _ := group.Option(so.OptionID)
			addons = append(addons, addonInfo{
				groupID:    sa.GroupID,
				groupName:  sa.GroupName,
				optionID:   so.OptionID,
				optionName: so.Name,
				quantity:   so.Quantity,
				unitPrice:  opt.Price,
				totalPrice: so.TotalPrice,
				note:       so.Note,
			})
		}
	}

	basePrice := numericToDecimal(menuItem.BasePrice)
	addonTotal := sel.Quote().Total
	lineTotal := pricing.LineTotal(basePrice, addonTotal, item.Quantity)

	return processedItem{
		params: database.CreateOrderItemParams{
			MenuItemID:          menuItemID,
			ItemName:            menuItem.Name,
			Quantity:            item.Quantity,
			UnitPrice:           decimalToNumeric(basePrice),
			AddonTotal:          decimalToNumeric(addonTotal),
			LineTotal:           decimalToNumeric(lineTotal),
			SpecialInstructions: textOrNull(item.SpecialInstructions),
		},
		addons: addons,
	}, lineTotal, nil
}

// loadAddonConfig converts the stored addon rows into pricing groups in
// their sort order.
func (s *OrderService) loadAddonConfig(ctx context.Context, store OrderStore, menuItemID uuid.UUID) ([]pricing.AddonGroup, error) {
	rows, err := store.ListAddonGroupsByMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, fmt.Errorf("list addon groups: %w", err)
	}

	groups := make([]pricing.AddonGroup, 0, len(rows))
	for _, g := range rows {
		optRows, err := store.ListAddonOptionsByGroup(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("list addon options: %w", err)
		}
		pg := pricing.AddonGroup{
			ID:            g.ID,
			Name:          g.Name,
			Type:          g.GroupType,
			Category:      g.Category,
			Required:      g.Required,
			MinSelections: g.MinSelections,
			MaxSelections: g.MaxSelections,
		}
		for _, o := range optRows {
			po := pricing.AddonOption{
				ID:        o.ID,
				Name:      o.Name,
				Price:     numericToDecimal(o.Price),
				Available: o.IsAvailable,
			}
			if o.TierBaseQuantity.Valid {
				po.QuantityPricing = &pricing.QuantityPricing{
					BaseQuantity:    o.TierBaseQuantity.Int32,
					AdditionalPrice: numericToDecimal(o.TierAdditionalPrice),
				}
			}
			pg.Options = append(pg.Options, po)
		}
		groups = append(groups, pg)
	}
	return groups, nil
}

// --- Helpers ---

func findGroup(groups []pricing.AddonGroup, id uuid.UUID) (pricing.AddonGroup, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return pricing.AddonGroup{}, false
}

func validateOrderType(s string) error {
	switch s {
	case enum.OrderTypePickup, enum.OrderTypeDelivery:
		return nil
	}
	return ErrInvalidOrderType
}

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodCard, enum.PaymentMethodOnline:
		return true
	}
	return false
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
