package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orderdeck/api/internal/database"
	"github.com/orderdeck/api/internal/enum"
	"github.com/orderdeck/api/internal/service"
	"github.com/orderdeck/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	UpdateStatus(ctx context.Context, req service.UpdateStatusRequest) (*database.Order, error)
	Cancel(ctx context.Context, tenantID, orderID uuid.UUID) (*database.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrderItemAddonsByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemAddon, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   *ws.Hub
}

// NewOrderHandler creates a new OrderHandler. hub may be nil in tests.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub *ws.Hub) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside a tenant-scoped subrouter: /tenants/{tid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}", h.Cancel)
}

// --- Request / Response types ---

type createOrderRequest struct {
	OrderType        string                   `json:"order_type"`
	PaymentMethod    string                   `json:"payment_method"`
	CustomerID       string                   `json:"customer_id"`
	DeliveryAddress  string                   `json:"delivery_address"`
	DeliveryPostcode string                   `json:"delivery_postcode"`
	VoucherCode      string                   `json:"voucher_code"`
	Notes            string                   `json:"notes"`
	Items            []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	MenuItemID          string                        `json:"menu_item_id"`
	Quantity            int32                         `json:"quantity"`
	SpecialInstructions string                        `json:"special_instructions"`
	Addons              []createOrderItemAddonRequest `json:"addons"`
}

type createOrderItemAddonRequest struct {
	GroupID  string `json:"group_id"`
	OptionID string `json:"option_id"`
	Quantity int32  `json:"quantity"`
	Note     string `json:"note"`
}

type orderResponse struct {
	ID               uuid.UUID           `json:"id"`
	TenantID         uuid.UUID           `json:"tenant_id"`
	OrderNumber      string              `json:"order_number"`
	CustomerID       *string             `json:"customer_id"`
	OrderType        string              `json:"order_type"`
	Status           string              `json:"status"`
	DeliveryAddress  *string             `json:"delivery_address"`
	DeliveryPostcode *string             `json:"delivery_postcode"`
	Subtotal         string              `json:"subtotal"`
	DeliveryFee      string              `json:"delivery_fee"`
	DiscountAmount   string              `json:"discount_amount"`
	VoucherCode      *string             `json:"voucher_code"`
	TotalAmount      string              `json:"total_amount"`
	PaymentMethod    string              `json:"payment_method"`
	Notes            *string             `json:"notes"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Items            []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID                  uuid.UUID                `json:"id"`
	MenuItemID          uuid.UUID                `json:"menu_item_id"`
	ItemName            string                   `json:"item_name"`
	Quantity            int32                    `json:"quantity"`
	UnitPrice           string                   `json:"unit_price"`
	AddonTotal          string                   `json:"addon_total"`
	LineTotal           string                   `json:"line_total"`
	SpecialInstructions *string                  `json:"special_instructions"`
	Addons              []orderItemAddonResponse `json:"addons"`
}

type orderItemAddonResponse struct {
	ID         uuid.UUID `json:"id"`
	GroupID    uuid.UUID `json:"group_id"`
	GroupName  string    `json:"group_name"`
	OptionID   uuid.UUID `json:"option_id"`
	OptionName string    `json:"option_name"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	TotalPrice string    `json:"total_price"`
	Note       *string   `json:"note"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Create handles POST /tenants/{tid}/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.OrderType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_type is required"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}
	for i, item := range req.Items {
		if item.MenuItemID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "menu_item_id is required"),
			})
			return
		}
		if item.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "quantity must be > 0"),
			})
			return
		}
	}

	svcItems := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		addons := make([]service.CreateOrderItemAddonRequest, len(item.Addons))
		for j, a := range item.Addons {
			addons[j] = service.CreateOrderItemAddonRequest{
				GroupID:  a.GroupID,
				OptionID: a.OptionID,
				Quantity: a.Quantity,
				Note:     a.Note,
			}
		}
		svcItems[i] = service.CreateOrderItemRequest{
			MenuItemID:          item.MenuItemID,
			Quantity:            item.Quantity,
			SpecialInstructions: item.SpecialInstructions,
			Addons:              addons,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		TenantID:         tenantID,
		CustomerID:       req.CustomerID,
		OrderType:        req.OrderType,
		PaymentMethod:    req.PaymentMethod,
		DeliveryAddress:  req.DeliveryAddress,
		DeliveryPostcode: req.DeliveryPostcode,
		VoucherCode:      req.VoucherCode,
		Notes:            req.Notes,
		Items:            svcItems,
	})
	if err != nil {
		var addonErr *service.AddonValidationError
		if errors.As(err, &addonErr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":      "addon selection invalid",
				"item_index": addonErr.ItemIndex,
				"messages":   addonErr.Messages,
			})
			return
		}
		if isOrderValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(result)
	h.broadcast(tenantID, "order.created", resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /tenants/{tid}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		TenantID: tenantID,
		Limit:    int32(limit),
		Offset:   int32(offset),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		if !isKnownStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /tenants/{tid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:       orderID,
		TenantID: tenantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	itemResponses := make([]orderItemResponse, len(items))
	for i, item := range items {
		addons, err := h.store.ListOrderItemAddonsByOrderItem(r.Context(), item.ID)
		if err != nil {
			log.Printf("ERROR: list order item addons: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		itemResponses[i] = dbOrderItemToResponse(item, addons)
	}

	resp := dbOrderToResponse(order)
	resp.Items = itemResponses
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /tenants/{tid}/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), service.UpdateStatusRequest{
		TenantID: tenantID,
		OrderID:  orderID,
		Status:   req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrStatusConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := dbOrderToResponse(*order)
	h.broadcast(tenantID, "order.updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// Cancel handles DELETE /tenants/{tid}/orders/{id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.svc.Cancel(r.Context(), tenantID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order can no longer be cancelled"})
		default:
			log.Printf("ERROR: cancel order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := dbOrderToResponse(*order)
	h.broadcast(tenantID, "order.cancelled", resp)
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}

// broadcast pushes an order event to the tenant's dashboard room.
func (h *OrderHandler) broadcast(tenantID uuid.UUID, eventType string, payload any) {
	if h.hub == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
		return
	}
	h.hub.BroadcastToTenant(tenantID, ws.Event{Type: eventType, Payload: data})
}

// isOrderValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidOrderType) ||
		errors.Is(err, service.ErrInvalidPayment) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidMenuItemID) ||
		errors.Is(err, service.ErrInvalidCustomerID) ||
		errors.Is(err, service.ErrInvalidGroupID) ||
		errors.Is(err, service.ErrInvalidOptionID) ||
		errors.Is(err, service.ErrMenuItemNotFound) ||
		errors.Is(err, service.ErrMenuItemUnavailable) ||
		errors.Is(err, service.ErrAddonGroupNotFound) ||
		errors.Is(err, service.ErrAddonOptionNotFound) ||
		errors.Is(err, service.ErrAddonUnavailable) ||
		errors.Is(err, service.ErrDeliveryDetails) ||
		errors.Is(err, service.ErrDeliveryUnavailable) ||
		errors.Is(err, service.ErrBelowZoneMinimum) ||
		errors.Is(err, service.ErrVoucherNotFound) ||
		errors.Is(err, service.ErrVoucherExpired) ||
		errors.Is(err, service.ErrVoucherExhausted) ||
		errors.Is(err, service.ErrVoucherMinOrder)
}

func isKnownStatus(s string) bool {
	switch s {
	case enum.OrderStatusNew, enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusCompleted, enum.OrderStatusCancelled:
		return true
	}
	return false
}

func toOrderResponse(result *service.CreateOrderResult) orderResponse {
	resp := dbOrderToResponse(result.Order)
	resp.Items = make([]orderItemResponse, len(result.Items))
	for i, ir := range result.Items {
		resp.Items[i] = dbOrderItemToResponse(ir.Item, ir.Addons)
	}
	return resp
}

// dbOrderToResponse converts a database.Order to an orderResponse.
func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		TenantID:       o.TenantID,
		OrderNumber:    o.OrderNumber,
		OrderType:      o.OrderType,
		Status:         o.Status,
		Subtotal:       formatNumeric(o.Subtotal),
		DeliveryFee:    formatNumeric(o.DeliveryFee),
		DiscountAmount: formatNumeric(o.DiscountAmount),
		TotalAmount:    formatNumeric(o.TotalAmount),
		PaymentMethod:  o.PaymentMethod,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}

	if o.CustomerID.Valid {
		s := uuid.UUID(o.CustomerID.Bytes).String()
		resp.CustomerID = &s
	}
	if o.DeliveryAddress.Valid {
		resp.DeliveryAddress = &o.DeliveryAddress.String
	}
	if o.DeliveryPostcode.Valid {
		resp.DeliveryPostcode = &o.DeliveryPostcode.String
	}
	if o.VoucherCode.Valid {
		resp.VoucherCode = &o.VoucherCode.String
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}

	return resp
}

// dbOrderItemToResponse converts a database.OrderItem and its addon
// snapshots to an orderItemResponse.
func dbOrderItemToResponse(item database.OrderItem, addons []database.OrderItemAddon) orderItemResponse {
	resp := orderItemResponse{
		ID:         item.ID,
		MenuItemID: item.MenuItemID,
		ItemName:   item.ItemName,
		Quantity:   item.Quantity,
		UnitPrice:  formatNumeric(item.UnitPrice),
		AddonTotal: formatNumeric(item.AddonTotal),
		LineTotal:  formatNumeric(item.LineTotal),
	}
	if item.SpecialInstructions.Valid {
		resp.SpecialInstructions = &item.SpecialInstructions.String
	}

	resp.Addons = make([]orderItemAddonResponse, len(addons))
	for j, a := range addons {
		ar := orderItemAddonResponse{
			ID:         a.ID,
			GroupID:    a.AddonGroupID,
			GroupName:  a.GroupName,
			OptionID:   a.AddonOptionID,
			OptionName: a.OptionName,
			Quantity:   a.Quantity,
			UnitPrice:  formatNumeric(a.UnitPrice),
			TotalPrice: formatNumeric(a.TotalPrice),
		}
		if a.Note.Valid {
			ar.Note = &a.Note.String
		}
		resp.Addons[j] = ar
	}

	return resp
}
