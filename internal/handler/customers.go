package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orderdeck/api/internal/database"
	"github.com/orderdeck/api/internal/service"
)

// CustomerStore defines the database methods needed by customer handlers.
type CustomerStore interface {
	ListCustomersByTenant(ctx context.Context, tenantID uuid.UUID) ([]database.Customer, error)
	GetCustomer(ctx context.Context, arg database.GetCustomerParams) (database.Customer, error)
	CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
	UpdateCustomer(ctx context.Context, arg database.UpdateCustomerParams) (database.Customer, error)
	SoftDeleteCustomer(ctx context.Context, arg database.SoftDeleteCustomerParams) (uuid.UUID, error)
	ListLoyaltyEntriesByCustomer(ctx context.Context, customerID uuid.UUID) ([]database.LoyaltyEntry, error)
}

// CustomerHandler handles customer directory and loyalty endpoints.
type CustomerHandler struct {
	store CustomerStore
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(store CustomerStore) *CustomerHandler {
	return &CustomerHandler{store: store}
}

// RegisterRoutes registers customer endpoints on the given Chi router.
// Expected to be mounted inside a tenant-scoped subrouter: /tenants/{tid}/customers
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/loyalty", h.Loyalty)
}

// --- Request / Response types ---

type customerRequest struct {
	FullName string  `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Postcode *string `json:"postcode"`
}

type customerResponse struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	FullName       string    `json:"full_name"`
	Email          *string   `json:"email"`
	Phone          *string   `json:"phone"`
	Postcode       *string   `json:"postcode"`
	LoyaltyPoints  int32     `json:"loyalty_points"`
	LifetimePoints int32     `json:"lifetime_points"`
	Tier           string    `json:"tier"`
	CreatedAt      time.Time `json:"created_at"`
}

func toCustomerResponse(c database.Customer) customerResponse {
	resp := customerResponse{
		ID:             c.ID,
		TenantID:       c.TenantID,
		FullName:       c.FullName,
		LoyaltyPoints:  c.LoyaltyPoints,
		LifetimePoints: c.LifetimePoints,
		Tier:           service.TierForPoints(c.LifetimePoints),
		CreatedAt:      c.CreatedAt,
	}
	if c.Email.Valid {
		resp.Email = &c.Email.String
	}
	if c.Phone.Valid {
		resp.Phone = &c.Phone.String
	}
	if c.Postcode.Valid {
		resp.Postcode = &c.Postcode.String
	}
	return resp
}

func customerTexts(req customerRequest) (email, phone, postcode pgtype.Text, errMsg string) {
	if strings.TrimSpace(req.FullName) == "" {
		errMsg = "full_name is required"
		return
	}
	if req.Email != nil && *req.Email != "" {
		if !strings.Contains(*req.Email, "@") {
			errMsg = "invalid email"
			return
		}
		email = pgtype.Text{String: strings.ToLower(strings.TrimSpace(*req.Email)), Valid: true}
	}
	if req.Phone != nil && *req.Phone != "" {
		phone = pgtype.Text{String: strings.TrimSpace(*req.Phone), Valid: true}
	}
	if req.Postcode != nil && *req.Postcode != "" {
		postcode = pgtype.Text{String: service.NormalizePostcode(*req.Postcode), Valid: true}
	}
	return
}

// --- Handlers ---

// List returns all active customers for the tenant.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	customers, err := h.store.ListCustomersByTenant(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: list customers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]customerResponse, len(customers))
	for i, c := range customers {
		resp[i] = toCustomerResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single customer by ID.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	customer, err := h.store.GetCustomer(r.Context(), database.GetCustomerParams{
		ID:       customerID,
		TenantID: tenantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		log.Printf("ERROR: get customer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// Create adds a new customer to the tenant.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	email, phone, postcode, msg := customerTexts(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	customer, err := h.store.CreateCustomer(r.Context(), database.CreateCustomerParams{
		TenantID: tenantID,
		FullName: strings.TrimSpace(req.FullName),
		Email:    email,
		Phone:    phone,
		Postcode: postcode,
	})
	if err != nil {
		log.Printf("ERROR: create customer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

// Update modifies an existing customer.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	email, phone, postcode, msg := customerTexts(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	customer, err := h.store.UpdateCustomer(r.Context(), database.UpdateCustomerParams{
		ID:       customerID,
		TenantID: tenantID,
		FullName: strings.TrimSpace(req.FullName),
		Email:    email,
		Phone:    phone,
		Postcode: postcode,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		log.Printf("ERROR: update customer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// Delete soft-deletes a customer by setting is_active=false.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	if _, err := h.store.SoftDeleteCustomer(r.Context(), database.SoftDeleteCustomerParams{
		ID:       customerID,
		TenantID: tenantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		log.Printf("ERROR: delete customer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type loyaltyEntryResponse struct {
	ID        uuid.UUID `json:"id"`
	OrderID   *string   `json:"order_id"`
	Points    int32     `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type loyaltyResponse struct {
	Balance        int32                  `json:"balance"`
	LifetimePoints int32                  `json:"lifetime_points"`
	Tier           string                 `json:"tier"`
	History        []loyaltyEntryResponse `json:"history"`
}

// Loyalty returns a customer's points balance, tier and earn history.
func (h *CustomerHandler) Loyalty(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	customer, err := h.store.GetCustomer(r.Context(), database.GetCustomerParams{
		ID:       customerID,
		TenantID: tenantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		log.Printf("ERROR: get customer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	entries, err := h.store.ListLoyaltyEntriesByCustomer(r.Context(), customerID)
	if err != nil {
		log.Printf("ERROR: list loyalty entries: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	history := make([]loyaltyEntryResponse, len(entries))
	for i, e := range entries {
		entry := loyaltyEntryResponse{
			ID:        e.ID,
			Points:    e.Points,
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt,
		}
		if e.OrderID.Valid {
			id := uuid.UUID(e.OrderID.Bytes).String()
			entry.OrderID = &id
		}
		history[i] = entry
	}

	writeJSON(w, http.StatusOK, loyaltyResponse{
		Balance:        customer.LoyaltyPoints,
		LifetimePoints: customer.LifetimePoints,
		Tier:           service.TierForPoints(customer.LifetimePoints),
		History:        history,
	})
}
