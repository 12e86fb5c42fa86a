package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orderdeck/api/internal/database"
)

// TenantStore defines the database methods needed by tenant handlers.
type TenantStore interface {
	CreateTenant(ctx context.Context, arg database.CreateTenantParams) (database.Tenant, error)
	ListTenants(ctx context.Context) ([]database.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (database.Tenant, error)
	UpdateTenant(ctx context.Context, arg database.UpdateTenantParams) (database.Tenant, error)
	SoftDeleteTenant(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// TenantHandler handles the platform admin console endpoints.
type TenantHandler struct {
	store TenantStore
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(store TenantStore) *TenantHandler {
	return &TenantHandler{store: store}
}

// RegisterRoutes registers tenant console endpoints on the given Chi router.
// Expected to be mounted behind the PLATFORM_ADMIN role check: /tenants
func (h *TenantHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type tenantRequest struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	CurrencyCode string `json:"currency_code"`
}

type tenantResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	CurrencyCode string    `json:"currency_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toTenantResponse(t database.Tenant) tenantResponse {
	return tenantResponse{
		ID:           t.ID,
		Name:         t.Name,
		Slug:         t.Slug,
		CurrencyCode: t.CurrencyCode,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func tenantParams(req *tenantRequest) string {
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	req.CurrencyCode = strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if req.Name == "" {
		return "name is required"
	}
	if !slugPattern.MatchString(req.Slug) {
		return "slug must be lowercase letters, digits and hyphens"
	}
	if req.CurrencyCode == "" {
		req.CurrencyCode = "GBP"
	}
	if len(req.CurrencyCode) != 3 {
		return "currency_code must be a 3-letter ISO 4217 code"
	}
	return ""
}

// List returns all active tenants.
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.store.ListTenants(r.Context())
	if err != nil {
		log.Printf("ERROR: list tenants: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tenantResponse, len(tenants))
	for i, t := range tenants {
		resp[i] = toTenantResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single tenant by ID.
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	tenant, err := h.store.GetTenant(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "tenant not found"})
			return
		}
		log.Printf("ERROR: get tenant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTenantResponse(tenant))
}

// Create provisions a new restaurant tenant.
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if msg := tenantParams(&req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	tenant, err := h.store.CreateTenant(r.Context(), database.CreateTenantParams{
		Name:         req.Name,
		Slug:         req.Slug,
		CurrencyCode: req.CurrencyCode,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "slug already in use"})
			return
		}
		log.Printf("ERROR: create tenant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toTenantResponse(tenant))
}

// Update modifies an existing tenant.
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	var req tenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if msg := tenantParams(&req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	tenant, err := h.store.UpdateTenant(r.Context(), database.UpdateTenantParams{
		ID:           tenantID,
		Name:         req.Name,
		Slug:         req.Slug,
		CurrencyCode: req.CurrencyCode,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "tenant not found"})
			return
		}
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "slug already in use"})
			return
		}
		log.Printf("ERROR: update tenant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTenantResponse(tenant))
}

// Delete soft-deletes a tenant by setting is_active=false. Its data stays
// in place for reactivation.
func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	if _, err := h.store.SoftDeleteTenant(r.Context(), tenantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "tenant not found"})
			return
		}
		log.Printf("ERROR: delete tenant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
