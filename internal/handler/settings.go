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

	"github.com/orderdeck/api/internal/database"
)

// SettingsStore defines the database methods needed by settings handlers.
type SettingsStore interface {
	GetTenantSettings(ctx context.Context, tenantID uuid.UUID) (database.TenantSettings, error)
	UpsertTenantSettings(ctx context.Context, arg database.UpsertTenantSettingsParams) (database.TenantSettings, error)
}

// SettingsHandler handles tenant settings endpoints.
type SettingsHandler struct {
	store SettingsStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// RegisterRoutes registers settings endpoints on the given Chi router.
// Expected to be mounted inside a tenant-scoped subrouter: /tenants/{tid}/settings
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

type settingsRequest struct {
	CurrencyCode string `json:"currency_code"`
}

type settingsResponse struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	CurrencyCode string    `json:"currency_code"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toSettingsResponse(s database.TenantSettings) settingsResponse {
	return settingsResponse{
		TenantID:     s.TenantID,
		CurrencyCode: s.CurrencyCode,
		UpdatedAt:    s.UpdatedAt,
	}
}

// Get returns the tenant settings. Tenants that never saved settings get
// the defaults rather than a 404.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	settings, err := h.store.GetTenantSettings(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusOK, settingsResponse{TenantID: tenantID, CurrencyCode: "GBP"})
			return
		}
		log.Printf("ERROR: get tenant settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// Update upserts the tenant settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if len(code) != 3 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "currency_code must be a 3-letter ISO 4217 code"})
		return
	}

	settings, err := h.store.UpsertTenantSettings(r.Context(), database.UpsertTenantSettingsParams{
		TenantID:     tenantID,
		CurrencyCode: code,
	})
	if err != nil {
		log.Printf("ERROR: upsert tenant settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}
