package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orderdeck/api/internal/database"
	"github.com/orderdeck/api/internal/service"
)

// ZoneStore defines the database methods needed by delivery zone handlers.
type ZoneStore interface {
	ListZonesByTenant(ctx context.Context, tenantID uuid.UUID) ([]database.DeliveryZone, error)
	GetZone(ctx context.Context, arg database.GetZoneParams) (database.DeliveryZone, error)
	CreateZone(ctx context.Context, arg database.CreateZoneParams) (database.DeliveryZone, error)
	UpdateZone(ctx context.Context, arg database.UpdateZoneParams) (database.DeliveryZone, error)
	SoftDeleteZone(ctx context.Context, arg database.SoftDeleteZoneParams) (uuid.UUID, error)
}

// ZoneHandler handles delivery zone endpoints.
type ZoneHandler struct {
	store ZoneStore
}

// NewZoneHandler creates a new ZoneHandler.
func NewZoneHandler(store ZoneStore) *ZoneHandler {
	return &ZoneHandler{store: store}
}

// RegisterRoutes registers zone endpoints on the given Chi router.
// Expected to be mounted inside a tenant-scoped subrouter: /tenants/{tid}/zones
func (h *ZoneHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/lookup", h.Lookup)
}

// --- Request / Response types ---

type zoneRequest struct {
	Name             string   `json:"name"`
	PostcodePrefixes []string `json:"postcode_prefixes"`
	DeliveryFee      string   `json:"delivery_fee"`
	MinOrderAmount   *string  `json:"min_order_amount"`
}

type zoneResponse struct {
	ID               uuid.UUID `json:"id"`
	TenantID         uuid.UUID `json:"tenant_id"`
	Name             string    `json:"name"`
	PostcodePrefixes []string  `json:"postcode_prefixes"`
	DeliveryFee      string    `json:"delivery_fee"`
	MinOrderAmount   *string   `json:"min_order_amount"`
}

func toZoneResponse(z database.DeliveryZone) zoneResponse {
	resp := zoneResponse{
		ID:               z.ID,
		TenantID:         z.TenantID,
		Name:             z.Name,
		PostcodePrefixes: z.PostcodePrefixes,
		DeliveryFee:      formatNumeric(z.DeliveryFee),
	}
	if z.MinOrderAmount.Valid {
		m := formatNumeric(z.MinOrderAmount)
		resp.MinOrderAmount = &m
	}
	return resp
}

// zoneParams validates the shared payload. Prefixes are normalized before
// storage so matching never depends on how the editor typed them.
func zoneParams(req zoneRequest) (prefixes []string, fee, minOrder pgtype.Numeric, errMsg string) {
	if req.Name == "" {
		return nil, fee, minOrder, "name is required"
	}
	if len(req.PostcodePrefixes) == 0 {
		return nil, fee, minOrder, "postcode_prefixes is required"
	}
	for _, p := range req.PostcodePrefixes {
		n := service.NormalizePostcode(p)
		if n == "" {
			return nil, fee, minOrder, "postcode_prefixes must not contain empty entries"
		}
		prefixes = append(prefixes, n)
	}
	if req.DeliveryFee == "" {
		return nil, fee, minOrder, "delivery_fee is required"
	}
	f, err := parsePrice(req.DeliveryFee)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			return nil, fee, minOrder, "delivery_fee must be >= 0"
		}
		return nil, fee, minOrder, "invalid delivery_fee"
	}
	fee = f
	if req.MinOrderAmount != nil {
		m, err := parsePrice(*req.MinOrderAmount)
		if err != nil {
			if errors.Is(err, errNegativePrice) {
				return nil, fee, minOrder, "min_order_amount must be >= 0"
			}
			return nil, fee, minOrder, "invalid min_order_amount"
		}
		minOrder = m
	}
	return prefixes, fee, minOrder, ""
}

// --- Handlers ---

// List returns all active delivery zones for the tenant.
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	zones, err := h.store.ListZonesByTenant(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: list zones: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]zoneResponse, len(zones))
	for i, z := range zones {
		resp[i] = toZoneResponse(z)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new delivery zone to the tenant.
func (h *ZoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	prefixes, fee, minOrder, msg := zoneParams(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	zone, err := h.store.CreateZone(r.Context(), database.CreateZoneParams{
		TenantID:         tenantID,
		Name:             req.Name,
		PostcodePrefixes: prefixes,
		DeliveryFee:      fee,
		MinOrderAmount:   minOrder,
	})
	if err != nil {
		log.Printf("ERROR: create zone: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toZoneResponse(zone))
}

// Update modifies an existing delivery zone.
func (h *ZoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	zoneID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid zone ID"})
		return
	}

	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	prefixes, fee, minOrder, msg := zoneParams(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	zone, err := h.store.UpdateZone(r.Context(), database.UpdateZoneParams{
		ID:               zoneID,
		TenantID:         tenantID,
		Name:             req.Name,
		PostcodePrefixes: prefixes,
		DeliveryFee:      fee,
		MinOrderAmount:   minOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "zone not found"})
			return
		}
		log.Printf("ERROR: update zone: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toZoneResponse(zone))
}

// Delete soft-deletes a delivery zone by setting is_active=false.
func (h *ZoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	zoneID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid zone ID"})
		return
	}

	if _, err := h.store.SoftDeleteZone(r.Context(), database.SoftDeleteZoneParams{
		ID:       zoneID,
		TenantID: tenantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "zone not found"})
			return
		}
		log.Printf("ERROR: delete zone: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Lookup resolves a postcode to the zone that would serve it, using the
// same longest-prefix match as order creation. 404 means no delivery.
func (h *ZoneHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	postcode := r.URL.Query().Get("postcode")
	if postcode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "postcode is required"})
		return
	}

	zones, err := h.store.ListZonesByTenant(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: list zones: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	zone, ok := service.MatchZone(zones, postcode)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no delivery zone covers this postcode"})
		return
	}
	writeJSON(w, http.StatusOK, toZoneResponse(zone))
}
