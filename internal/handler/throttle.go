package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orderdeck/api/internal/database"
)

// ThrottleStore defines the database methods needed by throttle rule handlers.
type ThrottleStore interface {
	ListThrottleRules(ctx context.Context, tenantID uuid.UUID) ([]database.ThrottleRule, error)
	UpsertThrottleRule(ctx context.Context, arg database.UpsertThrottleRuleParams) (database.ThrottleRule, error)
}

// ThrottleHandler handles order throttling schedule endpoints. Rules are
// stored per weekday for the kitchen dashboard; enforcement at order intake
// is not part of this service.
type ThrottleHandler struct {
	store ThrottleStore
}

// NewThrottleHandler creates a new ThrottleHandler.
func NewThrottleHandler(store ThrottleStore) *ThrottleHandler {
	return &ThrottleHandler{store: store}
}

// RegisterRoutes registers throttle endpoints on the given Chi router.
// Expected to be mounted inside a tenant-scoped subrouter: /tenants/{tid}/throttle
func (h *ThrottleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/", h.Upsert)
}

type throttleRuleRequest struct {
	DayOfWeek            int32 `json:"day_of_week"`
	Enabled              bool  `json:"enabled"`
	IntervalMinutes      int32 `json:"interval_minutes"`
	MaxOrdersPerInterval int32 `json:"max_orders_per_interval"`
}

type throttleRuleResponse struct {
	DayOfWeek            int32 `json:"day_of_week"`
	Enabled              bool  `json:"enabled"`
	IntervalMinutes      int32 `json:"interval_minutes"`
	MaxOrdersPerInterval int32 `json:"max_orders_per_interval"`
}

func toThrottleRuleResponse(t database.ThrottleRule) throttleRuleResponse {
	return throttleRuleResponse{
		DayOfWeek:            t.DayOfWeek,
		Enabled:              t.Enabled,
		IntervalMinutes:      t.IntervalMinutes,
		MaxOrdersPerInterval: t.MaxOrdersPerInterval,
	}
}

// List returns the throttle rules for the tenant, one per configured weekday.
func (h *ThrottleHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	rules, err := h.store.ListThrottleRules(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: list throttle rules: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]throttleRuleResponse, len(rules))
	for i, rule := range rules {
		resp[i] = toThrottleRuleResponse(rule)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Upsert replaces the rules for the weekdays present in the payload.
// Days not mentioned keep their existing rule.
func (h *ThrottleHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	var reqs []throttleRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(reqs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at least one rule is required"})
		return
	}
	seen := make(map[int32]bool)
	for i, req := range reqs {
		if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("rule[%d]: day_of_week must be 0-6", i)})
			return
		}
		if seen[req.DayOfWeek] {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("rule[%d]: duplicate day_of_week %d", i, req.DayOfWeek)})
			return
		}
		seen[req.DayOfWeek] = true
		if req.IntervalMinutes <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("rule[%d]: interval_minutes must be > 0", i)})
			return
		}
		if req.MaxOrdersPerInterval <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("rule[%d]: max_orders_per_interval must be > 0", i)})
			return
		}
	}

	resp := make([]throttleRuleResponse, 0, len(reqs))
	for _, req := range reqs {
		rule, err := h.store.UpsertThrottleRule(r.Context(), database.UpsertThrottleRuleParams{
			TenantID:             tenantID,
			DayOfWeek:            req.DayOfWeek,
			Enabled:              req.Enabled,
			IntervalMinutes:      req.IntervalMinutes,
			MaxOrdersPerInterval: req.MaxOrdersPerInterval,
		})
		if err != nil {
			log.Printf("ERROR: upsert throttle rule: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp = append(resp, toThrottleRuleResponse(rule))
	}

	writeJSON(w, http.StatusOK, resp)
}
