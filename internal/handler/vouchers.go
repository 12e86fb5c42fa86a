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
	"github.com/shopspring/decimal"

	"github.com/orderdeck/api/internal/database"
	"github.com/orderdeck/api/internal/enum"
	"github.com/orderdeck/api/internal/service"
)

// VoucherStore defines the database methods needed by voucher handlers.
type VoucherStore interface {
	ListVouchersByTenant(ctx context.Context, tenantID uuid.UUID) ([]database.Voucher, error)
	GetVoucherByCode(ctx context.Context, arg database.GetVoucherByCodeParams) (database.Voucher, error)
	CreateVoucher(ctx context.Context, arg database.CreateVoucherParams) (database.Voucher, error)
	UpdateVoucher(ctx context.Context, arg database.UpdateVoucherParams) (database.Voucher, error)
	SoftDeleteVoucher(ctx context.Context, arg database.SoftDeleteVoucherParams) (uuid.UUID, error)
}

// VoucherHandler handles voucher endpoints.
type VoucherHandler struct {
	store VoucherStore
}

// NewVoucherHandler creates a new VoucherHandler.
func NewVoucherHandler(store VoucherStore) *VoucherHandler {
	return &VoucherHandler{store: store}
}

// RegisterRoutes registers voucher endpoints on the given Chi router.
// Expected to be mounted inside a tenant-scoped subrouter: /tenants/{tid}/vouchers
func (h *VoucherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/validate", h.Validate)
}

// --- Request / Response types ---

type voucherRequest struct {
	Code           string  `json:"code"`
	VoucherType    string  `json:"voucher_type"`
	Value          string  `json:"value"`
	MinOrderAmount *string `json:"min_order_amount"`
	MaxRedemptions *int32  `json:"max_redemptions"`
	ExpiresAt      *string `json:"expires_at"`
}

type voucherResponse struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenant_id"`
	Code            string    `json:"code"`
	VoucherType     string    `json:"voucher_type"`
	Value           string    `json:"value"`
	MinOrderAmount  *string   `json:"min_order_amount"`
	MaxRedemptions  *int32    `json:"max_redemptions"`
	RedemptionCount int32     `json:"redemption_count"`
	ExpiresAt       *string   `json:"expires_at"`
}

func toVoucherResponse(v database.Voucher) voucherResponse {
	resp := voucherResponse{
		ID:              v.ID,
		TenantID:        v.TenantID,
		Code:            v.Code,
		VoucherType:     v.VoucherType,
		Value:           formatNumeric(v.Value),
		RedemptionCount: v.RedemptionCount,
	}
	if v.MinOrderAmount.Valid {
		m := formatNumeric(v.MinOrderAmount)
		resp.MinOrderAmount = &m
	}
	if v.MaxRedemptions.Valid {
		n := v.MaxRedemptions.Int32
		resp.MaxRedemptions = &n
	}
	if v.ExpiresAt.Valid {
		e := v.ExpiresAt.Time.UTC().Format(time.RFC3339)
		resp.ExpiresAt = &e
	}
	return resp
}

// voucherParams validates the shared payload.
func voucherParams(req voucherRequest) (value, minOrder pgtype.Numeric, maxRedemptions pgtype.Int4, expiresAt pgtype.Timestamptz, errMsg string) {
	if req.Code == "" {
		errMsg = "code is required"
		return
	}
	if req.VoucherType != enum.VoucherTypePercentage && req.VoucherType != enum.VoucherTypeFixed {
		errMsg = "voucher_type must be PERCENTAGE or FIXED_AMOUNT"
		return
	}
	if req.Value == "" {
		errMsg = "value is required"
		return
	}
	v, err := parsePrice(req.Value)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			errMsg = "value must be >= 0"
			return
		}
		errMsg = "invalid value"
		return
	}
	if req.VoucherType == enum.VoucherTypePercentage {
		d, _ := decimal.NewFromString(req.Value)
		if d.GreaterThan(decimal.NewFromInt(100)) {
			errMsg = "percentage value must be <= 100"
			return
		}
	}
	value = v
	if req.MinOrderAmount != nil {
		m, err := parsePrice(*req.MinOrderAmount)
		if err != nil {
			if errors.Is(err, errNegativePrice) {
				errMsg = "min_order_amount must be >= 0"
				return
			}
			errMsg = "invalid min_order_amount"
			return
		}
		minOrder = m
	}
	if req.MaxRedemptions != nil {
		if *req.MaxRedemptions <= 0 {
			errMsg = "max_redemptions must be > 0"
			return
		}
		maxRedemptions = pgtype.Int4{Int32: *req.MaxRedemptions, Valid: true}
	}
	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			errMsg = "expires_at must be RFC 3339"
			return
		}
		expiresAt = pgtype.Timestamptz{Time: t, Valid: true}
	}
	return
}

// --- Handlers ---

// List returns all active vouchers for the tenant.
func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	vouchers, err := h.store.ListVouchersByTenant(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: list vouchers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]voucherResponse, len(vouchers))
	for i, v := range vouchers {
		resp[i] = toVoucherResponse(v)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new voucher to the tenant.
func (h *VoucherHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	var req voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	value, minOrder, maxRedemptions, expiresAt, msg := voucherParams(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	voucher, err := h.store.CreateVoucher(r.Context(), database.CreateVoucherParams{
		TenantID:       tenantID,
		Code:           strings.ToUpper(strings.TrimSpace(req.Code)),
		VoucherType:    req.VoucherType,
		Value:          value,
		MinOrderAmount: minOrder,
		MaxRedemptions: maxRedemptions,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		log.Printf("ERROR: create voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toVoucherResponse(voucher))
}

// Update modifies an existing voucher.
func (h *VoucherHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	voucherID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid voucher ID"})
		return
	}

	var req voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	value, minOrder, maxRedemptions, expiresAt, msg := voucherParams(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	voucher, err := h.store.UpdateVoucher(r.Context(), database.UpdateVoucherParams{
		ID:             voucherID,
		TenantID:       tenantID,
		Code:           strings.ToUpper(strings.TrimSpace(req.Code)),
		VoucherType:    req.VoucherType,
		Value:          value,
		MinOrderAmount: minOrder,
		MaxRedemptions: maxRedemptions,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "voucher not found"})
			return
		}
		log.Printf("ERROR: update voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toVoucherResponse(voucher))
}

// Delete soft-deletes a voucher by setting is_active=false.
func (h *VoucherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}
	voucherID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid voucher ID"})
		return
	}

	if _, err := h.store.SoftDeleteVoucher(r.Context(), database.SoftDeleteVoucherParams{
		ID:       voucherID,
		TenantID: tenantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "voucher not found"})
			return
		}
		log.Printf("ERROR: delete voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type validateVoucherRequest struct {
	Code     string `json:"code"`
	Subtotal string `json:"subtotal"`
}

type validateVoucherResponse struct {
	Valid    bool   `json:"valid"`
	Discount string `json:"discount,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Validate previews the discount a voucher would grant against a subtotal,
// without counting a redemption.
func (h *VoucherHandler) Validate(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	var req validateVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}
	subtotal, err := decimal.NewFromString(req.Subtotal)
	if err != nil || subtotal.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid subtotal"})
		return
	}

	voucher, err := h.store.GetVoucherByCode(r.Context(), database.GetVoucherByCodeParams{
		TenantID: tenantID,
		Code:     strings.ToUpper(strings.TrimSpace(req.Code)),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusOK, validateVoucherResponse{Valid: false, Reason: "voucher not found"})
			return
		}
		log.Printf("ERROR: get voucher by code: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	discount, err := service.VoucherDiscount(voucher, subtotal, time.Now())
	if err != nil {
		reason := "voucher cannot be applied"
		switch {
		case errors.Is(err, service.ErrVoucherExpired):
			reason = "voucher has expired"
		case errors.Is(err, service.ErrVoucherExhausted):
			reason = "voucher redemption limit reached"
		case errors.Is(err, service.ErrVoucherMinOrder):
			reason = "order subtotal below voucher minimum"
		}
		writeJSON(w, http.StatusOK, validateVoucherResponse{Valid: false, Reason: reason})
		return
	}

	writeJSON(w, http.StatusOK, validateVoucherResponse{
		Valid:    true,
		Discount: discount.StringFixed(2),
	})
}
