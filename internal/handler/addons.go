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
	"github.com/shopspring/decimal"

	"github.com/orderdeck/api/internal/database"
	"github.com/orderdeck/api/internal/enum"
)

// AddonStore defines the database methods needed by addon handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AddonStore interface {
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	ListAddonGroupsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]database.AddonGroup, error)
	GetAddonGroup(ctx context.Context, arg database.GetAddonGroupParams) (database.AddonGroup, error)
	CreateAddonGroup(ctx context.Context, arg database.CreateAddonGroupParams) (database.AddonGroup, error)
	UpdateAddonGroup(ctx context.Context, arg database.UpdateAddonGroupParams) (database.AddonGroup, error)
	SoftDeleteAddonGroup(ctx context.Context, arg database.SoftDeleteAddonGroupParams) (uuid.UUID, error)
	ListAddonOptionsByGroup(ctx context.Context, addonGroupID uuid.UUID) ([]database.AddonOption, error)
	CreateAddonOption(ctx context.Context, arg database.CreateAddonOptionParams) (database.AddonOption, error)
	UpdateAddonOption(ctx context.Context, arg database.UpdateAddonOptionParams) (database.AddonOption, error)
	SoftDeleteAddonOption(ctx context.Context, arg database.SoftDeleteAddonOptionParams) (uuid.UUID, error)
}

// AddonHandler handles addon group and option endpoints for a menu item.
type AddonHandler struct {
	store AddonStore
}

// NewAddonHandler creates a new AddonHandler.
func NewAddonHandler(store AddonStore) *AddonHandler {
	return &AddonHandler{store: store}
}

// RegisterRoutes registers addon endpoints on the given Chi router.
// Expected to be mounted inside a menu-item-scoped subrouter:
// /tenants/{tid}/menu/{mid}/addon-groups
func (h *AddonHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListGroups)
	r.Post("/", h.CreateGroup)
	r.Put("/{gid}", h.UpdateGroup)
	r.Delete("/{gid}", h.DeleteGroup)
	r.Post("/{gid}/options", h.CreateOption)
	r.Put("/{gid}/options/{oid}", h.UpdateOption)
	r.Delete("/{gid}/options/{oid}", h.DeleteOption)
}

// --- Request / Response types ---

type addonGroupRequest struct {
	Name          string `json:"name"`
	GroupType     string `json:"group_type"`
	Category      string `json:"category"`
	Required      bool   `json:"required"`
	MinSelections int32  `json:"min_selections"`
	MaxSelections int32  `json:"max_selections"`
	SortOrder     int32  `json:"sort_order"`
}

type addonOptionRequest struct {
	Name                string  `json:"name"`
	Price               string  `json:"price"`
	IsAvailable         *bool   `json:"is_available"`
	TierBaseQuantity    *int32  `json:"tier_base_quantity"`
	TierAdditionalPrice *string `json:"tier_additional_price"`
	SortOrder           int32   `json:"sort_order"`
}

type addonOptionResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Price               string    `json:"price"`
	IsAvailable         bool      `json:"is_available"`
	TierBaseQuantity    *int32    `json:"tier_base_quantity"`
	TierAdditionalPrice *string   `json:"tier_additional_price"`
	SortOrder           int32     `json:"sort_order"`
}

type addonGroupResponse struct {
	ID            uuid.UUID             `json:"id"`
	MenuItemID    uuid.UUID             `json:"menu_item_id"`
	Name          string                `json:"name"`
	GroupType     string                `json:"group_type"`
	Category      string                `json:"category"`
	Required      bool                  `json:"required"`
	MinSelections int32                 `json:"min_selections"`
	MaxSelections int32                 `json:"max_selections"`
	SortOrder     int32                 `json:"sort_order"`
	Options       []addonOptionResponse `json:"options"`
}

func toAddonOptionResponse(o database.AddonOption) addonOptionResponse {
	resp := addonOptionResponse{
		ID:          o.ID,
		Name:        o.Name,
		Price:       formatNumeric(o.Price),
		IsAvailable: o.IsAvailable,
		SortOrder:   o.SortOrder,
	}
	if o.TierBaseQuantity.Valid {
		bq := o.TierBaseQuantity.Int32
		resp.TierBaseQuantity = &bq
		ap := formatNumeric(o.TierAdditionalPrice)
		resp.TierAdditionalPrice = &ap
	}
	return resp
}

func toAddonGroupResponse(g database.AddonGroup, options []database.AddonOption) addonGroupResponse {
	resp := addonGroupResponse{
		ID:            g.ID,
		MenuItemID:    g.MenuItemID,
		Name:          g.Name,
		GroupType:     g.GroupType,
		Category:      g.Category,
		Required:      g.Required,
		MinSelections: g.MinSelections,
		MaxSelections: g.MaxSelections,
		SortOrder:     g.SortOrder,
		Options:       make([]addonOptionResponse, 0, len(options)),
	}
	for _, o := range options {
		resp.Options = append(resp.Options, toAddonOptionResponse(o))
	}
	return resp
}

// --- Helpers ---

func isValidGroupType(s string) bool {
	return s == enum.AddonGroupTypeSingle || s == enum.AddonGroupTypeMultiple
}

func isValidAddonCategory(s string) bool {
	switch s {
	case enum.AddonCategorySize, enum.AddonCategoryExtra, enum.AddonCategorySauce,
		enum.AddonCategorySides, enum.AddonCategoryDrink, enum.AddonCategoryDessert:
		return true
	}
	return false
}

// validateGroupRequest checks the cardinality rules an editor may submit.
// SINGLE groups always end up with max_selections = 1, and a required SINGLE
// group needs min_selections >= 1 so the validator can enforce it.
func validateGroupRequest(req *addonGroupRequest) string {
	if req.Name == "" {
		return "name is required"
	}
	if !isValidGroupType(req.GroupType) {
		return "invalid group_type"
	}
	if !isValidAddonCategory(req.Category) {
		return "invalid category"
	}
	if req.MinSelections < 0 || req.MaxSelections < 0 {
		return "min_selections and max_selections must be >= 0"
	}
	if req.GroupType == enum.AddonGroupTypeSingle {
		req.MaxSelections = 1
		if req.Required && req.MinSelections < 1 {
			req.MinSelections = 1
		}
		if req.MinSelections > 1 {
			return "min_selections cannot exceed 1 for a SINGLE group"
		}
	} else if req.MaxSelections > 0 && req.MinSelections > req.MaxSelections {
		return "min_selections cannot exceed max_selections"
	}
	return ""
}

func (h *AddonHandler) menuItemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return uuid.Nil, false
	}
	menuItemID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return uuid.Nil, false
	}

	// Addon groups hang off the menu item, so tenant scoping happens here.
	if _, err := h.store.GetMenuItem(r.Context(), database.GetMenuItemParams{ID: menuItemID, TenantID: tenantID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return uuid.Nil, false
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return uuid.Nil, false
	}
	return menuItemID, true
}

// --- Group handlers ---

// ListGroups returns all active addon groups with their options.
func (h *AddonHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	menuItemID, ok := h.menuItemID(w, r)
	if !ok {
		return
	}

	groups, err := h.store.ListAddonGroupsByMenuItem(r.Context(), menuItemID)
	if err != nil {
		log.Printf("ERROR: list addon groups: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]addonGroupResponse, 0, len(groups))
	for _, g := range groups {
		options, err := h.store.ListAddonOptionsByGroup(r.Context(), g.ID)
		if err != nil {
			log.Printf("ERROR: list addon options: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp = append(resp, toAddonGroupResponse(g, options))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateGroup adds a new addon group to the menu item.
func (h *AddonHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	menuItemID, ok := h.menuItemID(w, r)
	if !ok {
		return
	}

	var req addonGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if msg := validateGroupRequest(&req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	group, err := h.store.CreateAddonGroup(r.Context(), database.CreateAddonGroupParams{
		MenuItemID:    menuItemID,
		Name:          req.Name,
		GroupType:     req.GroupType,
		Category:      req.Category,
		Required:      req.Required,
		MinSelections: req.MinSelections,
		MaxSelections: req.MaxSelections,
		SortOrder:     req.SortOrder,
	})
	if err != nil {
		log.Printf("ERROR: create addon group: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toAddonGroupResponse(group, nil))
}

// UpdateGroup modifies an existing addon group.
func (h *AddonHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	menuItemID, ok := h.menuItemID(w, r)
	if !ok {
		return
	}
	groupID, err := uuid.Parse(chi.URLParam(r, "gid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
		return
	}

	var req addonGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if msg := validateGroupRequest(&req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	group, err := h.store.UpdateAddonGroup(r.Context(), database.UpdateAddonGroupParams{
		ID:            groupID,
		MenuItemID:    menuItemID,
		Name:          req.Name,
		GroupType:     req.GroupType,
		Category:      req.Category,
		Required:      req.Required,
		MinSelections: req.MinSelections,
		MaxSelections: req.MaxSelections,
		SortOrder:     req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "addon group not found"})
			return
		}
		log.Printf("ERROR: update addon group: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	options, err := h.store.ListAddonOptionsByGroup(r.Context(), group.ID)
	if err != nil {
		log.Printf("ERROR: list addon options: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toAddonGroupResponse(group, options))
}

// DeleteGroup soft-deletes an addon group by setting is_active=false.
func (h *AddonHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	menuItemID, ok := h.menuItemID(w, r)
	if !ok {
		return
	}
	groupID, err := uuid.Parse(chi.URLParam(r, "gid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
		return
	}

	if _, err := h.store.SoftDeleteAddonGroup(r.Context(), database.SoftDeleteAddonGroupParams{
		ID:         groupID,
		MenuItemID: menuItemID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "addon group not found"})
			return
		}
		log.Printf("ERROR: delete addon group: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Option handlers ---

// optionParams validates the option payload shared by create and update.
func optionParams(req addonOptionRequest) (price pgtype.Numeric, tierQty pgtype.Int4, tierPrice pgtype.Numeric, errMsg string) {
	if req.Name == "" {
		return price, tierQty, tierPrice, "name is required"
	}
	if req.Price == "" {
		return price, tierQty, tierPrice, "price is required"
	}
	p, err := parsePrice(req.Price)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			return price, tierQty, tierPrice, "price must be >= 0"
		}
		return price, tierQty, tierPrice, "invalid price"
	}
	price = p

	// Tier config is all-or-nothing.
	if (req.TierBaseQuantity == nil) != (req.TierAdditionalPrice == nil) {
		return price, tierQty, tierPrice, "tier_base_quantity and tier_additional_price must be set together"
	}
	if req.TierBaseQuantity != nil {
		if *req.TierBaseQuantity <= 0 {
			return price, tierQty, tierPrice, "tier_base_quantity must be > 0"
		}
		tp, err := parsePrice(*req.TierAdditionalPrice)
		if err != nil {
			if errors.Is(err, errNegativePrice) {
				return price, tierQty, tierPrice, "tier_additional_price must be >= 0"
			}
			return price, tierQty, tierPrice, "invalid tier_additional_price"
		}
		tierQty = pgtype.Int4{Int32: *req.TierBaseQuantity, Valid: true}
		tierPrice = tp
	}
	return price, tierQty, tierPrice, ""
}

// CreateOption adds an option to an addon group.
func (h *AddonHandler) CreateOption(w http.ResponseWriter, r *http.Request) {
	menuItemID, ok := h.menuItemID(w, r)
	if !ok {
		return
	}
	groupID, err := uuid.Parse(chi.URLParam(r, "gid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
		return
	}
	if _, err := h.store.GetAddonGroup(r.Context(), database.GetAddonGroupParams{ID: groupID, MenuItemID: menuItemID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "addon group not found"})
			return
		}
		log.Printf("ERROR: get addon group: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var req addonOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	price, tierQty, tierPrice, msg := optionParams(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	option, err := h.store.CreateAddonOption(r.Context(), database.CreateAddonOptionParams{
		AddonGroupID:        groupID,
		Name:                req.Name,
		Price:               price,
		IsAvailable:         available,
		TierBaseQuantity:    tierQty,
		TierAdditionalPrice: tierPrice,
		SortOrder:           req.SortOrder,
	})
	if err != nil {
		log.Printf("ERROR: create addon option: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toAddonOptionResponse(option))
}

// UpdateOption modifies an option within an addon group.
func (h *AddonHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.menuItemID(w, r); !ok {
		return
	}
	groupID, err := uuid.Parse(chi.URLParam(r, "gid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
		return
	}
	optionID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid option ID"})
		return
	}

	var req addonOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	price, tierQty, tierPrice, msg := optionParams(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	option, err := h.store.UpdateAddonOption(r.Context(), database.UpdateAddonOptionParams{
		ID:                  optionID,
		AddonGroupID:        groupID,
		Name:                req.Name,
		Price:               price,
		IsAvailable:         available,
		TierBaseQuantity:    tierQty,
		TierAdditionalPrice: tierPrice,
		SortOrder:           req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "addon option not found"})
			return
		}
		log.Printf("ERROR: update addon option: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toAddonOptionResponse(option))
}

// DeleteOption soft-deletes an option by setting is_active=false.
func (h *AddonHandler) DeleteOption(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.menuItemID(w, r); !ok {
		return
	}
	groupID, err := uuid.Parse(chi.URLParam(r, "gid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
		return
	}
	optionID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid option ID"})
		return
	}

	if _, err := h.store.SoftDeleteAddonOption(r.Context(), database.SoftDeleteAddonOptionParams{
		ID:           optionID,
		AddonGroupID: groupID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "addon option not found"})
			return
		}
		log.Printf("ERROR: delete addon option: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// formatNumeric renders a pgtype.Numeric as a 2-decimal money string.
func formatNumeric(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

var errNegativePrice = errors.New("negative price")

func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativePrice
	}
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}
