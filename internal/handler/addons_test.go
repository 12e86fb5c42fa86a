package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/orderdeck/api/internal/database"
	"github.com/orderdeck/api/internal/enum"
	"github.com/orderdeck/api/internal/handler"
)

// --- Mock store ---

type mockAddonStore struct {
	menuItems map[uuid.UUID]database.MenuItem
	groups    map[uuid.UUID]database.AddonGroup
	options   map[uuid.UUID]database.AddonOption
}

func newMockAddonStore() *mockAddonStore {
	return &mockAddonStore{
		menuItems: make(map[uuid.UUID]database.MenuItem),
		groups:    make(map[uuid.UUID]database.AddonGroup),
		options:   make(map[uuid.UUID]database.AddonOption),
	}
}

func (m *mockAddonStore) GetMenuItem(_ context.Context, arg database.GetMenuItemParams) (database.MenuItem, error) {
	it, ok := m.menuItems[arg.ID]
	if !ok || it.TenantID != arg.TenantID || !it.IsActive {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *mockAddonStore) ListAddonGroupsByMenuItem(_ context.Context, menuItemID uuid.UUID) ([]database.AddonGroup, error) {
	var result []database.AddonGroup
	for _, g := range m.groups {
		if g.MenuItemID == menuItemID && g.IsActive {
			result = append(result, g)
		}
	}
	return result, nil
}

func (m *mockAddonStore) GetAddonGroup(_ context.Context, arg database.GetAddonGroupParams) (database.AddonGroup, error) {
	g, ok := m.groups[arg.ID]
	if !ok || g.MenuItemID != arg.MenuItemID || !g.IsActive {
		return database.AddonGroup{}, pgx.ErrNoRows
	}
	return g, nil
}

func (m *mockAddonStore) CreateAddonGroup(_ context.Context, arg database.CreateAddonGroupParams) (database.AddonGroup, error) {
	g := database.AddonGroup{
		ID:            uuid.New(),
		MenuItemID:    arg.MenuItemID,
		Name:          arg.Name,
		GroupType:     arg.GroupType,
		Category:      arg.Category,
		Required:      arg.Required,
		MinSelections: arg.MinSelections,
		MaxSelections: arg.MaxSelections,
		SortOrder:     arg.SortOrder,
		IsActive:      true,
	}
	m.groups[g.ID] = g
	return g, nil
}

func (m *mockAddonStore) UpdateAddonGroup(_ context.Context, arg database.UpdateAddonGroupParams) (database.AddonGroup, error) {
	g, ok := m.groups[arg.ID]
	if !ok || g.MenuItemID != arg.MenuItemID || !g.IsActive {
		return database.AddonGroup{}, pgx.ErrNoRows
	}
	g.Name = arg.Name
	g.GroupType = arg.GroupType
	g.Category = arg.Category
	g.Required = arg.Required
	g.MinSelections = arg.MinSelections
	g.MaxSelections = arg.MaxSelections
	g.SortOrder = arg.SortOrder
	m.groups[g.ID] = g
	return g, nil
}

func (m *mockAddonStore) SoftDeleteAddonGroup(_ context.Context, arg database.SoftDeleteAddonGroupParams) (uuid.UUID, error) {
	g, ok := m.groups[arg.ID]
	if !ok || g.MenuItemID != arg.MenuItemID || !g.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	g.IsActive = false
	m.groups[g.ID] = g
	return g.ID, nil
}

func (m *mockAddonStore) ListAddonOptionsByGroup(_ context.Context, addonGroupID uuid.UUID) ([]database.AddonOption, error) {
	var result []database.AddonOption
	for _, o := range m.options {
		if o.AddonGroupID == addonGroupID && o.IsActive {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *mockAddonStore) CreateAddonOption(_ context.Context, arg database.CreateAddonOptionParams) (database.AddonOption, error) {
	o := database.AddonOption{
		ID:                  uuid.New(),
		AddonGroupID:        arg.AddonGroupID,
		Name:                arg.Name,
		Price:               arg.Price,
		IsAvailable:         arg.IsAvailable,
		TierBaseQuantity:    arg.TierBaseQuantity,
		TierAdditionalPrice: arg.TierAdditionalPrice,
		SortOrder:           arg.SortOrder,
		IsActive:            true,
	}
	m.options[o.ID] = o
	return o, nil
}

func (m *mockAddonStore) UpdateAddonOption(_ context.Context, arg database.UpdateAddonOptionParams) (database.AddonOption, error) {
	o, ok := m.options[arg.ID]
	if !ok || o.AddonGroupID != arg.AddonGroupID || !o.IsActive {
		return database.AddonOption{}, pgx.ErrNoRows
	}
	o.Name = arg.Name
	o.Price = arg.Price
	o.IsAvailable = arg.IsAvailable
	o.TierBaseQuantity = arg.TierBaseQuantity
	o.TierAdditionalPrice = arg.TierAdditionalPrice
	o.SortOrder = arg.SortOrder
	m.options[o.ID] = o
	return o, nil
}

func (m *mockAddonStore) SoftDeleteAddonOption(_ context.Context, arg database.SoftDeleteAddonOptionParams) (uuid.UUID, error) {
	o, ok := m.options[arg.ID]
	if !ok || o.AddonGroupID != arg.AddonGroupID || !o.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	o.IsActive = false
	m.options[o.ID] = o
	return o.ID, nil
}

// --- Helpers ---

func setupAddonRouter(store *mockAddonStore) *chi.Mux {
	h := handler.NewAddonHandler(store)
	r := chi.NewRouter()
	r.Route("/tenants/{tid}/menu/{mid}/addon-groups", h.RegisterRoutes)
	return r
}

func seedAddonMenuItem(store *mockAddonStore, tenantID uuid.UUID) uuid.UUID {
	id := uuid.New()
	now := time.Now()
	store.menuItems[id] = database.MenuItem{
		ID: id, TenantID: tenantID, Name: "Margherita",
		BasePrice: testNumeric("9.50"), IsAvailable: true, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}
	return id
}

func seedAddonGroup(store *mockAddonStore, menuItemID uuid.UUID, groupType string) uuid.UUID {
	id := uuid.New()
	store.groups[id] = database.AddonGroup{
		ID: id, MenuItemID: menuItemID, Name: "Size",
		GroupType: groupType, Category: enum.AddonCategorySize,
		Required: true, MinSelections: 1, MaxSelections: 1, IsActive: true,
	}
	return id
}

func addonBase(tenantID uuid.UUID, menuItemID uuid.UUID) string {
	return "/tenants/" + tenantID.String() + "/menu/" + menuItemID.String() + "/addon-groups"
}

// --- Group tests ---

func TestAddonGroupList_IncludesOptions(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)
	groupID := seedAddonGroup(store, menuItemID, enum.AddonGroupTypeSingle)

	optID := uuid.New()
	store.options[optID] = database.AddonOption{
		ID: optID, AddonGroupID: groupID, Name: "Large",
		Price: testNumeric("2.50"), IsAvailable: true, IsActive: true,
	}

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "GET", addonBase(tenantID, menuItemID), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 group, got %d", len(resp))
	}
	options, ok := resp[0]["options"].([]interface{})
	if !ok || len(options) != 1 {
		t.Fatalf("expected 1 option in group, got %v", resp[0]["options"])
	}
	opt := options[0].(map[string]interface{})
	if opt["name"] != "Large" {
		t.Errorf("option name: got %v, want 'Large'", opt["name"])
	}
	if opt["price"] != "2.50" {
		t.Errorf("option price: got %v, want '2.50'", opt["price"])
	}
}

func TestAddonGroupList_MenuItemNotFound(t *testing.T) {
	store := newMockAddonStore()
	router := setupAddonRouter(store)
	tenantID := uuid.New()

	rr := doRequest(t, router, "GET", addonBase(tenantID, uuid.New()), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestAddonGroupList_WrongTenant(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "GET", addonBase(uuid.New(), menuItemID), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestAddonGroupCreate_Valid(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "POST", addonBase(tenantID, menuItemID), map[string]interface{}{
		"name":           "Extras",
		"group_type":     "MULTIPLE",
		"category":       "EXTRA",
		"min_selections": 0,
		"max_selections": 4,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["name"] != "Extras" {
		t.Errorf("name: got %v, want 'Extras'", resp["name"])
	}
	if resp["group_type"] != "MULTIPLE" {
		t.Errorf("group_type: got %v, want 'MULTIPLE'", resp["group_type"])
	}
	if resp["max_selections"] != float64(4) {
		t.Errorf("max_selections: got %v, want 4", resp["max_selections"])
	}
}

func TestAddonGroupCreate_SingleForcesMaxOne(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "POST", addonBase(tenantID, menuItemID), map[string]interface{}{
		"name":           "Size",
		"group_type":     "SINGLE",
		"category":       "SIZE",
		"required":       true,
		"max_selections": 5,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["max_selections"] != float64(1) {
		t.Errorf("max_selections: got %v, want 1", resp["max_selections"])
	}
	// required SINGLE implies at least one selection
	if resp["min_selections"] != float64(1) {
		t.Errorf("min_selections: got %v, want 1", resp["min_selections"])
	}
}

func TestAddonGroupCreate_InvalidGroupType(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "POST", addonBase(tenantID, menuItemID), map[string]interface{}{
		"name":       "Size",
		"group_type": "TRIPLE",
		"category":   "SIZE",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["error"] != "invalid group_type" {
		t.Errorf("error: got %v, want 'invalid group_type'", resp["error"])
	}
}

func TestAddonGroupCreate_InvalidCategory(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "POST", addonBase(tenantID, menuItemID), map[string]interface{}{
		"name":       "Size",
		"group_type": "SINGLE",
		"category":   "TOPPINGS",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	resp := decodeObjectResponse(t, rr)
	if resp["error"] != "invalid category" {
		t.Errorf("error: got %v, want 'invalid category'", resp["error"])
	}
}

func TestAddonGroupCreate_MinExceedsMax(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "POST", addonBase(tenantID, menuItemID), map[string]interface{}{
		"name":           "Extras",
		"group_type":     "MULTIPLE",
		"category":       "EXTRA",
		"min_selections": 3,
		"max_selections": 2,
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	resp := decodeObjectResponse(t, rr)
	if resp["error"] != "min_selections cannot exceed max_selections" {
		t.Errorf("error: got %v, want 'min_selections cannot exceed max_selections'", resp["error"])
	}
}

func TestAddonGroupUpdate_NotFound(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "PUT", addonBase(tenantID, menuItemID)+"/"+uuid.New().String(), map[string]interface{}{
		"name":       "Size",
		"group_type": "SINGLE",
		"category":   "SIZE",
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestAddonGroupDelete_Valid(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)
	groupID := seedAddonGroup(store, menuItemID, enum.AddonGroupTypeSingle)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "DELETE", addonBase(tenantID, menuItemID)+"/"+groupID.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	if store.groups[groupID].IsActive {
		t.Error("expected addon group to be soft-deleted (is_active=false)")
	}
}

// --- Option tests ---

func TestAddonOptionCreate_Valid(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)
	groupID := seedAddonGroup(store, menuItemID, enum.AddonGroupTypeSingle)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "POST", addonBase(tenantID, menuItemID)+"/"+groupID.String()+"/options", map[string]interface{}{
		"name":  "Large",
		"price": "2.50",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["name"] != "Large" {
		t.Errorf("name: got %v, want 'Large'", resp["name"])
	}
	if resp["price"] != "2.50" {
		t.Errorf("price: got %v, want '2.50'", resp["price"])
	}
	if resp["tier_base_quantity"] != nil {
		t.Errorf("tier_base_quantity: expected null, got %v", resp["tier_base_quantity"])
	}
}

func TestAddonOptionCreate_WithTierPricing(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)
	groupID := seedAddonGroup(store, menuItemID, enum.AddonGroupTypeMultiple)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "POST", addonBase(tenantID, menuItemID)+"/"+groupID.String()+"/options", map[string]interface{}{
		"name":                  "Extra Cheese",
		"price":                 "1.00",
		"tier_base_quantity":    2,
		"tier_additional_price": "0.50",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["tier_base_quantity"] != float64(2) {
		t.Errorf("tier_base_quantity: got %v, want 2", resp["tier_base_quantity"])
	}
	if resp["tier_additional_price"] != "0.50" {
		t.Errorf("tier_additional_price: got %v, want '0.50'", resp["tier_additional_price"])
	}
}

func TestAddonOptionCreate_TierFieldsMustPair(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)
	groupID := seedAddonGroup(store, menuItemID, enum.AddonGroupTypeMultiple)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "POST", addonBase(tenantID, menuItemID)+"/"+groupID.String()+"/options", map[string]interface{}{
		"name":               "Extra Cheese",
		"price":              "1.00",
		"tier_base_quantity": 2,
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["error"] != "tier_base_quantity and tier_additional_price must be set together" {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestAddonOptionCreate_ZeroTierQuantity(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)
	groupID := seedAddonGroup(store, menuItemID, enum.AddonGroupTypeMultiple)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "POST", addonBase(tenantID, menuItemID)+"/"+groupID.String()+"/options", map[string]interface{}{
		"name":                  "Extra Cheese",
		"price":                 "1.00",
		"tier_base_quantity":    0,
		"tier_additional_price": "0.50",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	resp := decodeObjectResponse(t, rr)
	if resp["error"] != "tier_base_quantity must be > 0" {
		t.Errorf("error: got %v, want 'tier_base_quantity must be > 0'", resp["error"])
	}
}

func TestAddonOptionCreate_NegativePrice(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)
	groupID := seedAddonGroup(store, menuItemID, enum.AddonGroupTypeSingle)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "POST", addonBase(tenantID, menuItemID)+"/"+groupID.String()+"/options", map[string]interface{}{
		"name":  "Large",
		"price": "-2.50",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	resp := decodeObjectResponse(t, rr)
	if resp["error"] != "price must be >= 0" {
		t.Errorf("error: got %v, want 'price must be >= 0'", resp["error"])
	}
}

func TestAddonOptionCreate_GroupNotFound(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "POST", addonBase(tenantID, menuItemID)+"/"+uuid.New().String()+"/options", map[string]interface{}{
		"name":  "Large",
		"price": "2.50",
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestAddonOptionUpdate_Valid(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)
	groupID := seedAddonGroup(store, menuItemID, enum.AddonGroupTypeSingle)

	optID := uuid.New()
	store.options[optID] = database.AddonOption{
		ID: optID, AddonGroupID: groupID, Name: "Large",
		Price: testNumeric("2.50"), IsAvailable: true, IsActive: true,
	}

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "PUT", addonBase(tenantID, menuItemID)+"/"+groupID.String()+"/options/"+optID.String(), map[string]interface{}{
		"name":         "Extra Large",
		"price":        "3.50",
		"is_available": false,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["name"] != "Extra Large" {
		t.Errorf("name: got %v, want 'Extra Large'", resp["name"])
	}
	if resp["price"] != "3.50" {
		t.Errorf("price: got %v, want '3.50'", resp["price"])
	}
	if resp["is_available"] != false {
		t.Errorf("is_available: got %v, want false", resp["is_available"])
	}
}

func TestAddonOptionUpdate_NotFound(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)
	groupID := seedAddonGroup(store, menuItemID, enum.AddonGroupTypeSingle)

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "PUT", addonBase(tenantID, menuItemID)+"/"+groupID.String()+"/options/"+uuid.New().String(), map[string]interface{}{
		"name":  "Large",
		"price": "2.50",
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestAddonOptionDelete_Valid(t *testing.T) {
	store := newMockAddonStore()
	tenantID := uuid.New()
	menuItemID := seedAddonMenuItem(store, tenantID)
	groupID := seedAddonGroup(store, menuItemID, enum.AddonGroupTypeSingle)

	optID := uuid.New()
	store.options[optID] = database.AddonOption{
		ID: optID, AddonGroupID: groupID, Name: "Large",
		Price: testNumeric("2.50"), IsAvailable: true, IsActive: true,
	}

	router := setupAddonRouter(store)
	rr := doRequest(t, router, "DELETE", addonBase(tenantID, menuItemID)+"/"+groupID.String()+"/options/"+optID.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	if store.options[optID].IsActive {
		t.Error("expected addon option to be soft-deleted (is_active=false)")
	}
}
