package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/orderdeck/api/internal/database"
	"github.com/orderdeck/api/internal/handler"
)

// --- Mock store ---

type mockZoneStore struct {
	zones map[uuid.UUID]database.DeliveryZone
}

func newMockZoneStore() *mockZoneStore {
	return &mockZoneStore{zones: make(map[uuid.UUID]database.DeliveryZone)}
}

func (m *mockZoneStore) ListZonesByTenant(_ context.Context, tenantID uuid.UUID) ([]database.DeliveryZone, error) {
	var result []database.DeliveryZone
	for _, z := range m.zones {
		if z.TenantID == tenantID && z.IsActive {
			result = append(result, z)
		}
	}
	return result, nil
}

func (m *mockZoneStore) GetZone(_ context.Context, arg database.GetZoneParams) (database.DeliveryZone, error) {
	z, ok := m.zones[arg.ID]
	if !ok || z.TenantID != arg.TenantID || !z.IsActive {
		return database.DeliveryZone{}, pgx.ErrNoRows
	}
	return z, nil
}

func (m *mockZoneStore) CreateZone(_ context.Context, arg database.CreateZoneParams) (database.DeliveryZone, error) {
	z := database.DeliveryZone{
		ID:               uuid.New(),
		TenantID:         arg.TenantID,
		Name:             arg.Name,
		PostcodePrefixes: arg.PostcodePrefixes,
		DeliveryFee:      arg.DeliveryFee,
		MinOrderAmount:   arg.MinOrderAmount,
		IsActive:         true,
	}
	m.zones[z.ID] = z
	return z, nil
}

func (m *mockZoneStore) UpdateZone(_ context.Context, arg database.UpdateZoneParams) (database.DeliveryZone, error) {
	z, ok := m.zones[arg.ID]
	if !ok || z.TenantID != arg.TenantID || !z.IsActive {
		return database.DeliveryZone{}, pgx.ErrNoRows
	}
	z.Name = arg.Name
	z.PostcodePrefixes = arg.PostcodePrefixes
	z.DeliveryFee = arg.DeliveryFee
	z.MinOrderAmount = arg.MinOrderAmount
	m.zones[z.ID] = z
	return z, nil
}

func (m *mockZoneStore) SoftDeleteZone(_ context.Context, arg database.SoftDeleteZoneParams) (uuid.UUID, error) {
	z, ok := m.zones[arg.ID]
	if !ok || z.TenantID != arg.TenantID || !z.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	z.IsActive = false
	m.zones[z.ID] = z
	return z.ID, nil
}

// --- Helpers ---

func setupZoneRouter(store *mockZoneStore) *chi.Mux {
	h := handler.NewZoneHandler(store)
	r := chi.NewRouter()
	r.Route("/tenants/{tid}/zones", h.RegisterRoutes)
	return r
}

func seedZone(store *mockZoneStore, tenantID uuid.UUID, name string, prefixes []string, fee string) uuid.UUID {
	id := uuid.New()
	store.zones[id] = database.DeliveryZone{
		ID: id, TenantID: tenantID, Name: name,
		PostcodePrefixes: prefixes,
		DeliveryFee:      testNumeric(fee),
		IsActive:         true,
	}
	return id
}

// --- CRUD tests ---

func TestZoneCreate_Valid(t *testing.T) {
	store := newMockZoneStore()
	router := setupZoneRouter(store)
	tenantID := uuid.New()

	rr := doRequest(t, router, "POST", "/tenants/"+tenantID.String()+"/zones", map[string]interface{}{
		"name":              "Central",
		"postcode_prefixes": []string{"se15", " Se14 "},
		"delivery_fee":      "2.50",
		"min_order_amount":  "10.00",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["name"] != "Central" {
		t.Errorf("name: got %v, want 'Central'", resp["name"])
	}
	// Prefixes are normalized to uppercase with whitespace stripped
	prefixes, _ := resp["postcode_prefixes"].([]interface{})
	if len(prefixes) != 2 || prefixes[0] != "SE15" || prefixes[1] != "SE14" {
		t.Errorf("postcode_prefixes: got %v, want [SE15 SE14]", resp["postcode_prefixes"])
	}
	if resp["delivery_fee"] != "2.50" {
		t.Errorf("delivery_fee: got %v, want '2.50'", resp["delivery_fee"])
	}
	if resp["min_order_amount"] != "10.00" {
		t.Errorf("min_order_amount: got %v, want '10.00'", resp["min_order_amount"])
	}
}

func TestZoneCreate_NoMinOrder(t *testing.T) {
	store := newMockZoneStore()
	router := setupZoneRouter(store)
	tenantID := uuid.New()

	rr := doRequest(t, router, "POST", "/tenants/"+tenantID.String()+"/zones", map[string]interface{}{
		"name":              "Outer",
		"postcode_prefixes": []string{"SE16"},
		"delivery_fee":      "4.00",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["min_order_amount"] != nil {
		t.Errorf("min_order_amount: expected null, got %v", resp["min_order_amount"])
	}
}

func TestZoneCreate_MissingPrefixes(t *testing.T) {
	store := newMockZoneStore()
	router := setupZoneRouter(store)
	tenantID := uuid.New()

	rr := doRequest(t, router, "POST", "/tenants/"+tenantID.String()+"/zones", map[string]interface{}{
		"name":         "Central",
		"delivery_fee": "2.50",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["error"] != "postcode_prefixes is required" {
		t.Errorf("error: got %v, want 'postcode_prefixes is required'", resp["error"])
	}
}

func TestZoneCreate_EmptyPrefixEntry(t *testing.T) {
	store := newMockZoneStore()
	router := setupZoneRouter(store)
	tenantID := uuid.New()

	rr := doRequest(t, router, "POST", "/tenants/"+tenantID.String()+"/zones", map[string]interface{}{
		"name":              "Central",
		"postcode_prefixes": []string{"SE15", "   "},
		"delivery_fee":      "2.50",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	resp := decodeObjectResponse(t, rr)
	if resp["error"] != "postcode_prefixes must not contain empty entries" {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestZoneCreate_NegativeFee(t *testing.T) {
	store := newMockZoneStore()
	router := setupZoneRouter(store)
	tenantID := uuid.New()

	rr := doRequest(t, router, "POST", "/tenants/"+tenantID.String()+"/zones", map[string]interface{}{
		"name":              "Central",
		"postcode_prefixes": []string{"SE15"},
		"delivery_fee":      "-1",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	resp := decodeObjectResponse(t, rr)
	if resp["error"] != "delivery_fee must be >= 0" {
		t.Errorf("error: got %v, want 'delivery_fee must be >= 0'", resp["error"])
	}
}

func TestZoneUpdate_NotFound(t *testing.T) {
	store := newMockZoneStore()
	router := setupZoneRouter(store)
	tenantID := uuid.New()

	rr := doRequest(t, router, "PUT", "/tenants/"+tenantID.String()+"/zones/"+uuid.New().String(), map[string]interface{}{
		"name":              "Central",
		"postcode_prefixes": []string{"SE15"},
		"delivery_fee":      "2.50",
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestZoneDelete_Valid(t *testing.T) {
	store := newMockZoneStore()
	tenantID := uuid.New()
	zoneID := seedZone(store, tenantID, "Central", []string{"SE15"}, "2.50")

	router := setupZoneRouter(store)
	rr := doRequest(t, router, "DELETE", "/tenants/"+tenantID.String()+"/zones/"+zoneID.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	if store.zones[zoneID].IsActive {
		t.Error("expected zone to be soft-deleted (is_active=false)")
	}
}

// --- Lookup tests ---

func TestZoneLookup_Match(t *testing.T) {
	store := newMockZoneStore()
	tenantID := uuid.New()
	seedZone(store, tenantID, "Central", []string{"SE15", "SE14"}, "2.50")

	router := setupZoneRouter(store)
	rr := doRequest(t, router, "GET", "/tenants/"+tenantID.String()+"/zones/lookup?postcode=se15+6aa", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["name"] != "Central" {
		t.Errorf("name: got %v, want 'Central'", resp["name"])
	}
}

func TestZoneLookup_LongestPrefixWins(t *testing.T) {
	store := newMockZoneStore()
	tenantID := uuid.New()
	seedZone(store, tenantID, "Wide", []string{"SE"}, "4.00")
	seedZone(store, tenantID, "Narrow", []string{"SE15"}, "2.50")

	router := setupZoneRouter(store)
	rr := doRequest(t, router, "GET", "/tenants/"+tenantID.String()+"/zones/lookup?postcode=SE15+6AA", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["name"] != "Narrow" {
		t.Errorf("name: got %v, want 'Narrow' (longest prefix)", resp["name"])
	}
}

func TestZoneLookup_NoMatch(t *testing.T) {
	store := newMockZoneStore()
	tenantID := uuid.New()
	seedZone(store, tenantID, "Central", []string{"SE15"}, "2.50")

	router := setupZoneRouter(store)
	rr := doRequest(t, router, "GET", "/tenants/"+tenantID.String()+"/zones/lookup?postcode=N1+9GU", nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusNotFound, rr.Body.String())
	}

	resp := decodeObjectResponse(t, rr)
	if resp["error"] != "no delivery zone covers this postcode" {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestZoneLookup_MissingPostcode(t *testing.T) {
	store := newMockZoneStore()
	router := setupZoneRouter(store)
	tenantID := uuid.New()

	rr := doRequest(t, router, "GET", "/tenants/"+tenantID.String()+"/zones/lookup", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestZoneLookup_OtherTenantZonesIgnored(t *testing.T) {
	store := newMockZoneStore()
	tenantID := uuid.New()
	otherTenantID := uuid.New()
	seedZone(store, otherTenantID, "Elsewhere", []string{"SE15"}, "2.50")

	router := setupZoneRouter(store)
	rr := doRequest(t, router, "GET", "/tenants/"+tenantID.String()+"/zones/lookup?postcode=SE15+6AA", nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
