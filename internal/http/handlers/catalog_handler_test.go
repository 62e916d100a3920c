package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/repo"
	"github.com/tbourn/go-store-backend/internal/services"
)

func TestListDevices_PaginationDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeCatalogSvc{devices: []domain.Device{{DeviceID: 1}}, total: 20}
	h := newTestHandlers(svc, nil, nil, nil, nil)
	r := gin.New()
	r.GET("/devices", h.ListDevices)

	// No params: page 1, storefront grid size.
	w := doJSON(t, r, http.MethodGet, "/devices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.lastPage != 1 || svc.lastSize != 9 {
		t.Fatalf("defaults not applied: page=%d size=%d", svc.lastPage, svc.lastSize)
	}

	var resp ListDevicesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	// 20 rows at size 9 -> 3 pages, next exists from page 1.
	if resp.Pagination.TotalPages != 3 || !resp.Pagination.HasNext {
		t.Fatalf("unexpected pagination: %+v", resp.Pagination)
	}

	// Bogus params are clamped, size capped at 100.
	_ = doJSON(t, r, http.MethodGet, "/devices?page=-2&page_size=5000", "")
	if svc.lastPage != 1 || svc.lastSize != 100 {
		t.Fatalf("clamping failed: page=%d size=%d", svc.lastPage, svc.lastSize)
	}
}

func TestGetDevice_OKNotFoundBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeCatalogSvc{device: &domain.Device{DeviceID: 42, DeviceName: "Cam"}}
	h := newTestHandlers(svc, nil, nil, nil, nil)
	r := gin.New()
	r.GET("/devices/:id", h.GetDevice)

	w := doJSON(t, r, http.MethodGet, "/devices/42", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	hNF := newTestHandlers(&fakeCatalogSvc{err: services.ErrDeviceNotFound}, nil, nil, nil, nil)
	rNF := gin.New()
	rNF.GET("/devices/:id", hNF.GetDevice)
	if w := doJSON(t, rNF, http.MethodGet, "/devices/42", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodGet, "/devices/zero", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}
}

func TestCategoryDevices_PriceValidationAndSlug(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeCatalogSvc{devices: []domain.Device{{DeviceID: 1}}}
	h := newTestHandlers(svc, nil, nil, nil, nil)
	r := gin.New()
	r.GET("/categories/:slug/devices", h.CategoryDevices)

	w := doJSON(t, r, http.MethodGet, "/categories/laptop/devices?min_price=100&brands=Acme,Zen", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if svc.lastSlug != "laptop" {
		t.Fatalf("slug forwarded as %q", svc.lastSlug)
	}
	var resp CategoryDevicesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("unexpected count: %+v", resp)
	}

	// Malformed price bound → 400 before any service call.
	if w := doJSON(t, r, http.MethodGet, "/categories/laptop/devices?min_price=cheap", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad price, got %d", w.Code)
	}

	// Unknown category surfaces as 400.
	hBad := newTestHandlers(&fakeCatalogSvc{err: services.ErrInvalidCategory}, nil, nil, nil, nil)
	rBad := gin.New()
	rBad.GET("/categories/:slug/devices", hBad.CategoryDevices)
	if w := doJSON(t, rBad, http.MethodGet, "/categories/toasters/devices", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", w.Code)
	}
}

func TestCategoryFacets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeCatalogSvc{
		brands: []repo.BrandCount{{Brand: "Acme", Count: 2}},
		pr: &repo.PriceRange{
			MinPrice: decimal.RequireFromString("99"),
			MaxPrice: decimal.RequireFromString("450"),
		},
	}
	h := newTestHandlers(svc, nil, nil, nil, nil)
	r := gin.New()
	r.GET("/categories/:slug/brands", h.CategoryBrands)
	r.GET("/categories/:slug/price-range", h.CategoryPriceRange)

	w := doJSON(t, r, http.MethodGet, "/categories/camera/brands", "")
	if w.Code != http.StatusOK {
		t.Fatalf("brands status = %d", w.Code)
	}
	var brands BrandCountsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &brands); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(brands.Brands) != 1 || brands.Brands[0].Count != 2 {
		t.Fatalf("unexpected brands: %+v", brands)
	}

	w = doJSON(t, r, http.MethodGet, "/categories/camera/price-range", "")
	if w.Code != http.StatusOK {
		t.Fatalf("price-range status = %d", w.Code)
	}
}

func Test_splitBrands_and_parsePrice(t *testing.T) {
	if got := splitBrands(" Acme, ,Zen "); len(got) != 2 || got[0] != "Acme" || got[1] != "Zen" {
		t.Fatalf("splitBrands: %#v", got)
	}
	if got := splitBrands(""); got != nil {
		t.Fatalf("splitBrands empty should be nil, got %#v", got)
	}

	if p, ok := parsePrice(""); !ok || p != nil {
		t.Fatalf("empty price should be (nil, true)")
	}
	if p, ok := parsePrice("12.50"); !ok || p == nil || !p.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("parsePrice 12.50 failed: %v %v", p, ok)
	}
	if _, ok := parsePrice("cheap"); ok {
		t.Fatalf("malformed price should fail")
	}
}
