package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/repo"
	"github.com/tbourn/go-store-backend/internal/services"
)

//
// Fakes
//

type fakeCartSvc struct {
	addErr      error
	removeErr   error
	clearErr    error
	purchaseErr error

	lastUser   string
	lastDevice int64
}

func (f *fakeCartSvc) AddToCart(_ context.Context, userID string, deviceID int64) error {
	f.lastUser, f.lastDevice = userID, deviceID
	return f.addErr
}
func (f *fakeCartSvc) RemoveCart(_ context.Context, userID string, deviceID int64) error {
	f.lastUser, f.lastDevice = userID, deviceID
	return f.removeErr
}
func (f *fakeCartSvc) ClearCart(_ context.Context, userID string) error {
	f.lastUser = userID
	return f.clearErr
}
func (f *fakeCartSvc) Purchase(_ context.Context, userID string) error {
	f.lastUser = userID
	return f.purchaseErr
}

type fakeUserSvc struct {
	user    *domain.User
	created bool
	summary *services.CartSummary
	err     error

	lastID, lastEmail, lastFirst, lastLast string
}

func (f *fakeUserSvc) Ensure(_ context.Context, id, email, first, last string) (*domain.User, bool, error) {
	f.lastID, f.lastEmail, f.lastFirst, f.lastLast = id, email, first, last
	return f.user, f.created, f.err
}
func (f *fakeUserSvc) Summary(_ context.Context, id string) (*services.CartSummary, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

type fakeStockSvc struct {
	results []services.StockUpdateResult
	err     error
	got     []services.StockUpdate
}

func (f *fakeStockSvc) Apply(_ context.Context, updates []services.StockUpdate) ([]services.StockUpdateResult, error) {
	f.got = updates
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeCatalogSvc struct {
	devices []domain.Device
	total   int64
	device  *domain.Device
	brands  []repo.BrandCount
	pr      *repo.PriceRange
	err     error

	lastPage, lastSize int
	lastSlug           string
	lastInput          services.DeviceInput
	lastImageURL       string
}

func (f *fakeCatalogSvc) ListDevices(_ context.Context, page, pageSize int, _ string) ([]domain.Device, int64, error) {
	f.lastPage, f.lastSize = page, pageSize
	return f.devices, f.total, f.err
}
func (f *fakeCatalogSvc) GetDevice(_ context.Context, _ int64) (*domain.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.device, nil
}
func (f *fakeCatalogSvc) FilterCategory(_ context.Context, slug string, _ services.FilterOptions) ([]domain.Device, error) {
	f.lastSlug = slug
	return f.devices, f.err
}
func (f *fakeCatalogSvc) BrandCounts(_ context.Context, slug string) ([]repo.BrandCount, error) {
	f.lastSlug = slug
	return f.brands, f.err
}
func (f *fakeCatalogSvc) PriceRange(_ context.Context, slug string) (*repo.PriceRange, error) {
	f.lastSlug = slug
	return f.pr, f.err
}
func (f *fakeCatalogSvc) UpsertDevice(_ context.Context, in services.DeviceInput) (*domain.Device, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return f.device, nil
}
func (f *fakeCatalogSvc) SetImage(_ context.Context, _ int64, url string) error {
	f.lastImageURL = url
	return f.err
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(_ context.Context, _, _ string, body io.Reader) (string, error) {
	_, _ = io.ReadAll(body)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newTestHandlers(catalog *fakeCatalogSvc, cart *fakeCartSvc, stock *fakeStockSvc, user *fakeUserSvc, images ImageUploader) *Handlers {
	if catalog == nil {
		catalog = &fakeCatalogSvc{}
	}
	if cart == nil {
		cart = &fakeCartSvc{}
	}
	if stock == nil {
		stock = &fakeStockSvc{}
	}
	if user == nil {
		user = &fakeUserSvc{}
	}
	return New(catalog, cart, stock, user, images, 9)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	return w
}

//
// userID fallback chain
//

func Test_userID_FallbackChain(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Context value wins.
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-User-ID", "header-user")
	c.Set("userID", "ctx-user")
	if got := userID(c); got != "ctx-user" {
		t.Fatalf("context user should win, got %q", got)
	}

	// Header next.
	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c2.Request.Header.Set("X-User-ID", "header-user")
	if got := userID(c2); got != "header-user" {
		t.Fatalf("header fallback failed, got %q", got)
	}

	// Demo default last.
	c3, _ := gin.CreateTestContext(httptest.NewRecorder())
	c3.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := userID(c3); got != "demo-user" {
		t.Fatalf("demo fallback failed, got %q", got)
	}
}

//
// Cart handlers
//

func TestAddCartItem_OKAndValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cart := &fakeCartSvc{}
	h := newTestHandlers(nil, cart, nil, nil, nil)
	r := gin.New()
	r.POST("/cart/items", h.AddCartItem)

	w := doJSON(t, r, http.MethodPost, "/cart/items", `{"device_id":42}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp CartMutationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !resp.Success || resp.Message != "Item added to cart" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if cart.lastUser != "u1" || cart.lastDevice != 42 {
		t.Fatalf("service called with %q/%d", cart.lastUser, cart.lastDevice)
	}

	// Missing / non-positive device_id.
	for _, body := range []string{`{}`, `{"device_id":0}`, `{"device_id":-3}`, `not json`} {
		if w := doJSON(t, r, http.MethodPost, "/cart/items", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestAddCartItem_UnknownUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(nil, &fakeCartSvc{addErr: services.ErrUserNotFound}, nil, nil, nil)
	r := gin.New()
	r.POST("/cart/items", h.AddCartItem)

	if w := doJSON(t, r, http.MethodPost, "/cart/items", `{"device_id":1}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRemoveCartItem_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Success echoes the removed device.
	h := newTestHandlers(nil, &fakeCartSvc{}, nil, nil, nil)
	r := gin.New()
	r.DELETE("/cart/items/:device_id", h.RemoveCartItem)

	w := doJSON(t, r, http.MethodDelete, "/cart/items/7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp CartMutationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RemovedID != 7 || resp.Message != "Item removed from cart" {
		t.Fatalf("unexpected body: %+v", resp)
	}

	// Absent item → 404 with the storefront message.
	h404 := newTestHandlers(nil, &fakeCartSvc{removeErr: services.ErrItemNotInCart}, nil, nil, nil)
	r404 := gin.New()
	r404.DELETE("/cart/items/:device_id", h404.RemoveCartItem)
	w = doJSON(t, r404, http.MethodDelete, "/cart/items/7", "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Item not found in cart") {
		t.Fatalf("expected 404 with message, got %d %s", w.Code, w.Body.String())
	}

	// Bad path param → 400.
	w = doJSON(t, r, http.MethodDelete, "/cart/items/abc", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}
}

func TestClearCartAndPurchase_Messages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(nil, &fakeCartSvc{}, nil, nil, nil)
	r := gin.New()
	r.DELETE("/cart", h.ClearCart)
	r.POST("/cart/purchase", h.Purchase)

	w := doJSON(t, r, http.MethodDelete, "/cart", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Cart Cleared") {
		t.Fatalf("clear: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/cart/purchase", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Purchase completed and cart cleared") {
		t.Fatalf("purchase: %d %s", w.Code, w.Body.String())
	}
}

func TestGetCart_Summary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := &fakeUserSvc{summary: &services.CartSummary{
		Items:      []services.CartItem{{Device: domain.Device{DeviceID: 5}, Count: 2}},
		TotalItems: 2,
	}}
	h := newTestHandlers(nil, nil, nil, user, nil)
	r := gin.New()
	r.GET("/cart", h.GetCart)

	w := doJSON(t, r, http.MethodGet, "/cart", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if user.lastID != "u1" {
		t.Fatalf("summary requested for %q", user.lastID)
	}
	var sum services.CartSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("json: %v", err)
	}
	if sum.TotalItems != 2 || len(sum.Items) != 1 || sum.Items[0].Count != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}
