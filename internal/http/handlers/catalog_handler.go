// Catalog HTTP handlers.
//
// This file exposes the public storefront endpoints:
//   - GET /devices                       (paginated grid, optional search)
//   - GET /devices/{id}                  (device detail)
//   - GET /categories/{slug}/devices     (filtered category listing)
//   - GET /categories/{slug}/brands      (brand facet counts)
//   - GET /categories/{slug}/price-range (price facet bounds)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/repo"
	"github.com/tbourn/go-store-backend/internal/services"
	"github.com/tbourn/go-store-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// CatalogService defines catalog read and admin operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CatalogService interface {
	// ListDevices returns a page of the catalog and the total match count.
	ListDevices(ctx context.Context, page, pageSize int, search string) ([]domain.Device, int64, error)
	// GetDevice fetches one device by ID.
	GetDevice(ctx context.Context, deviceID int64) (*domain.Device, error)
	// FilterCategory returns a category's devices matching the options.
	FilterCategory(ctx context.Context, slug string, opts services.FilterOptions) ([]domain.Device, error)
	// BrandCounts returns per-brand device counts for a category.
	BrandCounts(ctx context.Context, slug string) ([]repo.BrandCount, error)
	// PriceRange returns the min/max device price of a category.
	PriceRange(ctx context.Context, slug string) (*repo.PriceRange, error)
	// UpsertDevice creates or fully updates a device.
	UpsertDevice(ctx context.Context, in services.DeviceInput) (*domain.Device, error)
	// SetImage stores the public image URL on a device row.
	SetImage(ctx context.Context, deviceID int64, url string) error
}

// CartService defines the cart mutators consumed by HTTP handlers.
type CartService interface {
	// AddToCart appends one unit of deviceID to the user's cart.
	AddToCart(ctx context.Context, userID string, deviceID int64) error
	// RemoveCart removes one unit of deviceID from the user's cart.
	RemoveCart(ctx context.Context, userID string, deviceID int64) error
	// ClearCart empties the user's cart.
	ClearCart(ctx context.Context, userID string) error
	// Purchase moves the cart into purchase history and clears it.
	Purchase(ctx context.Context, userID string) error
}

// StockService defines the post-purchase stock adjustment batch.
type StockService interface {
	// Apply runs the batch and returns per-device results, or the first error.
	Apply(ctx context.Context, updates []services.StockUpdate) ([]services.StockUpdateResult, error)
}

// UserService defines user lifecycle operations consumed by HTTP handlers.
type UserService interface {
	// Ensure returns the user row, creating it on first visit.
	Ensure(ctx context.Context, id, email, firstName, lastName string) (*domain.User, bool, error)
	// Summary resolves the user's cart into devices with unit counts.
	Summary(ctx context.Context, id string) (*services.CartSummary, error)
}

// ImageUploader stores an uploaded image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for the catalog, cart, stock, and users.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	catalogSvc CatalogService
	cartSvc    CartService
	stockSvc   StockService
	userSvc    UserService

	// images is nil when object storage is not configured; the upload
	// endpoint then reports the feature as unavailable.
	images ImageUploader

	// pageSize is the default storefront grid size.
	pageSize int
}

// New constructs and returns a Handlers instance bound to the given services.
// images may be nil; pageSize <= 0 falls back to the storefront default.
func New(catalog CatalogService, cart CartService, stock StockService, user UserService, images ImageUploader, pageSize int) *Handlers {
	if pageSize <= 0 {
		pageSize = 9
	}
	return &Handlers{
		catalogSvc: catalog,
		cartSvc:    cart,
		stockSvc:   stock,
		userSvc:    user,
		images:     images,
		pageSize:   pageSize,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListDevicesResponse wraps a page of devices and pagination information.
type ListDevicesResponse struct {
	Devices    []domain.Device `json:"devices"`
	Pagination Pagination      `json:"pagination"`
}

// CategoryDevicesResponse wraps the result of a category filter call.
type CategoryDevicesResponse struct {
	Devices []domain.Device `json:"devices"`
	Count   int             `json:"count"`
}

// BrandCountsResponse wraps the brand facet of a category.
type BrandCountsResponse struct {
	Brands []repo.BrandCount `json:"brands"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func (h *Handlers) clampPagination(c *gin.Context) (page, pageSize int) {
	const maxPageSize = 100
	page = utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), h.pageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// parsePrice parses an optional decimal query value. The boolean result is
// false when the value is present but malformed.
func parsePrice(s string) (*decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, false
	}
	return &d, true
}

// splitBrands parses the comma-separated brands query value.
func splitBrands(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

//
// Handlers
//

// ListDevices godoc
// @ID          listDevices
// @Summary     List devices (paginated)
// @Description Returns a page of the device catalog, optionally restricted by a case-insensitive name search.
// @Tags        Catalog
// @Produce     json
//
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(9)
// @Param       search     query  string  false "Name substring"  example(galaxy)
//
// @Success     200  {object} handlers.ListDevicesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /devices [get]
func (h *Handlers) ListDevices(c *gin.Context) {
	page, pageSize := h.clampPagination(c)

	items, total, err := h.catalogSvc.ListDevices(c.Request.Context(), page, pageSize, c.Query("search"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListDevicesResponse{
		Devices: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetDevice godoc
// @ID          getDevice
// @Summary     Get a device
// @Description Returns a single device by its numeric ID.
// @Tags        Catalog
// @Produce     json
//
// @Param       id  path  int  true  "Device ID"  example(42)
//
// @Success     200  {object} domain.Device
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Device not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /devices/{id} [get]
func (h *Handlers) GetDevice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "device id must be a positive integer")
		return
	}

	d, err := h.catalogSvc.GetDevice(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrDeviceNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "device not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, d)
}

// CategoryDevices godoc
// @ID          categoryDevices
// @Summary     Filter a category
// @Description Returns every device of a category matching the optional price range, brand set, and name search. The slug is capitalized server-side (laptop -> Laptop).
// @Tags        Catalog
// @Produce     json
//
// @Param       slug       path   string  true  "Category slug"              example(laptop)
// @Param       min_price  query  string  false "Minimum price (inclusive)"  example(100)
// @Param       max_price  query  string  false "Maximum price (inclusive)"  example(500)
// @Param       brands     query  string  false "Comma-separated brand set"  example(Acme,Zen)
// @Param       search     query  string  false "Name substring"             example(pro)
//
// @Success     200  {object} handlers.CategoryDevicesResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request / unknown category"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /categories/{slug}/devices [get]
func (h *Handlers) CategoryDevices(c *gin.Context) {
	minP, okMin := parsePrice(c.Query("min_price"))
	maxP, okMax := parsePrice(c.Query("max_price"))
	if !okMin || !okMax {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "price bounds must be decimal numbers")
		return
	}

	devices, err := h.catalogSvc.FilterCategory(c.Request.Context(), c.Param("slug"), services.FilterOptions{
		MinPrice: minP,
		MaxPrice: maxP,
		Brands:   splitBrands(c.Query("brands")),
		Search:   c.Query("search"),
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidCategory) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown category")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, CategoryDevicesResponse{Devices: devices, Count: len(devices)})
}

// CategoryBrands godoc
// @ID          categoryBrands
// @Summary     Brand facet of a category
// @Description Returns the distinct brands of a category with per-brand device counts, ordered by brand name.
// @Tags        Catalog
// @Produce     json
//
// @Param       slug  path  string  true  "Category slug"  example(camera)
//
// @Success     200  {object} handlers.BrandCountsResponse
// @Failure     400  {object} handlers.ErrorResponse "Unknown category"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /categories/{slug}/brands [get]
func (h *Handlers) CategoryBrands(c *gin.Context) {
	brands, err := h.catalogSvc.BrandCounts(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCategory) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown category")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, BrandCountsResponse{Brands: brands})
}

// CategoryPriceRange godoc
// @ID          categoryPriceRange
// @Summary     Price facet of a category
// @Description Returns the minimum and maximum device price within a category. An empty category yields a zero range.
// @Tags        Catalog
// @Produce     json
//
// @Param       slug  path  string  true  "Category slug"  example(camera)
//
// @Success     200  {object} repo.PriceRange
// @Failure     400  {object} handlers.ErrorResponse "Unknown category"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /categories/{slug}/price-range [get]
func (h *Handlers) CategoryPriceRange(c *gin.Context) {
	pr, err := h.catalogSvc.PriceRange(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCategory) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown category")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, pr)
}
