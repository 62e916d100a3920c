// Package services – CatalogService
//
// This file implements the catalog: paginated device listings with name
// search, the category filter (price range, brand set, search text in one
// push-down query), the brand-count and price-range aggregates that feed
// the filter UI, and the admin-facing device upsert. Category URL slugs
// arrive lowercase ("laptop") and are canonicalized to the stored form
// ("Laptop") before querying.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/repo"
)

// CatalogRepo defines the repository contract required by CatalogService.
// Implementations are responsible for persistence of device rows.
type CatalogRepo interface {
	// ListDevices returns one page of devices plus the total match count.
	ListDevices(ctx context.Context, db *gorm.DB, offset, limit int, search string) ([]domain.Device, int64, error)

	// GetDevice fetches a device by ID.
	GetDevice(ctx context.Context, db *gorm.DB, deviceID int64) (*domain.Device, error)

	// FilterDevices runs the category filter as a single query.
	FilterDevices(ctx context.Context, db *gorm.DB, f repo.DeviceFilter) ([]domain.Device, error)

	// CountBrands returns per-brand device counts for a category.
	CountBrands(ctx context.Context, db *gorm.DB, category string) ([]repo.BrandCount, error)

	// CategoryPriceRange returns the min/max price for a category.
	CategoryPriceRange(ctx context.Context, db *gorm.DB, category string) (*repo.PriceRange, error)

	// CreateDevice inserts a new device row.
	CreateDevice(ctx context.Context, db *gorm.DB, d *domain.Device) (*domain.Device, error)

	// UpdateDevice applies a partial update to an existing device.
	UpdateDevice(ctx context.Context, db *gorm.DB, deviceID int64, updates map[string]any) error
}

// FilterOptions carries the optional predicates of a category filter call.
type FilterOptions struct {
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Brands   []string
	Search   string
}

// DeviceInput is the admin upsert payload. A zero DeviceID creates a new
// device; a positive one updates the existing row.
type DeviceInput struct {
	DeviceID      int64
	DeviceName    string
	Brand         string
	Description   string
	Price         decimal.Decimal
	StockQuantity int64
	CategoryName  string
	Image         string
	Attributes    []string
}

// CatalogService provides read and admin operations over the device
// catalog. Listing defaults match the storefront grid (nine per page).
type CatalogService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the device repository used by this service.
	Repo CatalogRepo

	// DefaultPageSize is applied when a caller passes no page size.
	DefaultPageSize int
	// MaxPageSize caps the page size accepted from callers.
	MaxPageSize int
}

// NewCatalogService constructs a CatalogService with storefront defaults.
func NewCatalogService(db *gorm.DB, r CatalogRepo) *CatalogService {
	return &CatalogService{
		DB:              db,
		Repo:            r,
		DefaultPageSize: 9,
		MaxPageSize:     100,
	}
}

// titleCaser canonicalizes category slugs ("laptop" -> "Laptop").
var titleCaser = cases.Title(language.English)

// CanonicalCategory maps a URL slug to the stored category name, returning
// ErrInvalidCategory when the result is outside the fixed category set.
func CanonicalCategory(slug string) (string, error) {
	name := titleCaser.String(strings.ToLower(strings.TrimSpace(slug)))
	if !domain.ValidCategory(name) {
		return "", ErrInvalidCategory
	}
	return name, nil
}

// ListDevices returns one page of the catalog plus the total count of
// matching rows. Page and pageSize are clamped to sane values; search, if
// non-empty, restricts rows by case-insensitive name substring.
func (s *CatalogService) ListDevices(ctx context.Context, page, pageSize int, search string) ([]domain.Device, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.DefaultPageSize
	}
	if s.MaxPageSize > 0 && pageSize > s.MaxPageSize {
		pageSize = s.MaxPageSize
	}
	offset := (page - 1) * pageSize
	return s.Repo.ListDevices(ctx, s.DB, offset, pageSize, search)
}

// GetDevice returns a single device, or ErrDeviceNotFound.
func (s *CatalogService) GetDevice(ctx context.Context, deviceID int64) (*domain.Device, error) {
	d, err := s.Repo.GetDevice(ctx, s.DB, deviceID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return d, nil
}

// FilterCategory returns every device of the category matching the given
// options. All predicates are pushed down into one query.
func (s *CatalogService) FilterCategory(ctx context.Context, slug string, opts FilterOptions) ([]domain.Device, error) {
	category, err := CanonicalCategory(slug)
	if err != nil {
		return nil, err
	}
	return s.Repo.FilterDevices(ctx, s.DB, repo.DeviceFilter{
		Category: category,
		MinPrice: opts.MinPrice,
		MaxPrice: opts.MaxPrice,
		Brands:   opts.Brands,
		Search:   opts.Search,
	})
}

// BrandCounts returns the distinct brands of a category with device counts.
func (s *CatalogService) BrandCounts(ctx context.Context, slug string) ([]repo.BrandCount, error) {
	category, err := CanonicalCategory(slug)
	if err != nil {
		return nil, err
	}
	return s.Repo.CountBrands(ctx, s.DB, category)
}

// PriceRange returns the min/max device price of a category.
func (s *CatalogService) PriceRange(ctx context.Context, slug string) (*repo.PriceRange, error) {
	category, err := CanonicalCategory(slug)
	if err != nil {
		return nil, err
	}
	return s.Repo.CategoryPriceRange(ctx, s.DB, category)
}

// UpsertDevice validates and persists an admin device submission. A zero
// DeviceID inserts a new row; otherwise the existing row is updated in
// full. Device deletion is intentionally not offered.
func (s *CatalogService) UpsertDevice(ctx context.Context, in DeviceInput) (*domain.Device, error) {
	if strings.TrimSpace(in.DeviceName) == "" || strings.TrimSpace(in.Brand) == "" {
		return nil, ErrInvalidDevice
	}
	if in.Price.IsNegative() || in.StockQuantity < 0 {
		return nil, ErrInvalidDevice
	}
	if !domain.ValidCategory(in.CategoryName) {
		return nil, ErrInvalidCategory
	}

	attrs := make(domain.StringList, 0, len(in.Attributes))
	for _, a := range in.Attributes {
		if t := strings.TrimSpace(a); t != "" {
			attrs = append(attrs, t)
		}
	}

	if in.DeviceID == 0 {
		return s.Repo.CreateDevice(ctx, s.DB, &domain.Device{
			DeviceName:    in.DeviceName,
			Brand:         in.Brand,
			Description:   in.Description,
			Price:         in.Price,
			StockQuantity: in.StockQuantity,
			CategoryName:  in.CategoryName,
			Image:         in.Image,
			Attributes:    attrs,
		})
	}

	updates := map[string]any{
		"device_name":    in.DeviceName,
		"brand":          in.Brand,
		"description":    in.Description,
		"price":          in.Price,
		"stock_quantity": in.StockQuantity,
		"category_name":  in.CategoryName,
		"attributes":     attrs,
	}
	if in.Image != "" {
		updates["image"] = in.Image
	}
	if err := s.Repo.UpdateDevice(ctx, s.DB, in.DeviceID, updates); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return s.GetDevice(ctx, in.DeviceID)
}

// SetImage stores the public image URL on a device row, typically after an
// object-storage upload.
func (s *CatalogService) SetImage(ctx context.Context, deviceID int64, url string) error {
	err := s.Repo.UpdateDevice(ctx, s.DB, deviceID, map[string]any{"image": url})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrDeviceNotFound
	}
	return err
}
