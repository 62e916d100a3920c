// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Device
// model: paginated listings, the category filter query, and the aggregate
// lookups that back the filter UI.
//
// The filter, brand-count, and price-range functions are the local
// equivalents of the hosted store's push-down endpoints: each is a single
// query with all predicates applied server-side, never a client-side scan.
package repo

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/domain"
)

// BrandCount is one row of the brand aggregate for a category.
type BrandCount struct {
	Brand string `json:"brand"`
	Count int64  `json:"count"`
}

// PriceRange carries the minimum and maximum device price in a category.
type PriceRange struct {
	MinPrice decimal.Decimal `json:"min_price"`
	MaxPrice decimal.Decimal `json:"max_price"`
}

// DeviceFilter holds the optional predicates of the category filter query.
// Nil/empty fields are not applied.
type DeviceFilter struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Brands   []string
	Search   string
}

// ListDevices returns one page of devices plus the total number of matching
// rows. When search is non-empty, rows are restricted to devices whose name
// contains the term case-insensitively. Offset and limit are the caller's
// responsibility (e.g. (page-1)*pageSize).
func ListDevices(ctx context.Context, db *gorm.DB, offset, limit int, search string) ([]domain.Device, int64, error) {
	q := db.WithContext(ctx).Model(&domain.Device{})
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where("LOWER(device_name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Device
	err := q.Order("device_id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

// GetDevice fetches a single device by ID, or ErrNotFound if missing.
func GetDevice(ctx context.Context, db *gorm.DB, deviceID int64) (*domain.Device, error) {
	var d domain.Device
	err := db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DevicesByIDs returns the device rows for the given IDs (at most one row
// per ID regardless of duplicates in ids). Missing IDs are silently absent
// from the result.
func DevicesByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Device, error) {
	if len(ids) == 0 {
		return []domain.Device{}, nil
	}
	var out []domain.Device
	err := db.WithContext(ctx).
		Where("device_id IN ?", ids).
		Order("device_id").
		Find(&out).Error
	return out, err
}

// CreateDevice inserts a new device row and returns it with the generated ID.
func CreateDevice(ctx context.Context, db *gorm.DB, d *domain.Device) (*domain.Device, error) {
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDevice applies a partial column update to an existing device.
// Returns ErrNotFound when no row matched.
func UpdateDevice(ctx context.Context, db *gorm.DB, deviceID int64, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Device{}).
		Where("device_id = ?", deviceID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetStock writes the stock_quantity column of a device. The caller is
// responsible for the value being non-negative. Returns ErrNotFound when
// no row matched.
func SetStock(ctx context.Context, db *gorm.DB, deviceID, quantity int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Device{}).
		Where("device_id = ?", deviceID).
		Update("stock_quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FilterDevices runs the category filter as one push-down query: category
// equality plus the optional price range, brand set, and name search.
func FilterDevices(ctx context.Context, db *gorm.DB, f DeviceFilter) ([]domain.Device, error) {
	q := db.WithContext(ctx).
		Model(&domain.Device{}).
		Where("category_name = ?", f.Category)

	if f.MinPrice != nil {
		q = q.Where("price >= ?", f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", f.MaxPrice)
	}
	if len(f.Brands) > 0 {
		q = q.Where("brand IN ?", f.Brands)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(device_name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var out []domain.Device
	err := q.Order("device_id").Find(&out).Error
	return out, err
}

// CountBrands returns the distinct brands of a category with the number of
// devices per brand, ordered by brand name.
func CountBrands(ctx context.Context, db *gorm.DB, category string) ([]BrandCount, error) {
	var out []BrandCount
	err := db.WithContext(ctx).
		Model(&domain.Device{}).
		Select("brand, COUNT(*) AS count").
		Where("category_name = ?", category).
		Group("brand").
		Order("brand").
		Scan(&out).Error
	return out, err
}

// CategoryPriceRange returns the minimum and maximum price among a
// category's devices. An empty category yields a zero range.
func CategoryPriceRange(ctx context.Context, db *gorm.DB, category string) (*PriceRange, error) {
	var row struct {
		MinPrice *decimal.Decimal
		MaxPrice *decimal.Decimal
	}
	err := db.WithContext(ctx).
		Model(&domain.Device{}).
		Select("MIN(price) AS min_price, MAX(price) AS max_price").
		Where("category_name = ?", category).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	pr := &PriceRange{}
	if row.MinPrice != nil {
		pr.MinPrice = *row.MinPrice
	}
	if row.MaxPrice != nil {
		pr.MaxPrice = *row.MaxPrice
	}
	return pr, nil
}
