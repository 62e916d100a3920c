// Package domain defines the persistence models for users and devices.
// These types are mapped with GORM and form the core data layer of the
// storefront application.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Categories is the fixed set of device classifications used for browsing
// and filtering. Category names are stored verbatim on device rows.
var Categories = []string{
	"Smartphone",
	"Laptop",
	"Tablet",
	"Smartwatch",
	"Headphones",
	"Camera",
}

// ValidCategory reports whether name is one of the fixed category set.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// User represents a storefront customer. The row is created on the user's
// first authenticated visit and keyed by the identity provider's user ID.
//
// Fields:
//   - UserID: external identity-provider identifier (primary key).
//   - Email / FirstName / LastName: profile fields copied from the provider.
//   - Cart: ordered device-ID list awaiting purchase. Duplicates are
//     allowed; each occurrence of an ID is one unit of that device.
//   - Purchased: ordered, append-only device-ID history of completed
//     purchases (duplicates allowed).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type User struct {
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);primaryKey"`
	Email     string         `json:"email"      gorm:"type:varchar(255)"`
	FirstName string         `json:"first_name" gorm:"type:varchar(128)"`
	LastName  string         `json:"last_name"  gorm:"type:varchar(128)"`
	Cart      IDList         `json:"cart"       gorm:"type:text"`
	Purchased IDList         `json:"purchased"  gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Device represents a catalog product belonging to exactly one category.
//
// Fields:
//   - DeviceID: auto-incrementing primary key.
//   - DeviceName / Brand / Description: display fields; name is indexed
//     for substring search.
//   - Price: non-negative decimal price.
//   - StockQuantity: remaining purchasable units; never written negative.
//   - CategoryName: one of domain.Categories; indexed for category pages.
//   - Image: public object-storage URL for the product photo.
//   - Attributes: free-text spec strings (e.g. "RAM: 8GB").
type Device struct {
	DeviceID      int64           `json:"device_id"      gorm:"primaryKey;autoIncrement"`
	DeviceName    string          `json:"device_name"    gorm:"type:varchar(255);not null;index"`
	Brand         string          `json:"brand"          gorm:"type:varchar(128);not null;index"`
	Description   string          `json:"description"    gorm:"type:text"`
	Price         decimal.Decimal `json:"price"          gorm:"type:numeric(12,2);not null"`
	StockQuantity int64           `json:"stock_quantity" gorm:"not null;default:0"`
	CategoryName  string          `json:"category_name"  gorm:"type:varchar(64);not null;index"`
	Image         string          `json:"image"          gorm:"type:text"`
	Attributes    StringList      `json:"attributes"     gorm:"type:text"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-"              gorm:"index"`
}

// TableName returns the database table name for Device.
func (Device) TableName() string { return "devices" }
