// Package services – UserService
//
// This file implements the user lifecycle and the cart summary view. A
// user row is created lazily on the first authenticated visit: callers
// invoke Ensure with the profile fields from the identity provider, and
// the row is inserted only when the lookup comes back empty. The cart
// summary resolves the cart's device IDs to device rows and computes the
// per-device unit count from ID multiplicity, giving the presentation
// layer one source of truth for the cart badge and the cart page.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/repo"
)

// CartItem is a device hydrated with its unit count in the user's cart.
type CartItem struct {
	domain.Device
	// Count is how many units of the device the cart holds.
	Count int `json:"count"`
}

// CartSummary aggregates the cart for display.
type CartSummary struct {
	// Items are the distinct cart devices in first-added order.
	Items []CartItem `json:"items"`
	// TotalItems is the cart length counting duplicates.
	TotalItems int `json:"total_items"`
}

// UserService implements user creation-on-first-visit and profile reads.
type UserService struct {
	// DB is the database handle used for all user operations.
	DB *gorm.DB
}

// NewUserService constructs a UserService bound to the given handle.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Ensure returns the user row for id, inserting it first when absent.
// The boolean result reports whether a new row was created. Profile
// fields are only written on creation; an existing row is returned as-is.
func (s *UserService) Ensure(ctx context.Context, id, email, firstName, lastName string) (*domain.User, bool, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	created, err := repo.CreateUser(ctx, s.DB, id, email, firstName, lastName)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// Profile returns the user row including cart and purchased lists, or
// ErrUserNotFound.
func (s *UserService) Profile(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Summary resolves the user's cart into device rows with unit counts.
// Cart IDs that no longer reference a device row are skipped.
func (s *UserService) Summary(ctx context.Context, id string) (*CartSummary, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &CartSummary{Items: []CartItem{}, TotalItems: len(u.Cart)}
	if len(u.Cart) == 0 {
		return out, nil
	}

	devices, err := repo.DevicesByIDs(ctx, s.DB, u.Cart.Unique())
	if err != nil {
		return nil, err
	}

	counts := u.Cart.Counts()
	byID := make(map[int64]domain.Device, len(devices))
	for _, d := range devices {
		byID[d.DeviceID] = d
	}
	for _, id := range u.Cart.Unique() {
		d, ok := byID[id]
		if !ok {
			continue
		}
		out.Items = append(out.Items, CartItem{Device: d, Count: counts[id]})
	}
	return out, nil
}
