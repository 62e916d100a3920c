// Package services – CartService
//
// This file implements the CartService, which owns the cart and purchase
// workflow: appending a unit to the cart, removing a single unit, clearing
// the cart, and converting the cart into purchase history. Each operation
// is a read of the user row followed by a full-list overwrite of the cart
// or purchased column; there is no delta update and no optimistic lock, so
// concurrent mutations of the same user's cart resolve last-write-wins.
//
// Service-level errors (e.g. ErrUserNotFound, ErrItemNotInCart) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/repo"
)

// CartService implements the cart and purchase use-cases for a single
// user record. It is context-aware and safe for concurrent use; the
// underlying operations are individually sequential reads and writes.
type CartService struct {
	// DB is the database handle used for all cart operations.
	DB *gorm.DB
}

// NewCartService constructs a CartService bound to the given handle.
func NewCartService(db *gorm.DB) *CartService {
	return &CartService{DB: db}
}

// AddToCart appends one unit of deviceID to the user's cart.
//
// Semantics:
//   - The current cart is read, deviceID is appended at the end, and the
//     full list is written back. Duplicates accumulate, one per call.
//   - The device is not checked for existence or available stock; a
//     zero-stock device can still be queued.
//
// Errors:
//   - ErrUserNotFound when no user row exists for userID.
//   - The underlying DB error for unexpected failures.
func (s *CartService) AddToCart(ctx context.Context, userID string, deviceID int64) error {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	updated := append(append(domain.IDList{}, u.Cart...), deviceID)
	if err := repo.UpdateCart(ctx, s.DB, userID, updated); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// RemoveCart deletes exactly one unit of deviceID from the user's cart:
// the first occurrence in list order. Remaining duplicates and their
// relative order are preserved. Callers wanting to drop every unit of a
// device must call repeatedly.
//
// Errors:
//   - ErrUserNotFound when no user row exists for userID.
//   - ErrItemNotInCart when deviceID has no occurrence; the cart is left
//     unchanged in that case.
func (s *CartService) RemoveCart(ctx context.Context, userID string, deviceID int64) error {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	updated, found := u.Cart.RemoveFirst(deviceID)
	if !found {
		return ErrItemNotInCart
	}
	return repo.UpdateCart(ctx, s.DB, userID, updated)
}

// ClearCart unconditionally overwrites the user's cart with an empty list.
// It succeeds regardless of prior cart content and fails only when the
// write itself fails (including ErrUserNotFound for a missing row).
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	err := repo.UpdateCart(ctx, s.DB, userID, domain.IDList{})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Purchase converts the user's cart into purchase history: the purchased
// list becomes purchased ++ cart (order and duplicates preserved, cart
// entries appended at the end), then the cart is cleared.
//
// The purchased write and the cart clear are two separate updates. A
// failure between them returns an error while the purchased list has
// already grown, leaving the cart non-empty alongside the recorded
// purchase. Callers treat any error as "purchase failed" and surface it
// to the user.
func (s *CartService) Purchase(ctx context.Context, userID string) error {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	updated := append(append(domain.IDList{}, u.Purchased...), u.Cart...)
	if err := repo.UpdatePurchased(ctx, s.DB, userID, updated); err != nil {
		return err
	}
	return s.ClearCart(ctx, userID)
}
