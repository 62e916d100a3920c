// Package services defines the business logic for the storefront: cart
// mutations, purchases, stock adjustment, catalog queries, and user
// lifecycle. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked
// by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

var (
	// ErrUserNotFound indicates that no user row exists for the given
	// identity-provider ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrDeviceNotFound indicates that the requested device does not exist.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrItemNotInCart is returned by RemoveCart when the device ID has no
	// occurrence in the user's cart. The cart is left unchanged.
	ErrItemNotInCart = errors.New("item not found in cart")

	// ErrInsufficientStock is returned when a stock adjustment would drive
	// a device's stock quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidStockUpdate is returned when a stock-update record is
	// malformed (missing device ID or negative count).
	ErrInvalidStockUpdate = errors.New("invalid stock update")

	// ErrInvalidCategory is returned when a category name is outside the
	// fixed category set.
	ErrInvalidCategory = errors.New("unknown category")

	// ErrInvalidDevice is returned when an admin upsert carries an invalid
	// field (negative price or stock, empty name).
	ErrInvalidDevice = errors.New("invalid device")
)
