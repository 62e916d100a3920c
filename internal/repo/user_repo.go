// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// The cart and purchased columns are always written as full lists: the
// caller reads the current list, derives the new one, and overwrites the
// column. There is no delta operation and no optimistic-concurrency check,
// so concurrent writers to the same user race last-write-wins.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetUser fetches a user row by its identity-provider ID. If the record
// does not exist, it returns ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, userID string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user row with empty cart and purchased lists.
func CreateUser(ctx context.Context, db *gorm.DB, userID, email, firstName, lastName string) (*domain.User, error) {
	u := &domain.User{
		UserID:    userID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Cart:      domain.IDList{},
		Purchased: domain.IDList{},
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateCart overwrites the user's cart column with the given list.
// Returns ErrNotFound when no row matched.
func UpdateCart(ctx context.Context, db *gorm.DB, userID string, cart domain.IDList) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", userID).
		Update("cart", cart)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdatePurchased overwrites the user's purchased column with the given list.
// Returns ErrNotFound when no row matched.
func UpdatePurchased(ctx context.Context, db *gorm.DB, userID string, purchased domain.IDList) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", userID).
		Update("purchased", purchased)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
