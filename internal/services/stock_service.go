// Package services – StockService
//
// This file implements the stock adjustment applied after a purchase.
// Each update record carries the quantity bought and the stock value the
// caller captured when the page was rendered; the new stock is computed
// from that captured value, not from a fresh read. The decrement formula
// is stock_quantity - count - 1: one unit more than the purchased count
// is deducted, and the write is refused when the result would be negative.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/repo"
)

// StockUpdate is one requested stock adjustment.
type StockUpdate struct {
	// DeviceID identifies the device to adjust.
	DeviceID int64 `json:"device_id" binding:"required"`
	// Count is the number of units purchased in this transaction.
	Count int64 `json:"count"`
	// StockQuantity is the device's stock as known by the caller at render
	// time. The adjustment is computed from this captured value.
	StockQuantity int64 `json:"stock_quantity"`
}

// StockUpdateResult reports the outcome for one device in a batch.
type StockUpdateResult struct {
	DeviceID         int64 `json:"device_id"`
	NewStockQuantity int64 `json:"newStockQuantity"`
	Success          bool  `json:"success"`
}

// StockService applies post-purchase stock decrements.
type StockService struct {
	// DB is the database handle used for stock writes.
	DB *gorm.DB
}

// NewStockService constructs a StockService bound to the given handle.
func NewStockService(db *gorm.DB) *StockService {
	return &StockService{DB: db}
}

// Apply issues every update in the batch concurrently, one goroutine per
// device, and waits for all of them. Updates are independent: a failed
// item does not roll back the others, which may already be written.
//
// Per-item rules:
//   - DeviceID must be positive and Count non-negative, else
//     ErrInvalidStockUpdate.
//   - newStock = StockQuantity - Count - 1; when negative the item fails
//     with ErrInsufficientStock and nothing is written for it.
//   - A successful item overwrites the device's stock_quantity column.
//
// The batch result mirrors the all-or-nothing reporting of the original
// flow: when any item failed, Apply returns the first error in input
// order and no result list; otherwise it returns one result per update.
func (s *StockService) Apply(ctx context.Context, updates []StockUpdate) ([]StockUpdateResult, error) {
	results := make([]StockUpdateResult, len(updates))
	errs := make([]error, len(updates))

	var wg sync.WaitGroup
	for i, upd := range updates {
		wg.Add(1)
		go func(i int, upd StockUpdate) {
			defer wg.Done()
			results[i], errs[i] = s.applyOne(ctx, upd)
		}(i, upd)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// applyOne validates and writes a single stock adjustment.
func (s *StockService) applyOne(ctx context.Context, upd StockUpdate) (StockUpdateResult, error) {
	if upd.DeviceID <= 0 || upd.Count < 0 {
		return StockUpdateResult{}, fmt.Errorf("%w: device_id=%d count=%d",
			ErrInvalidStockUpdate, upd.DeviceID, upd.Count)
	}

	newStock := upd.StockQuantity - upd.Count - 1
	if newStock < 0 {
		return StockUpdateResult{}, fmt.Errorf("%w for device ID %d",
			ErrInsufficientStock, upd.DeviceID)
	}

	if err := repo.SetStock(ctx, s.DB, upd.DeviceID, newStock); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return StockUpdateResult{}, fmt.Errorf("%w: id %d", ErrDeviceNotFound, upd.DeviceID)
		}
		return StockUpdateResult{}, err
	}

	return StockUpdateResult{
		DeviceID:         upd.DeviceID,
		NewStockQuantity: newStock,
		Success:          true,
	}, nil
}
