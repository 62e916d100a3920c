// Stock HTTP handler.
//
// This file exposes the post-purchase stock adjustment:
//   - POST /stock  (per-device decrements; one update object or an array)
//
// The batch reports all-or-nothing: when every device succeeds the response
// carries one result per update; when any device fails the whole call
// returns the error of the first failing item and no partial result list,
// even though earlier sibling writes are not rolled back.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-store-backend/internal/services"
)

// StockUpdateList is the one-or-many form of the stock adjustment input:
// callers may post a single update object or an array of them, and the
// lone-object form is normalized into a one-element list.
type StockUpdateList []services.StockUpdate

// UnmarshalJSON accepts either a JSON object or a JSON array of objects.
func (l *StockUpdateList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var one services.StockUpdate
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = StockUpdateList{one}
		return nil
	}
	var many []services.StockUpdate
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// UpdateStockRequest is the JSON payload of the stock adjustment call.
type UpdateStockRequest struct {
	// Updates holds one entry per purchased device; a single object is
	// accepted in place of a one-element array.
	Updates StockUpdateList `json:"updates" binding:"required,min=1,dive"`
}

// UpdateStockResponse is the success shape of the stock adjustment.
type UpdateStockResponse struct {
	Success bool                         `json:"success" example:"true"`
	Updates []services.StockUpdateResult `json:"updates"`
}

// UpdateStock godoc
// @ID          updateStock
// @Summary     Adjust stock after a purchase
// @Description Applies the purchase decrement to each device in the batch. The updates field takes a single object or an array of them. Each entry carries the stock value the storefront captured at render time; the new stock is computed from that value. Writes that would drive stock negative are refused.
// @Tags        Stock
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.UpdateStockRequest  true  "Stock adjustment batch"
//
// @Success     200  {object} handlers.UpdateStockResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request / invalid update record"
// @Failure     404  {object} handlers.ErrorResponse "Device not found"
// @Failure     409  {object} handlers.ErrorResponse "Insufficient stock"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /stock [post]
func (h *Handlers) UpdateStock(c *gin.Context) {
	var req UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Updates) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "updates must hold at least one record")
		return
	}

	results, err := h.stockSvc.Apply(c.Request.Context(), []services.StockUpdate(req.Updates))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStockUpdate):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrDeviceNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		case errors.Is(err, services.ErrInsufficientStock):
			fail(c, http.StatusConflict, ErrCodeOutOfStock, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, UpdateStockResponse{Success: true, Updates: results})
}
