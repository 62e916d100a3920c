// Cart HTTP handlers.
//
// This file exposes the cart endpoints for the current user:
//   - GET    /cart                       (summary with per-device counts)
//   - POST   /cart/items                 (add one unit)
//   - DELETE /cart/items/{device_id}     (remove one unit)
//   - DELETE /cart                       (clear)
//   - POST   /cart/purchase              (move cart to purchase history)
//
// Mutators return the uniform {success, message, ...} shape on 200 so the
// storefront can surface the message verbatim; failures use the standard
// error envelope.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-store-backend/internal/services"
)

//
// DTOs
//

// AddCartItemRequest is the JSON payload for adding a device to the cart.
type AddCartItemRequest struct {
	// DeviceID is the device to queue; one unit is added per call.
	DeviceID int64 `json:"device_id" binding:"required" example:"42"`
}

// CartMutationResponse is the uniform success shape of cart mutators.
type CartMutationResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Item added to cart"`
	// RemovedID echoes the removed device for delete responses.
	RemovedID int64 `json:"removed_id,omitempty" example:"42"`
}

//
// Handlers
//

// GetCart godoc
// @ID          getCart
// @Summary     Get the cart summary
// @Description Returns the current user's cart resolved to device rows, with a per-device unit count derived from how many times the device was added.
// @Tags        Cart
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object} services.CartSummary
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cart [get]
func (h *Handlers) GetCart(c *gin.Context) {
	sum, err := h.userSvc.Summary(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}

// AddCartItem godoc
// @ID          addCartItem
// @Summary     Add a device to the cart
// @Description Appends one unit of the device to the cart. Calling again for the same device adds another unit; availability is not checked at this point.
// @Tags        Cart
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.AddCartItemRequest  true  "Device to add"
//
// @Success     200  {object} handlers.CartMutationResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cart/items [post]
func (h *Handlers) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DeviceID <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "device_id must be a positive integer")
		return
	}

	if err := h.cartSvc.AddToCart(c.Request.Context(), userID(c), req.DeviceID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCartUpdateFailed, "Failed to add item to cart")
		return
	}
	ok(c, http.StatusOK, CartMutationResponse{Success: true, Message: "Item added to cart"})
}

// RemoveCartItem godoc
// @ID          removeCartItem
// @Summary     Remove one unit from the cart
// @Description Removes a single unit of the device (the earliest-added one). Remaining units stay queued; removing a device that is not in the cart fails without changing it.
// @Tags        Cart
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       device_id  path    int     true  "Device ID"              example(42)
//
// @Success     200  {object} handlers.CartMutationResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "User or item not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cart/items/{device_id} [delete]
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("device_id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "device id must be a positive integer")
		return
	}

	if err := h.cartSvc.RemoveCart(c.Request.Context(), userID(c), id); err != nil {
		switch {
		case errors.Is(err, services.ErrItemNotInCart):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "Item not found in cart")
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCartUpdateFailed, "Failed to remove item from cart")
		}
		return
	}
	ok(c, http.StatusOK, CartMutationResponse{
		Success:   true,
		Message:   "Item removed from cart",
		RemovedID: id,
	})
}

// ClearCart godoc
// @ID          clearCart
// @Summary     Clear the cart
// @Description Empties the current user's cart. Succeeds even when the cart is already empty.
// @Tags        Cart
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object} handlers.CartMutationResponse
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cart [delete]
func (h *Handlers) ClearCart(c *gin.Context) {
	if err := h.cartSvc.ClearCart(c.Request.Context(), userID(c)); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCartUpdateFailed, "Failed to clear cart")
		return
	}
	ok(c, http.StatusOK, CartMutationResponse{Success: true, Message: "Cart Cleared"})
}

// Purchase godoc
// @ID          purchaseCart
// @Summary     Purchase the cart
// @Description Appends the cart to the purchase history (duplicates and order preserved) and then clears the cart.
// @Tags        Cart
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object} handlers.CartMutationResponse
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cart/purchase [post]
func (h *Handlers) Purchase(c *gin.Context) {
	if err := h.cartSvc.Purchase(c.Request.Context(), userID(c)); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCartUpdateFailed, "Failed to complete purchase")
		return
	}
	ok(c, http.StatusOK, CartMutationResponse{Success: true, Message: "Purchase completed and cart cleared"})
}
