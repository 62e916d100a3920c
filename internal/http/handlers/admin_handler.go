// Admin HTTP handlers.
//
// This file exposes the catalog maintenance endpoints:
//   - POST /admin/devices             (JSON create-or-update)
//   - POST /admin/devices/{id}/image  (multipart photo upload)
//
// Device deletion is intentionally not offered; rows are corrected by
// resubmitting, mirroring how the catalog is actually curated.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-store-backend/internal/services"
)

//
// DTOs
//

// DeviceRequest is the JSON payload of the admin device upsert. A zero or
// absent device_id creates a new device; a positive one updates that row.
type DeviceRequest struct {
	DeviceID      int64           `json:"device_id" example:"42"`
	DeviceName    string          `json:"device_name" binding:"required" example:"Acme Book Pro"`
	Brand         string          `json:"brand" binding:"required" example:"Acme"`
	Description   string          `json:"description" example:"14-inch ultrabook"`
	Price         decimal.Decimal `json:"price" swaggertype:"string" example:"1299.99"`
	StockQuantity int64           `json:"stock_quantity" example:"25"`
	CategoryName  string          `json:"category_name" binding:"required" example:"Laptop"`
	Image         string          `json:"image" example:"https://cdn.example.com/device-images/x.png"`
	Attributes    []string        `json:"attributes" example:"RAM: 16GB,Storage: 512GB"`
}

// UploadImageResponse reports a stored product photo.
type UploadImageResponse struct {
	Success  bool   `json:"success" example:"true"`
	DeviceID int64  `json:"device_id" example:"42"`
	ImageURL string `json:"image_url" example:"https://cdn.example.com/device-images/x.png"`
}

//
// Handlers
//

// UpsertDevice godoc
// @ID          upsertDevice
// @Summary     Create or update a device
// @Description Validates and persists a device submission. Name, brand, and a known category are required; price and stock must be non-negative. With a positive device_id the existing row is updated in full (the stored image is kept when the image field is empty).
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.DeviceRequest  true  "Device payload"
//
// @Success     200  {object} domain.Device "Device updated"
// @Success     201  {object} domain.Device "Device created"
// @Failure     400  {object} handlers.ErrorResponse "Validation failure"
// @Failure     404  {object} handlers.ErrorResponse "Device not found (update)"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/devices [post]
func (h *Handlers) UpsertDevice(c *gin.Context) {
	var req DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid device payload")
		return
	}

	d, err := h.catalogSvc.UpsertDevice(c.Request.Context(), services.DeviceInput{
		DeviceID:      req.DeviceID,
		DeviceName:    req.DeviceName,
		Brand:         req.Brand,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CategoryName:  req.CategoryName,
		Image:         req.Image,
		Attributes:    req.Attributes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDevice), errors.Is(err, services.ErrInvalidCategory):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrDeviceNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "device not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	status := http.StatusOK
	if req.DeviceID == 0 {
		status = http.StatusCreated
	}
	ok(c, status, d)
}

// UploadDeviceImage godoc
// @ID          uploadDeviceImage
// @Summary     Upload a device photo
// @Description Stores the multipart "image" file in the object store under a generated key and writes the resulting public URL onto the device row.
// @Tags        Admin
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       id     path      int   true  "Device ID"  example(42)
// @Param       image  formData  file  true  "Image file"
//
// @Success     200  {object} handlers.UploadImageResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Device not found"
// @Failure     500  {object} handlers.ErrorResponse "Upload failure"
// @Failure     503  {object} handlers.ErrorResponse "Object storage not configured"
// @Router      /admin/devices/{id}/image [post]
func (h *Handlers) UploadDeviceImage(c *gin.Context) {
	if h.images == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUploadFailed, "image storage is not configured")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "device id must be a positive integer")
		return
	}

	// The device must exist before we pay for the upload.
	if _, err := h.catalogSvc.GetDevice(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrDeviceNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "device not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `multipart field "image" is required`)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, err.Error())
		return
	}
	defer f.Close()

	url, err := h.images.Upload(c.Request.Context(), fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"), f)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "failed to store image")
		return
	}

	if err := h.catalogSvc.SetImage(c.Request.Context(), id, url); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, UploadImageResponse{Success: true, DeviceID: id, ImageURL: url})
}
