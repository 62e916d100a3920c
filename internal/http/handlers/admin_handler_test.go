package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/services"
)

func adminRouter(svc *fakeCatalogSvc, images ImageUploader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers(svc, nil, nil, nil, images)
	r := gin.New()
	r.POST("/admin/devices", h.UpsertDevice)
	r.POST("/admin/devices/:id/image", h.UploadDeviceImage)
	return r
}

func TestUpsertDevice_CreateAndUpdateStatus(t *testing.T) {
	svc := &fakeCatalogSvc{device: &domain.Device{DeviceID: 42, DeviceName: "Cam"}}
	r := adminRouter(svc, nil)

	// Create: no device_id → 201.
	w := doJSON(t, r, http.MethodPost, "/admin/devices",
		`{"device_name":"Cam","brand":"Acme","price":"199.99","stock_quantity":5,"category_name":"Camera"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}
	if !svc.lastInput.Price.Equal(decimal.RequireFromString("199.99")) || svc.lastInput.CategoryName != "Camera" {
		t.Fatalf("input not forwarded: %+v", svc.lastInput)
	}

	// Update: device_id present → 200.
	w = doJSON(t, r, http.MethodPost, "/admin/devices",
		`{"device_id":42,"device_name":"Cam","brand":"Acme","price":"149.99","category_name":"Camera"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}
}

func TestUpsertDevice_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidDevice, http.StatusBadRequest},
		{services.ErrInvalidCategory, http.StatusBadRequest},
		{services.ErrDeviceNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := adminRouter(&fakeCatalogSvc{err: tc.err}, nil)
		w := doJSON(t, r, http.MethodPost, "/admin/devices",
			`{"device_name":"X","brand":"Acme","category_name":"Camera"}`)
		if w.Code != tc.want {
			t.Errorf("err %v: got %d, want %d", tc.err, w.Code, tc.want)
		}
	}

	// Binding failure (missing required fields).
	r := adminRouter(&fakeCatalogSvc{}, nil)
	if w := doJSON(t, r, http.MethodPost, "/admin/devices", `{"brand":"Acme"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", w.Code)
	}
}

func multipartImage(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadDeviceImage_OK(t *testing.T) {
	svc := &fakeCatalogSvc{device: &domain.Device{DeviceID: 42}}
	up := &fakeUploader{url: "https://cdn.example.com/device-images/k.png"}
	r := adminRouter(svc, up)

	body, ctype := multipartImage(t, "image", "photo.png", []byte("img-bytes"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/devices/42/image", body)
	req.Header.Set("Content-Type", ctype)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp UploadImageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !resp.Success || resp.DeviceID != 42 || resp.ImageURL != up.url {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if svc.lastImageURL != up.url {
		t.Fatalf("image URL not stored: %q", svc.lastImageURL)
	}
}

func TestUploadDeviceImage_Failures(t *testing.T) {
	// Storage not configured → 503.
	r := adminRouter(&fakeCatalogSvc{device: &domain.Device{DeviceID: 42}}, nil)
	body, ctype := multipartImage(t, "image", "p.png", []byte("x"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/devices/42/image", body)
	req.Header.Set("Content-Type", ctype)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("no storage: expected 503, got %d", w.Code)
	}

	// Unknown device → 404 before the upload runs.
	r = adminRouter(&fakeCatalogSvc{err: services.ErrDeviceNotFound}, &fakeUploader{url: "u"})
	body, ctype = multipartImage(t, "image", "p.png", []byte("x"))
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/devices/42/image", body)
	req.Header.Set("Content-Type", ctype)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown device: expected 404, got %d", w.Code)
	}

	// Missing multipart field → 400.
	r = adminRouter(&fakeCatalogSvc{device: &domain.Device{DeviceID: 42}}, &fakeUploader{url: "u"})
	body, ctype = multipartImage(t, "wrong_field", "p.png", []byte("x"))
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/devices/42/image", body)
	req.Header.Set("Content-Type", ctype)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing field: expected 400, got %d", w.Code)
	}

	// Uploader failure → 500.
	r = adminRouter(&fakeCatalogSvc{device: &domain.Device{DeviceID: 42}}, &fakeUploader{err: errors.New("denied")})
	body, ctype = multipartImage(t, "image", "p.png", []byte("x"))
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/devices/42/image", body)
	req.Header.Set("Content-Type", ctype)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("uploader failure: expected 500, got %d", w.Code)
	}

	// Bad device id → 400.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/devices/zero/image", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", w.Code)
	}
}
