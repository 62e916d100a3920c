// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, identity resolution, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-store-backend/internal/config"
	"github.com/tbourn/go-store-backend/internal/domain"
	"github.com/tbourn/go-store-backend/internal/http/handlers"
	"github.com/tbourn/go-store-backend/internal/http/middleware"
	"github.com/tbourn/go-store-backend/internal/repo"
	"github.com/tbourn/go-store-backend/internal/services"
)

// catalogRepoShim adapts the repository free functions to the
// services.CatalogRepo interface expected by the CatalogService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type catalogRepoShim struct{}

// ListDevices proxies repo.ListDevices.
func (catalogRepoShim) ListDevices(ctx context.Context, db *gorm.DB, offset, limit int, search string) ([]domain.Device, int64, error) {
	return repo.ListDevices(ctx, db, offset, limit, search)
}

// GetDevice proxies repo.GetDevice.
func (catalogRepoShim) GetDevice(ctx context.Context, db *gorm.DB, deviceID int64) (*domain.Device, error) {
	return repo.GetDevice(ctx, db, deviceID)
}

// FilterDevices proxies repo.FilterDevices.
func (catalogRepoShim) FilterDevices(ctx context.Context, db *gorm.DB, f repo.DeviceFilter) ([]domain.Device, error) {
	return repo.FilterDevices(ctx, db, f)
}

// CountBrands proxies repo.CountBrands.
func (catalogRepoShim) CountBrands(ctx context.Context, db *gorm.DB, category string) ([]repo.BrandCount, error) {
	return repo.CountBrands(ctx, db, category)
}

// CategoryPriceRange proxies repo.CategoryPriceRange.
func (catalogRepoShim) CategoryPriceRange(ctx context.Context, db *gorm.DB, category string) (*repo.PriceRange, error) {
	return repo.CategoryPriceRange(ctx, db, category)
}

// CreateDevice proxies repo.CreateDevice.
func (catalogRepoShim) CreateDevice(ctx context.Context, db *gorm.DB, d *domain.Device) (*domain.Device, error) {
	return repo.CreateDevice(ctx, db, d)
}

// UpdateDevice proxies repo.UpdateDevice.
func (catalogRepoShim) UpdateDevice(ctx context.Context, db *gorm.DB, deviceID int64, updates map[string]any) error {
	return repo.UpdateDevice(ctx, db, deviceID, updates)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, identity resolution, health and metrics
// endpoints, and then mounts the versioned public API under /api/v*.
//
// images may be nil when object storage is disabled; the photo upload
// endpoint then answers 503.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured request logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter (sized for multipart photo uploads)
//  6. Response compression
//  7. Metrics
//  8. Rate limiter (per user/IP)
//  9. CORS and security headers
//  10. Identity (JWT or demo header)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, images handlers.ImageUploader, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit; the cap also bounds photo uploads
	r.Use(limitBody(cfg.MaxUploadBytes))

	// 6) Compress JSON responses (catalog pages benefit the most)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per user/IP. Health probes and metrics
	// scrapes are exempt so monitoring never competes with API traffic.
	r.Use(func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/health", "/metrics":
			middleware.MarkRateBypass(c)
		}
		c.Next()
	})
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 10) Resolve the caller identity for cart and profile endpoints
	r.Use(middleware.Identity(cfg.Auth.JWTSecret))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (optional)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	catalogSvc := services.NewCatalogService(db, catalogRepoShim{})
	catalogSvc.DefaultPageSize = cfg.DefaultPageSize
	cartSvc := services.NewCartService(db)
	stockSvc := services.NewStockService(db)
	userSvc := services.NewUserService(db)
	h := handlers.New(catalogSvc, cartSvc, stockSvc, userSvc, images, cfg.DefaultPageSize)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Catalog
		api.GET("/devices", h.ListDevices)
		api.GET("/devices/:id", h.GetDevice)
		api.GET("/categories/:slug/devices", h.CategoryDevices)
		api.GET("/categories/:slug/brands", h.CategoryBrands)
		api.GET("/categories/:slug/price-range", h.CategoryPriceRange)

		// Users
		api.PUT("/users/me", h.EnsureUser)

		// Cart
		api.GET("/cart", h.GetCart)
		api.POST("/cart/items", h.AddCartItem)
		api.DELETE("/cart/items/:device_id", h.RemoveCartItem)
		api.DELETE("/cart", h.ClearCart)
		api.POST("/cart/purchase", h.Purchase)

		// Stock
		api.POST("/stock", h.UpdateStock)

		// Admin
		api.POST("/admin/devices", h.UpsertDevice)
		api.POST("/admin/devices/:id/image", h.UploadDeviceImage)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
