package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "footfall/api/v1"
	"footfall/internal/config"
)

// apiCORSConfig returns the standard CORS configuration for API endpoints.
// Dashboards and ingestion agents may run on a different origin.
var apiCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Helper to conditionally apply rate limiting (only in production)
	// In development/test, rate limiting would interfere with testing
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Rate limiter for read endpoints (120 requests per minute per IP)
	readRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(120),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Stricter rate limiter for write endpoints: uploads and
	// reconstruction are expensive, so keep them to 10 per minute
	writeRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	readConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		CustomMiddleware: []fiber.Handler{readRateLimiter},
		CORSConfig:       apiCORSConfig,
	}

	writeConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		WriteConcurrency: false,
		CustomMiddleware: []fiber.Handler{writeRateLimiter},
		CORSConfig:       apiCORSConfig,
	}

	// Health check endpoint
	srv.Get("/_health", v1.HealthHandler)
	srv.Head("/_health", v1.HealthHandler)

	// === INGESTION ROUTES ===
	srv.Post("/api/v1/uploads", v1.UploadEventsHandler, writeConfig)
	srv.Options("/api/v1/uploads", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, writeConfig)

	// === DWELL ROUTES ===
	srv.Post("/api/v1/dwell/reconstruct", v1.ReconstructSessionsHandler, writeConfig)
	srv.Get("/api/v1/dwell/analytics", v1.GetDwellAnalyticsHandler, readConfig)

	// === ANALYTICS ROUTES ===
	srv.Get("/api/v1/analytics/foot-traffic", v1.GetFootTrafficHandler, readConfig)
	srv.Get("/api/v1/analytics/kpi", v1.GetKPIHandler, readConfig)
	srv.Get("/api/v1/analytics/occupancy", v1.GetOccupancyHandler, readConfig)
	srv.Get("/api/v1/analytics/repeat-visitors", v1.GetRepeatVisitorsHandler, readConfig)
	srv.Get("/api/v1/analytics/comprehensive", v1.GetComprehensiveHandler, readConfig)

	// === CAMERA ROUTES ===
	srv.Get("/api/v1/cameras", v1.ListCamerasHandler, readConfig)
}
