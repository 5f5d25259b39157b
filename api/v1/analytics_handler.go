package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"footfall/internal/analytics"
	"footfall/internal/config"
	"footfall/internal/timeframe"
)

// GetFootTrafficHandler returns visitor and event counts per time bucket.
func GetFootTrafficHandler(ctx *cartridge.Context) error {
	w, err := parseWindow(ctx.Ctx)
	if err != nil {
		return handleError(ctx.Ctx, err)
	}

	size, err := timeframe.ParseBucketSize(ctx.Query("bucket", string(timeframe.BucketSizeDay)))
	if err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "INVALID_BUCKET",
		})
	}

	series, err := analytics.GetFootTraffic(ctx.DB(), w, size)
	if err != nil {
		ctx.Logger.Error("Foot traffic query failed", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "ANALYTICS_ERROR",
		})
	}

	return ctx.Status(http.StatusOK).JSON(series)
}

// GetKPIHandler returns headline visitor and dwell metrics.
func GetKPIHandler(ctx *cartridge.Context) error {
	w, err := parseWindow(ctx.Ctx)
	if err != nil {
		return handleError(ctx.Ctx, err)
	}

	metrics, err := analytics.GetKPIMetrics(ctx.DB(), w)
	if err != nil {
		ctx.Logger.Error("KPI query failed", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "KPI query failed",
			"code":  "ANALYTICS_ERROR",
		})
	}

	return ctx.Status(http.StatusOK).JSON(metrics)
}

// GetOccupancyHandler returns concurrent visitor counts per time bucket.
func GetOccupancyHandler(ctx *cartridge.Context) error {
	w, err := parseWindow(ctx.Ctx)
	if err != nil {
		return handleError(ctx.Ctx, err)
	}

	size, err := timeframe.ParseBucketSize(ctx.Query("bucket", string(timeframe.BucketSizeHour)))
	if err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "INVALID_BUCKET",
		})
	}

	report, err := analytics.GetOccupancy(ctx.DB(), w, size)
	if err != nil {
		ctx.Logger.Error("Occupancy query failed", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "ANALYTICS_ERROR",
		})
	}

	return ctx.Status(http.StatusOK).JSON(report)
}

// GetRepeatVisitorsHandler returns visit frequency statistics.
func GetRepeatVisitorsHandler(ctx *cartridge.Context) error {
	w, err := parseWindow(ctx.Ctx)
	if err != nil {
		return handleError(ctx.Ctx, err)
	}

	stats, err := analytics.GetRepeatVisitorStats(ctx.DB(), w)
	if err != nil {
		ctx.Logger.Error("Repeat visitor query failed", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "repeat visitor query failed",
			"code":  "ANALYTICS_ERROR",
		})
	}

	return ctx.Status(http.StatusOK).JSON(stats)
}

// GetComprehensiveHandler returns the cached dashboard bundle of KPI,
// occupancy, and repeat visitor metrics.
func GetComprehensiveHandler(ctx *cartridge.Context) error {
	w, err := parseWindow(ctx.Ctx)
	if err != nil {
		return handleError(ctx.Ctx, err)
	}

	cfg := config.GetConfig()
	ttl := time.Duration(cfg.AnalyticsCacheTTLSeconds) * time.Second

	report, err := analytics.GetComprehensive(ctx.DB(), ctx.Logger, w, ttl)
	if err != nil {
		ctx.Logger.Error("Comprehensive analytics query failed", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "analytics query failed",
			"code":  "ANALYTICS_ERROR",
		})
	}

	return ctx.Status(http.StatusOK).JSON(report)
}
