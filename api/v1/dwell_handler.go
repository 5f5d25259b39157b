package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"footfall/internal/dwell"
	"footfall/internal/sessions"
)

// ReconstructSessionsHandler pairs entry and exit events into sessions.
// Optional from/to query parameters restrict the events considered.
func ReconstructSessionsHandler(ctx *cartridge.Context) error {
	w, err := parseWindow(ctx.Ctx)
	if err != nil {
		return handleError(ctx.Ctx, err)
	}

	result, err := sessions.Reconstruct(ctx.DBManager, ctx.Logger, w)
	if err != nil {
		var processingErr *sessions.ProcessingError
		if errors.As(err, &processingErr) {
			ctx.Logger.Error("Session reconstruction failed",
				slog.String("stage", processingErr.Stage),
				slog.Any("error", processingErr.Err))
			return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"error": "session reconstruction failed",
				"code":  "RECONSTRUCTION_ERROR",
			})
		}
		return handleError(ctx.Ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(result)
}

// GetDwellAnalyticsHandler returns dwell statistics grouped by the
// requested dimension, or a demographic breakdown when the breakdown
// parameter is set.
func GetDwellAnalyticsHandler(ctx *cartridge.Context) error {
	w, err := parseWindow(ctx.Ctx)
	if err != nil {
		return handleError(ctx.Ctx, err)
	}

	if raw := ctx.Query("breakdown"); raw != "" {
		kind, err := dwell.ParseBreakdownKind(raw)
		if err != nil {
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
				"code":  "INVALID_BREAKDOWN",
			})
		}

		report, err := dwell.DemographicBreakdown(ctx.DB(), ctx.Logger, w, kind)
		if err != nil {
			return analyticsError(ctx, err)
		}
		return ctx.Status(http.StatusOK).JSON(report)
	}

	dim, err := dwell.ParseDimension(ctx.Query("group_by", string(dwell.DimensionCamera)))
	if err != nil {
		return analyticsError(ctx, err)
	}

	report, err := dwell.Aggregate(ctx.DB(), ctx.Logger, dwell.Params{
		Dimension: dim,
		Window:    w,
	})
	if err != nil {
		return analyticsError(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(report)
}

func analyticsError(ctx *cartridge.Context, err error) error {
	var analyticsErr *dwell.AnalyticsError
	if errors.As(err, &analyticsErr) {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": analyticsErr.Reason,
			"code":  "INVALID_ANALYTICS_REQUEST",
		})
	}

	ctx.Logger.Error("Dwell analytics query failed", slog.Any("error", err))
	return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": "analytics query failed",
		"code":  "ANALYTICS_ERROR",
	})
}
