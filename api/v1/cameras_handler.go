package v1

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"footfall/internal/events"
)

// ListCamerasHandler returns the cameras observed in stored events.
func ListCamerasHandler(ctx *cartridge.Context) error {
	cameras, err := events.ListCameras(ctx.DB())
	if err != nil {
		ctx.Logger.Error("Failed to list cameras", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list cameras",
			"code":  "CAMERA_LIST_ERROR",
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"cameras": cameras,
	})
}
