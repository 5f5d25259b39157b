package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"footfall/internal/config"
	"footfall/internal/ingest"
)

// UploadEventsHandler accepts a CSV file of camera events and stores them
// as appearance events. The file is sent as a multipart form field named
// "file".
func UploadEventsHandler(ctx *cartridge.Context) error {
	ctx.Logger.Info("Received event upload", slog.String("path", ctx.Path()))

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.Logger.Debug("Missing upload file", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "missing 'file' form field",
			"code":  "MISSING_FILE",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.Logger.Error("Failed to open upload file", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read upload",
			"code":  "UPLOAD_READ_ERROR",
		})
	}
	defer file.Close()

	cfg := config.GetConfig()
	opts := ingest.Options{
		BatchSize: cfg.IngestBatchSize,
		MaxRows:   cfg.IngestMaxRows,
	}

	result, err := ingest.ProcessCSV(ctx.DBManager, ctx.Logger, file, opts)
	if err != nil {
		var validationErr *ingest.ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": validationErr.Reason,
				"code":  "INVALID_CSV",
			})
		}

		ctx.Logger.Error("Failed to ingest events", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to ingest events",
			"code":  "INGEST_ERROR",
		})
	}

	ctx.Logger.Info("Event upload processed",
		slog.String("upload_id", result.UploadID),
		slog.Int("processed_rows", result.ProcessedRows),
		slog.Int("skipped_rows", result.SkippedRows))

	return ctx.Status(http.StatusCreated).JSON(result)
}
