package v1

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"footfall/internal/timeframe"
)

const errInvalidRequest = "Invalid request"

// timestampLayouts accepted for from/to query parameters.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseWindow reads the optional from/to query parameters. Absent
// parameters leave the window open on that side.
func parseWindow(c *fiber.Ctx) (timeframe.Window, error) {
	var w timeframe.Window

	if raw := c.Query("from"); raw != "" {
		t, err := parseTimestamp(raw)
		if err != nil {
			return w, fiber.NewError(http.StatusBadRequest, "invalid 'from' timestamp: "+raw)
		}
		w.From = &t
	}

	if raw := c.Query("to"); raw != "" {
		t, err := parseTimestamp(raw)
		if err != nil {
			return w, fiber.NewError(http.StatusBadRequest, "invalid 'to' timestamp: "+raw)
		}
		w.To = &t
	}

	if w.From != nil && w.To != nil && w.To.Before(*w.From) {
		return w, fiber.NewError(http.StatusBadRequest, "'to' must not be before 'from'")
	}

	return w, nil
}

func handleError(c *fiber.Ctx, err error) error {
	if fiberErr, ok := err.(*fiber.Error); ok {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiberErr.Message,
		})
	}

	return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
		"error": errInvalidRequest,
	})
}
