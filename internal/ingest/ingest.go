// Package ingest loads camera event exports (CSV) into the event store.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"footfall/internal/events"
)

// Required CSV columns. Uploads missing any of these are rejected outright.
var requiredColumns = []string{
	"person_id",
	"camera_id",
	"camera_description",
	"utc_time_started_readable",
	"utc_time_ended_readable",
}

// timestampLayouts are tried in order when parsing time columns. Exports
// come from several camera firmware versions with different formats.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
}

// Result summarizes one upload.
type Result struct {
	UploadID      string   `json:"upload_id"`
	TotalRows     int      `json:"total_rows"`
	ProcessedRows int      `json:"processed_rows"`
	SkippedRows   int      `json:"skipped_rows"`
	Errors        []string `json:"errors"`
}

// Options tune batch processing.
type Options struct {
	BatchSize int
	MaxRows   int
}

// ProcessCSV validates, normalizes, and stores a camera event export.
//
// Structural problems (missing columns, empty file, row cap exceeded) return
// a ValidationError and store nothing. Malformed rows are skipped and
// reported; everything parseable is committed in batches.
func ProcessCSV(dbManager cartridge.DBManager, logger *slog.Logger, r io.Reader, opts Options) (*Result, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ValidationError{Reason: "empty file"}
	}
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("unreadable header: %v", err)}
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &Result{
		UploadID: uuid.NewString(),
		Errors:   []string{},
	}

	db := dbManager.GetConnection()
	batch := make([]*events.AppearanceEvent, 0, opts.BatchSize)
	line := 1

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		toWrite := batch
		batch = batch[:0]
		return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
			return events.InsertBatch(tx, toWrite)
		})
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.TotalRows++
			result.SkippedRows++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		result.TotalRows++
		if opts.MaxRows > 0 && result.TotalRows > opts.MaxRows {
			// Batches may already be committed; discard them so an oversized
			// upload stores nothing.
			if result.ProcessedRows > 0 {
				derr := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
					return tx.Where("upload_id = ?", result.UploadID).
						Delete(&events.AppearanceEvent{}).Error
				})
				if derr != nil {
					return nil, fmt.Errorf("failed to discard oversized upload %s: %w", result.UploadID, derr)
				}
			}
			return nil, &ValidationError{Reason: fmt.Sprintf("upload exceeds row limit of %d", opts.MaxRows)}
		}

		ev, err := parseRow(columns, record, result.UploadID)
		if err != nil {
			result.SkippedRows++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			logger.Debug("Skipping malformed row", slog.Int("line", line), slog.Any("error", err))
			continue
		}

		batch = append(batch, ev)
		if len(batch) >= opts.BatchSize {
			if err := flush(); err != nil {
				return nil, fmt.Errorf("failed to store event batch: %w", err)
			}
			result.ProcessedRows += opts.BatchSize
		}
	}

	pending := len(batch)
	if err := flush(); err != nil {
		return nil, fmt.Errorf("failed to store event batch: %w", err)
	}
	result.ProcessedRows += pending

	logger.Info("Upload processed",
		slog.String("upload_id", result.UploadID),
		slog.Int("total", result.TotalRows),
		slog.Int("processed", result.ProcessedRows),
		slog.Int("skipped", result.SkippedRows))

	return result, nil
}

// mapColumns resolves header names to indexes, case-insensitively.
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Reason: "missing required columns: " + strings.Join(missing, ", ")}
	}
	return columns, nil
}

func parseRow(columns map[string]int, record []string, uploadID string) (*events.AppearanceEvent, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	personID := field("person_id")
	cameraID := field("camera_id")
	if personID == "" || cameraID == "" {
		return nil, fmt.Errorf("missing person_id or camera_id")
	}

	startedAt, err := parseTimestamp(field("utc_time_started_readable"))
	if err != nil {
		return nil, fmt.Errorf("bad start time: %w", err)
	}

	eventType := events.EventType(strings.ToLower(field("type")))
	if eventType == "" {
		eventType = events.EventTypeAppearance
	}
	if !events.ValidEventType(eventType) {
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}

	ev := &events.AppearanceEvent{
		PersonID:          personID,
		CameraID:          cameraID,
		CameraDescription: field("camera_description"),
		CameraGroup:       field("camera_group"),
		ZoneName:          field("zone_name"),
		EventType:         eventType,
		StartedAt:         startedAt,
		AgeGroup:          defaultDemographic(field("age_group")),
		Gender:            defaultDemographic(field("gender")),
		UploadID:          uploadID,
		CreatedAt:         time.Now().UTC(),
	}

	if raw := field("utc_time_ended_readable"); raw != "" {
		endedAt, err := parseTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("bad end time: %w", err)
		}
		ev.EndedAt = &endedAt
		// Precomputed dwell, clamped so a reversed range never goes negative.
		if d := endedAt.Sub(startedAt) / time.Second; d > 0 {
			ev.DwellSeconds = int64(d)
		}
	}

	return ev, nil
}

// parseTimestamp accepts the layouts above plus raw unix seconds, including
// the scientific notation some exports emit for the epoch columns.
func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs > 0 {
		sec := int64(secs)
		nsec := int64((secs - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func defaultDemographic(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == "null" || v == "none" || v == "nan" {
		return events.DemographicOther
	}
	return v
}
