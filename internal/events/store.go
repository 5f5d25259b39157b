package events

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"footfall/internal/timeframe"
)

// ScopeWindow applies inclusive window bounds on started_at.
func ScopeWindow(db *gorm.DB, w timeframe.Window) *gorm.DB {
	if w.From != nil {
		db = db.Where("started_at >= ?", *w.From)
	}
	if w.To != nil {
		db = db.Where("started_at <= ?", *w.To)
	}
	return db
}

// EventsForReconstruction fetches the events feeding session matching,
// ordered by (person_id, camera_id, started_at) with ingestion order (id)
// breaking timestamp ties.
func EventsForReconstruction(db *gorm.DB, w timeframe.Window) ([]AppearanceEvent, error) {
	var rows []AppearanceEvent
	err := ScopeWindow(db.Model(&AppearanceEvent{}), w).
		Where("event_type IN ?", []EventType{EventTypeEntry, EventTypeExit, EventTypeAppearance}).
		Order("person_id, camera_id, started_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for reconstruction: %w", err)
	}
	return rows, nil
}

// InsertBatch writes a chunk of events inside the caller's transaction.
func InsertBatch(tx *gorm.DB, batch []*AppearanceEvent) error {
	if len(batch) == 0 {
		return nil
	}
	if err := tx.Create(&batch).Error; err != nil {
		return fmt.Errorf("failed to insert event batch: %w", err)
	}
	return nil
}

// CameraSummary describes one camera as seen in the ingested data.
type CameraSummary struct {
	CameraID          string    `json:"camera_id"`
	CameraDescription string    `json:"camera_description"`
	EventCount        int64     `json:"event_count"`
	LastSeenAt        time.Time `json:"last_seen_at"`
}

// ListCameras returns the distinct cameras present in the event store.
func ListCameras(db *gorm.DB) ([]CameraSummary, error) {
	var results []CameraSummary
	query := `
    SELECT
        camera_id,
        MAX(camera_description) as camera_description,
        COUNT(*) as event_count,
        MAX(started_at) as last_seen_at
    FROM appearance_events
    GROUP BY camera_id
    ORDER BY camera_id
    `
	if err := db.Raw(query).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}
	return results, nil
}

// CountEvents returns the number of events inside the window.
func CountEvents(db *gorm.DB, w timeframe.Window) (int64, error) {
	var count int64
	err := ScopeWindow(db.Model(&AppearanceEvent{}), w).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
