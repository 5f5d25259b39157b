// Package analytics computes dashboard metrics over events and
// reconstructed sessions.
package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"footfall/internal/dwell"
	"footfall/internal/sessions"
	"footfall/internal/timeframe"
)

// KPIMetrics is the dashboard headline block.
type KPIMetrics struct {
	UniqueVisitors    int64   `json:"unique_visitors"`
	TotalEvents       int64   `json:"total_events"`
	ActiveCameras     int64   `json:"active_cameras"`
	AvgDwellSeconds   float64 `json:"avg_dwell_seconds"`
	MedianDwellSecs   int64   `json:"median_dwell_seconds"`
	MaxDwellSeconds   int64   `json:"max_dwell_seconds"`
	SessionCount      int64   `json:"session_count"`
	TotalDwellSeconds int64   `json:"total_dwell_seconds"`
}

// GetKPIMetrics computes the headline numbers for a window. Empty data
// yields zeroes, not an error.
func GetKPIMetrics(db *gorm.DB, w timeframe.Window) (*KPIMetrics, error) {
	metrics := &KPIMetrics{}

	var counts struct {
		Visitors int64
		Events   int64
		Cameras  int64
	}
	query := `
    SELECT
        COUNT(DISTINCT person_id) as visitors,
        COUNT(*) as events,
        COUNT(DISTINCT camera_id) as cameras
    FROM appearance_events
    ` + windowClause("started_at", w)
	if err := db.Raw(query, windowArgs(w)...).Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("error fetching event counts: %w", err)
	}
	metrics.UniqueVisitors = counts.Visitors
	metrics.TotalEvents = counts.Events
	metrics.ActiveCameras = counts.Cameras

	var dwellValues []int64
	err := sessions.ScopeEntryWindow(db.Model(&sessions.Session{}), w).
		Pluck("dwell_seconds", &dwellValues).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching session dwell values: %w", err)
	}

	stats := dwell.Summarize(dwellValues)
	metrics.SessionCount = stats.Count
	metrics.TotalDwellSeconds = stats.Sum
	metrics.AvgDwellSeconds = stats.Mean
	metrics.MedianDwellSecs = stats.Median
	metrics.MaxDwellSeconds = stats.Max

	return metrics, nil
}

// windowClause builds the WHERE clause for optional window bounds.
func windowClause(column string, w timeframe.Window) string {
	switch {
	case w.From != nil && w.To != nil:
		return fmt.Sprintf("WHERE %s BETWEEN ? AND ?", column)
	case w.From != nil:
		return fmt.Sprintf("WHERE %s >= ?", column)
	case w.To != nil:
		return fmt.Sprintf("WHERE %s <= ?", column)
	}
	return ""
}

func windowArgs(w timeframe.Window) []any {
	var args []any
	if w.From != nil {
		args = append(args, *w.From)
	}
	if w.To != nil {
		args = append(args, *w.To)
	}
	return args
}
