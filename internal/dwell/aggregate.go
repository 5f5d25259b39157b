package dwell

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"footfall/internal/events"
	"footfall/internal/timeframe"
)

// defaultWindowDays is the trailing range used when a caller supplies no
// window at all.
const defaultWindowDays = 7

// Params configures one aggregation run.
type Params struct {
	Dimension Dimension
	Window    timeframe.Window
}

// GroupStats is the statistics for one group key.
type GroupStats struct {
	Key string `json:"key"`
	Stats
}

// Report is a full aggregation result: per-group statistics plus a global
// summary over the same records.
type Report struct {
	Dimension Dimension    `json:"dimension"`
	From      *time.Time   `json:"from,omitempty"`
	To        *time.Time   `json:"to,omitempty"`
	Groups    []GroupStats `json:"groups"`
	Summary   Stats        `json:"summary"`
}

// Aggregate partitions the window's events by the dimension key and reduces
// each partition to {count, sum, mean, median, min, max}. Empty input
// produces a well-formed zeroed report, never an error. Time dimensions emit
// every bucket label even when empty.
func Aggregate(db *gorm.DB, logger *slog.Logger, params Params) (*Report, error) {
	if _, err := ParseDimension(string(params.Dimension)); err != nil {
		return nil, err
	}

	w := params.Window
	if w.IsZero() {
		w = timeframe.TrailingDays(time.Now().UTC(), defaultWindowDays)
	}

	var rows []events.AppearanceEvent
	err := events.ScopeWindow(db.Model(&events.AppearanceEvent{}), w).
		Order("started_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for aggregation: %w", err)
	}

	report := &Report{
		Dimension: params.Dimension,
		From:      w.From,
		To:        w.To,
	}

	partitions := make(map[string][]int64)
	var all []int64
	for i := range rows {
		key, ok := keyFor(params.Dimension, &rows[i])
		if !ok {
			continue
		}
		partitions[key] = append(partitions[key], rows[i].DwellSeconds)
		all = append(all, rows[i].DwellSeconds)
	}

	if dense := denseKeys(params.Dimension); dense != nil {
		report.Groups = make([]GroupStats, 0, len(dense))
		for _, key := range dense {
			report.Groups = append(report.Groups, GroupStats{Key: key, Stats: Summarize(partitions[key])})
		}
	} else {
		keys := make([]string, 0, len(partitions))
		for key := range partitions {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		report.Groups = make([]GroupStats, 0, len(keys))
		for _, key := range keys {
			report.Groups = append(report.Groups, GroupStats{Key: key, Stats: Summarize(partitions[key])})
		}
	}

	report.Summary = Summarize(all)

	logger.Debug("Aggregated dwell statistics",
		slog.String("dimension", string(params.Dimension)),
		slog.Int("groups", len(report.Groups)),
		slog.Int64("records", report.Summary.Count))

	return report, nil
}
