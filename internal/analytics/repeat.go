package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"footfall/internal/timeframe"
)

// RepeatVisitorStats describes how often visitors come back within a window.
type RepeatVisitorStats struct {
	UniqueVisitors int64            `json:"unique_visitors"`
	RepeatVisitors int64            `json:"repeat_visitors"`
	RepeatRate     float64          `json:"repeat_rate"`
	FrequencyDist  map[string]int64 `json:"frequency_distribution"`
}

// frequencyBucket labels a visit count for the distribution chart.
func frequencyBucket(visits int64) string {
	switch {
	case visits <= 1:
		return "1"
	case visits == 2:
		return "2"
	case visits <= 5:
		return "3-5"
	default:
		return "6+"
	}
}

// GetRepeatVisitorStats counts sessions per person in the window and derives
// the repeat rate and a visit frequency distribution.
func GetRepeatVisitorStats(db *gorm.DB, w timeframe.Window) (*RepeatVisitorStats, error) {
	var rows []struct {
		PersonID string
		Visits   int64
	}
	query := `
    SELECT person_id, COUNT(*) as visits
    FROM person_sessions
    ` + windowClause("entry_time", w) + `
    GROUP BY person_id
    `
	if err := db.Raw(query, windowArgs(w)...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error fetching visit counts: %w", err)
	}

	stats := &RepeatVisitorStats{
		FrequencyDist: map[string]int64{"1": 0, "2": 0, "3-5": 0, "6+": 0},
	}

	for _, r := range rows {
		stats.UniqueVisitors++
		if r.Visits > 1 {
			stats.RepeatVisitors++
		}
		stats.FrequencyDist[frequencyBucket(r.Visits)]++
	}

	if stats.UniqueVisitors > 0 {
		stats.RepeatRate = float64(stats.RepeatVisitors) / float64(stats.UniqueVisitors)
	}

	return stats, nil
}
