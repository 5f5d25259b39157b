package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"footfall/internal/timeframe"
)

// TrafficPoint is one bucket in a foot traffic series.
type TrafficPoint struct {
	Bucket       string `json:"bucket"`
	VisitorCount int64  `json:"visitor_count"`
	EventCount   int64  `json:"event_count"`
}

// TrafficSeries is a dense, zero-filled foot traffic chart.
type TrafficSeries struct {
	BucketSize timeframe.BucketSize `json:"bucket_size"`
	From       time.Time            `json:"from"`
	To         time.Time            `json:"to"`
	Points     []TrafficPoint       `json:"points"`
}

// GetFootTraffic counts distinct visitors and events per calendar bucket.
// An unbounded window defaults to the trailing 7 days. Every bucket in the
// range appears in the series, zero-valued when quiet.
func GetFootTraffic(db *gorm.DB, w timeframe.Window, size timeframe.BucketSize) (*TrafficSeries, error) {
	switch size {
	case timeframe.BucketSizeHour, timeframe.BucketSizeDay,
		timeframe.BucketSizeWeek, timeframe.BucketSizeMonth:
	default:
		return nil, fmt.Errorf("unsupported foot traffic bucket size: %s", size)
	}

	if w.From == nil || w.To == nil {
		w = timeframe.TrailingDays(time.Now().UTC(), 7)
	}

	expr, err := timeframe.GroupByExpression("started_at", size)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Bucket       string
		VisitorCount int64
		EventCount   int64
	}
	query := fmt.Sprintf(`
    SELECT
        %s as bucket,
        COUNT(DISTINCT person_id) as visitor_count,
        COUNT(*) as event_count
    FROM appearance_events
    WHERE started_at BETWEEN ? AND ?
    GROUP BY bucket
    `, expr)
	if err := db.Raw(query, *w.From, *w.To).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error fetching foot traffic: %w", err)
	}

	byBucket := make(map[string]TrafficPoint, len(rows))
	for _, r := range rows {
		byBucket[r.Bucket] = TrafficPoint{Bucket: r.Bucket, VisitorCount: r.VisitorCount, EventCount: r.EventCount}
	}

	series := &TrafficSeries{BucketSize: size, From: *w.From, To: *w.To}
	for _, start := range w.Buckets(size) {
		key, err := timeframe.BucketKey(start, size)
		if err != nil {
			return nil, err
		}
		point := TrafficPoint{Bucket: key}
		if hit, ok := byBucket[key]; ok {
			point = hit
		}
		series.Points = append(series.Points, point)
	}

	return series, nil
}
