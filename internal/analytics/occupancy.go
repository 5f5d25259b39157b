package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"footfall/internal/timeframe"
)

// OccupancyPoint is one period in an occupancy series.
type OccupancyPoint struct {
	Period       string `json:"period"`
	VisitorCount int64  `json:"visitor_count"`
	CameraCount  int64  `json:"camera_count"`
}

// OccupancyReport is an occupancy series plus its roll-up.
type OccupancyReport struct {
	BucketSize  timeframe.BucketSize `json:"bucket_size"`
	Points      []OccupancyPoint     `json:"points"`
	MaxVisitors int64                `json:"max_visitors"`
	AvgVisitors float64              `json:"avg_visitors"`
}

// GetOccupancy groups sessions by entry-time period and counts distinct
// visitors and cameras per period. Bounded windows are zero-filled so quiet
// periods show up in charts.
func GetOccupancy(db *gorm.DB, w timeframe.Window, size timeframe.BucketSize) (*OccupancyReport, error) {
	switch size {
	case timeframe.BucketSizeHour, timeframe.BucketSizeDay, timeframe.BucketSizeWeek:
	default:
		return nil, fmt.Errorf("unsupported occupancy bucket size: %s", size)
	}

	expr, err := timeframe.GroupByExpression("entry_time", size)
	if err != nil {
		return nil, err
	}

	var rows []OccupancyPoint
	query := fmt.Sprintf(`
    SELECT
        %s as period,
        COUNT(DISTINCT person_id) as visitor_count,
        COUNT(DISTINCT camera_id) as camera_count
    FROM person_sessions
    %s
    GROUP BY period
    ORDER BY period
    `, expr, windowClause("entry_time", w))
	if err := db.Raw(query, windowArgs(w)...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error fetching occupancy: %w", err)
	}

	report := &OccupancyReport{BucketSize: size}

	if starts := w.Buckets(size); starts != nil {
		byPeriod := make(map[string]OccupancyPoint, len(rows))
		for _, r := range rows {
			byPeriod[r.Period] = r
		}
		report.Points = make([]OccupancyPoint, 0, len(starts))
		for _, start := range starts {
			key, err := timeframe.BucketKey(start, size)
			if err != nil {
				return nil, err
			}
			point := OccupancyPoint{Period: key}
			if hit, ok := byPeriod[key]; ok {
				point.VisitorCount = hit.VisitorCount
				point.CameraCount = hit.CameraCount
			}
			report.Points = append(report.Points, point)
		}
	} else {
		report.Points = rows
	}

	var total int64
	for _, p := range report.Points {
		total += p.VisitorCount
		if p.VisitorCount > report.MaxVisitors {
			report.MaxVisitors = p.VisitorCount
		}
	}
	if len(report.Points) > 0 {
		report.AvgVisitors = float64(total) / float64(len(report.Points))
	}

	return report, nil
}
