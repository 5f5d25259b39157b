package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"footfall/internal/pkg/async"
	"footfall/internal/timeframe"
)

// ComprehensiveReport bundles the dashboard's analytics blocks for one
// window.
type ComprehensiveReport struct {
	KPI            *KPIMetrics         `json:"kpi"`
	Occupancy      *OccupancyReport    `json:"occupancy"`
	RepeatVisitors *RepeatVisitorStats `json:"repeat_visitors"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// GetComprehensive computes the full dashboard payload, consulting the
// analytics cache first. A cache failure is logged and ignored; the fresh
// computation is always authoritative.
func GetComprehensive(db *gorm.DB, logger *slog.Logger, w timeframe.Window, ttl time.Duration) (*ComprehensiveReport, error) {
	key := comprehensiveCacheKey(w)

	var cached ComprehensiveReport
	if CacheGet(db, key, &cached) {
		logger.Debug("Serving comprehensive analytics from cache", slog.String("key", key))
		return &cached, nil
	}

	// Compute the independent blocks in parallel
	tasks := []async.Task{
		{
			Name: "kpi",
			Execute: func() (interface{}, error) {
				return GetKPIMetrics(db, w)
			},
		},
		{
			Name: "occupancy",
			Execute: func() (interface{}, error) {
				return GetOccupancy(db, w, timeframe.BucketSizeDay)
			},
		},
		{
			Name: "repeatVisitors",
			Execute: func() (interface{}, error) {
				return GetRepeatVisitorStats(db, w)
			},
		},
	}

	pool := async.NewPool(3)
	results := pool.Execute(context.Background(), tasks)

	for _, task := range tasks {
		if result, ok := results[task.Name]; ok && result.Err != nil {
			return nil, fmt.Errorf("error computing %s: %w", task.Name, result.Err)
		}
	}

	report := &ComprehensiveReport{
		KPI:            results["kpi"].Data.(*KPIMetrics),
		Occupancy:      results["occupancy"].Data.(*OccupancyReport),
		RepeatVisitors: results["repeatVisitors"].Data.(*RepeatVisitorStats),
		GeneratedAt:    time.Now().UTC(),
	}

	if err := CachePut(db, logger, key, report, ttl); err != nil {
		logger.Warn("Failed to cache comprehensive analytics", slog.Any("error", err))
	}

	return report, nil
}

func comprehensiveCacheKey(w timeframe.Window) string {
	from, to := "all", "all"
	if w.From != nil {
		from = w.From.UTC().Format(time.RFC3339)
	}
	if w.To != nil {
		to = w.To.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("comprehensive:%s:%s", from, to)
}
