package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"footfall/internal/analytics"
	"footfall/internal/testsupport"
	"footfall/internal/timeframe"
)

var base = time.Date(2025, 6, 9, 11, 0, 0, 0, time.UTC) // Monday

func TestGetKPIMetrics(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	testsupport.CreateAppearanceEvent(t, db, "p1", "cam1", base, base.Add(60*time.Second))
	testsupport.CreateAppearanceEvent(t, db, "p1", "cam2", base.Add(time.Hour), base.Add(time.Hour+30*time.Second))
	testsupport.CreateAppearanceEvent(t, db, "p2", "cam1", base, base.Add(120*time.Second))

	testsupport.CreateSession(t, db, "p1", "cam1", base, 60)
	testsupport.CreateSession(t, db, "p2", "cam1", base, 120)

	w := timeframe.Between(base.Add(-time.Hour), base.Add(2*time.Hour))
	metrics, err := analytics.GetKPIMetrics(db, w)
	require.NoError(t, err)

	assert.Equal(t, int64(2), metrics.UniqueVisitors)
	assert.Equal(t, int64(3), metrics.TotalEvents)
	assert.Equal(t, int64(2), metrics.ActiveCameras)
	assert.Equal(t, int64(2), metrics.SessionCount)
	assert.Equal(t, int64(180), metrics.TotalDwellSeconds)
	assert.InDelta(t, 90.0, metrics.AvgDwellSeconds, 0.001)
	assert.Equal(t, int64(60), metrics.MedianDwellSecs)
	assert.Equal(t, int64(120), metrics.MaxDwellSeconds)
}

func TestGetKPIMetricsEmptyData(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	metrics, err := analytics.GetKPIMetrics(db, timeframe.AllTime())
	require.NoError(t, err)
	assert.Equal(t, int64(0), metrics.UniqueVisitors)
	assert.Equal(t, int64(0), metrics.SessionCount)
	assert.Equal(t, float64(0), metrics.AvgDwellSeconds)
}

func TestGetOccupancyDenseDailySeries(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	testsupport.CreateSession(t, db, "p1", "cam1", base, 60)
	testsupport.CreateSession(t, db, "p2", "cam1", base.Add(time.Hour), 60)
	testsupport.CreateSession(t, db, "p1", "cam2", base.AddDate(0, 0, 2), 60)

	w := timeframe.Between(base, base.AddDate(0, 0, 2))
	report, err := analytics.GetOccupancy(db, w, timeframe.BucketSizeDay)
	require.NoError(t, err)

	require.Len(t, report.Points, 3)
	assert.Equal(t, "2025-06-09", report.Points[0].Period)
	assert.Equal(t, int64(2), report.Points[0].VisitorCount)
	assert.Equal(t, int64(1), report.Points[0].CameraCount)

	// The quiet middle day is present with zero counts.
	assert.Equal(t, "2025-06-10", report.Points[1].Period)
	assert.Equal(t, int64(0), report.Points[1].VisitorCount)

	assert.Equal(t, int64(1), report.Points[2].VisitorCount)
	assert.Equal(t, int64(2), report.MaxVisitors)
	assert.InDelta(t, 1.0, report.AvgVisitors, 0.001)
}

func TestGetOccupancyRejectsUnsupportedBucketSize(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	_, err := analytics.GetOccupancy(db, timeframe.AllTime(), timeframe.BucketSizeYear)
	assert.Error(t, err)
}

func TestGetRepeatVisitorStats(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	// p1 visits three times, p2 once.
	testsupport.CreateSession(t, db, "p1", "cam1", base, 60)
	testsupport.CreateSession(t, db, "p1", "cam1", base.Add(2*time.Hour), 60)
	testsupport.CreateSession(t, db, "p1", "cam1", base.Add(4*time.Hour), 60)
	testsupport.CreateSession(t, db, "p2", "cam1", base, 60)

	stats, err := analytics.GetRepeatVisitorStats(db, timeframe.AllTime())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.UniqueVisitors)
	assert.Equal(t, int64(1), stats.RepeatVisitors)
	assert.InDelta(t, 0.5, stats.RepeatRate, 0.001)
	assert.Equal(t, int64(1), stats.FrequencyDist["1"])
	assert.Equal(t, int64(1), stats.FrequencyDist["3-5"])
	assert.Equal(t, int64(0), stats.FrequencyDist["2"])
}

func TestGetFootTrafficDenseSeries(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	testsupport.CreateAppearanceEvent(t, db, "p1", "cam1", base, base.Add(30*time.Second))
	testsupport.CreateAppearanceEvent(t, db, "p2", "cam1", base.Add(10*time.Minute), base.Add(11*time.Minute))
	testsupport.CreateAppearanceEvent(t, db, "p1", "cam1", base.Add(3*time.Hour), base.Add(3*time.Hour+time.Minute))

	w := timeframe.Between(base, base.Add(3*time.Hour))
	series, err := analytics.GetFootTraffic(db, w, timeframe.BucketSizeHour)
	require.NoError(t, err)

	require.Len(t, series.Points, 4)
	assert.Equal(t, "2025-06-09 11:00", series.Points[0].Bucket)
	assert.Equal(t, int64(2), series.Points[0].VisitorCount)
	assert.Equal(t, int64(2), series.Points[0].EventCount)
	assert.Equal(t, int64(0), series.Points[1].VisitorCount)
	assert.Equal(t, int64(1), series.Points[3].VisitorCount)
}

func TestCacheRoundTrip(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	payload := map[string]int{"visitors": 7}
	require.NoError(t, analytics.CachePut(db, logger, "test-key", payload, time.Minute))

	var out map[string]int
	require.True(t, analytics.CacheGet(db, "test-key", &out))
	assert.Equal(t, 7, out["visitors"])

	assert.False(t, analytics.CacheGet(db, "missing-key", &out))
}

func TestCacheExpiredEntriesMiss(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	require.NoError(t, analytics.CachePut(db, logger, "stale", "x", -time.Minute))

	var out string
	assert.False(t, analytics.CacheGet(db, "stale", &out))

	require.NoError(t, analytics.PurgeExpiredCache(db, logger))
	var count int64
	db.Model(&analytics.CacheEntry{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestGetComprehensiveUsesCache(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	testsupport.CreateSession(t, db, "p1", "cam1", base, 60)

	w := timeframe.Between(base.Add(-time.Hour), base.Add(time.Hour))
	first, err := analytics.GetComprehensive(db, logger, w, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.KPI.SessionCount)

	// New data inside the window is invisible until the cache expires.
	testsupport.CreateSession(t, db, "p2", "cam1", base.Add(time.Minute), 60)
	second, err := analytics.GetComprehensive(db, logger, w, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, first.KPI.SessionCount, second.KPI.SessionCount)
	assert.Equal(t, first.GeneratedAt.Unix(), second.GeneratedAt.Unix())
}
