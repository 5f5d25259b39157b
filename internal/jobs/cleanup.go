package jobs

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"footfall/internal/analytics"
	"footfall/internal/config"
	"footfall/internal/database"
	"footfall/internal/events"
)

// CleanupJob handles cleanup of old appearance events and expired cache entries
type CleanupJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewCleanupJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run removes appearance events older than the retention period.
// This helps with GDPR data minimization and reduces storage usage.
func (j *CleanupJob) Run() error {
	retentionDays := j.cfg.EventsRetentionDays
	db := j.dbManager.GetConnection()
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	j.logger.Info("Starting cleanup of old appearance events",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff_date", cutoffDate))

	// Count events to be deleted first
	var countToDelete int64
	if err := db.Model(&events.AppearanceEvent{}).
		Where("started_at < ?", cutoffDate).
		Count(&countToDelete).Error; err != nil {
		j.logger.Error("Failed to count old appearance events", slog.Any("error", err))
		return err
	}

	if countToDelete == 0 {
		j.logger.Debug("No old appearance events to clean up")
		return j.purgeCache(db)
	}

	// Delete in batches to avoid locking the database for too long
	batchSize := 1000
	totalDeleted := int64(0)

	for {
		result := db.Where("started_at < ?", cutoffDate).
			Limit(batchSize).
			Delete(&events.AppearanceEvent{})

		if result.Error != nil {
			j.logger.Error("Failed to delete old appearance events",
				slog.Any("error", result.Error),
				slog.Int64("deleted_so_far", totalDeleted))
			return result.Error
		}

		totalDeleted += result.RowsAffected

		if result.RowsAffected < int64(batchSize) {
			break
		}

		// Small delay between batches to prevent database lock contention
		time.Sleep(100 * time.Millisecond)
	}

	j.logger.Info("Cleaned up old appearance events",
		slog.Int64("deleted_count", totalDeleted),
		slog.Int("retention_days", retentionDays))

	return j.purgeCache(db)
}

func (j *CleanupJob) purgeCache(db *gorm.DB) error {
	if err := analytics.PurgeExpiredCache(db, j.logger); err != nil {
		j.logger.Error("Failed to purge expired cache entries", slog.Any("error", err))
		return err
	}
	return nil
}
