package analytics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// CacheEntry stores a computed analytics payload so repeated dashboard
// requests skip recomputation. Correctness never depends on a hit; expired
// or missing entries just mean recompute.
type CacheEntry struct {
	ID           uint      `gorm:"primaryKey"`
	CacheKey     string    `gorm:"uniqueIndex;not null"`
	Payload      string    `gorm:"type:text;not null"`
	CalculatedAt time.Time `gorm:"not null"`
	ExpiresAt    *time.Time
}

// TableName keeps the historical table name.
func (CacheEntry) TableName() string {
	return "analytics_cache"
}

// CacheGet unmarshals a fresh cached payload into out. Returns false on
// miss, expiry, or decode failure.
func CacheGet(db *gorm.DB, key string, out any) bool {
	var entry CacheEntry
	if err := db.Where("cache_key = ?", key).First(&entry).Error; err != nil {
		return false
	}
	if entry.ExpiresAt != nil && entry.ExpiresAt.Before(time.Now().UTC()) {
		return false
	}
	return json.Unmarshal([]byte(entry.Payload), out) == nil
}

// CachePut stores a payload under key with the given TTL. Zero or negative
// TTL stores a non-expiring entry.
func CachePut(db *gorm.DB, logger *slog.Logger, key string, payload any, ttl time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}

	now := time.Now().UTC()
	var expiresAt *time.Time
	if ttl > 0 {
		e := now.Add(ttl)
		expiresAt = &e
	}

	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		err := tx.Exec(`
            INSERT INTO analytics_cache (cache_key, payload, calculated_at, expires_at)
            VALUES (?, ?, ?, ?)
            ON CONFLICT(cache_key) DO UPDATE SET
                payload = excluded.payload,
                calculated_at = excluded.calculated_at,
                expires_at = excluded.expires_at
        `, key, string(raw), now, expiresAt).Error
		if err != nil {
			return fmt.Errorf("failed to store cache entry %s: %w", key, err)
		}
		return nil
	})
}

// PurgeExpiredCache removes entries past their expiry.
func PurgeExpiredCache(db *gorm.DB, logger *slog.Logger) error {
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Where("expires_at IS NOT NULL AND expires_at < ?", time.Now().UTC()).
			Delete(&CacheEntry{}).Error
	})
}
