package sessions

import (
	"fmt"

	"gorm.io/gorm"

	"footfall/internal/timeframe"
)

// ScopeEntryWindow applies inclusive window bounds on entry_time.
func ScopeEntryWindow(db *gorm.DB, w timeframe.Window) *gorm.DB {
	if w.From != nil {
		db = db.Where("entry_time >= ?", *w.From)
	}
	if w.To != nil {
		db = db.Where("entry_time <= ?", *w.To)
	}
	return db
}

// SessionsInWindow returns sessions whose entry time falls in the window,
// ordered by entry time.
func SessionsInWindow(db *gorm.DB, w timeframe.Window) ([]Session, error) {
	var rows []Session
	err := ScopeEntryWindow(db.Model(&Session{}), w).
		Order("entry_time, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	return rows, nil
}

// CountSessions returns the number of sessions inside the window.
func CountSessions(db *gorm.DB, w timeframe.Window) (int64, error) {
	var count int64
	err := ScopeEntryWindow(db.Model(&Session{}), w).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
