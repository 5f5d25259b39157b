package sessions

import (
	"fmt"
	"time"
)

// sessionIDTimeFormat is the entry-time component of a session identifier.
const sessionIDTimeFormat = "20060102_150405"

// Session is one reconstructed visit of a person at a camera. SessionID is
// deterministic so re-running reconstruction over the same data upserts
// instead of duplicating.
type Session struct {
	ID           uint       `gorm:"primaryKey;autoIncrement"`
	SessionID    string     `gorm:"uniqueIndex;not null"`
	PersonID     string     `gorm:"index;not null"`
	CameraID     string     `gorm:"index;not null"`
	EntryTime    time.Time  `gorm:"index;not null"`
	ExitTime     *time.Time
	DwellSeconds int64 `gorm:"not null;default:0"`
	CreatedAt    time.Time
}

// TableName keeps the historical table name used by existing deployments.
func (Session) TableName() string {
	return "person_sessions"
}

// BuildSessionID derives the deterministic identifier for a visit: the
// person, the camera, and the entry time down to the second.
func BuildSessionID(personID, cameraID string, entryTime time.Time) string {
	return fmt.Sprintf("%s_%s_%s", personID, cameraID, entryTime.Format(sessionIDTimeFormat))
}
