package events

import "time"

// EventType represents the type of a camera appearance event.
type EventType string

const (
	EventTypeEntry      EventType = "entry"
	EventTypeExit       EventType = "exit"
	EventTypeLoiter     EventType = "loiter"
	EventTypeCrowd      EventType = "crowd"
	EventTypeAppearance EventType = "appearance"
)

// DemographicOther is the sentinel stored when a demographic attribute is
// absent or blank. Demographic columns are never empty.
const DemographicOther = "other"

// AgeInconclusive marks rows where age estimation failed. Such rows stay in
// totals but are excluded from age breakdowns.
const AgeInconclusive = "inconclusive"

// ValidEventType reports whether t belongs to the closed event type set.
func ValidEventType(t EventType) bool {
	switch t {
	case EventTypeEntry, EventTypeExit, EventTypeLoiter, EventTypeCrowd, EventTypeAppearance:
		return true
	}
	return false
}

// AppearanceEvent is a single camera detection of a person. Rows are
// immutable after ingestion except for the session back-reference, which the
// session reconstructor fills in.
//
// PersonID is the tracker-assigned identity. The same value can recur across
// cameras for different physical people, so identity is only meaningful per
// (person_id, camera_id).
type AppearanceEvent struct {
	ID                uint      `gorm:"primaryKey;autoIncrement"`
	PersonID          string    `gorm:"index:idx_person_camera_time;not null"`
	CameraID          string    `gorm:"index:idx_person_camera_time;not null"`
	CameraDescription string    `gorm:"index;not null"`
	CameraGroup       string
	ZoneName          string
	EventType         EventType  `gorm:"index;not null"`
	StartedAt         time.Time  `gorm:"index:idx_person_camera_time;index;not null"`
	EndedAt           *time.Time
	DwellSeconds      int64  `gorm:"not null;default:0"`
	AgeGroup          string `gorm:"not null;default:other"`
	Gender            string `gorm:"not null;default:other"`
	SessionID         string `gorm:"index"`
	UploadID          string `gorm:"index"`
	CreatedAt         time.Time
}
