package dwell

import (
	"fmt"

	"footfall/internal/events"
	"footfall/internal/timeframe"
)

// Dimension is a grouping key for dwell aggregation. The set is closed;
// anything else is rejected with an AnalyticsError before any data is read.
type Dimension string

const (
	DimensionPerson    Dimension = "person"
	DimensionCamera    Dimension = "camera"
	DimensionGender    Dimension = "gender"
	DimensionAgeGroup  Dimension = "age_group"
	DimensionHourOfDay Dimension = "hour_of_day"
	DimensionDayOfWeek Dimension = "day_of_week"
)

// UnknownKey is the sentinel group for records whose dimension value is
// absent. Such records stay in the denominator instead of being dropped.
const UnknownKey = "Unknown"

// AnalyticsError reports an analytics request that cannot be served, such as
// an unsupported grouping dimension.
type AnalyticsError struct {
	Reason string
}

func (e *AnalyticsError) Error() string {
	return fmt.Sprintf("analytics request failed: %s", e.Reason)
}

// ParseDimension validates a caller-supplied dimension string.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(s) {
	case DimensionPerson, DimensionCamera, DimensionGender,
		DimensionAgeGroup, DimensionHourOfDay, DimensionDayOfWeek:
		return Dimension(s), nil
	}
	return "", &AnalyticsError{Reason: fmt.Sprintf("unsupported grouping dimension: %q", s)}
}

// keyFor maps a record to its group key for the dimension. ok=false excludes
// the record from this grouping entirely (only time dimensions do that, for
// hours outside the reporting range).
func keyFor(dim Dimension, ev *events.AppearanceEvent) (key string, ok bool) {
	switch dim {
	case DimensionPerson:
		return orUnknown(ev.PersonID), true
	case DimensionCamera:
		return orUnknown(ev.CameraDescription), true
	case DimensionGender:
		return orOther(ev.Gender), true
	case DimensionAgeGroup:
		return orOther(ev.AgeGroup), true
	case DimensionHourOfDay:
		if timeframe.HourSlotIndex(ev.StartedAt.Hour()) < 0 {
			return "", false
		}
		return timeframe.HourLabel(ev.StartedAt.Hour()), true
	case DimensionDayOfWeek:
		return timeframe.DayLabels[timeframe.DayOfWeekIndex(ev.StartedAt)], true
	}
	return "", false
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownKey
	}
	return s
}

func orOther(s string) string {
	if s == "" {
		return events.DemographicOther
	}
	return s
}

// denseKeys returns the full, ordered bucket label set for time dimensions,
// so zero-valued buckets appear in output. Non-time dimensions have no dense
// key set.
func denseKeys(dim Dimension) []string {
	switch dim {
	case DimensionHourOfDay:
		return timeframe.HourLabels()
	case DimensionDayOfWeek:
		return timeframe.DayLabels[:]
	}
	return nil
}
