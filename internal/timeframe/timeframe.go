// Package timeframe holds the shared time bucketing rules: calendar bucket
// truncation, the fixed reporting hours, and the Monday-first day ordering.
// All functions treat timestamps as naive local time; callers own timezone
// normalization before anything reaches this package.
package timeframe

import (
	"fmt"
	"time"
)

// BucketSize identifies a time bucket granularity.
type BucketSize string

const (
	BucketSizeHour      BucketSize = "hour"
	BucketSizeDay       BucketSize = "day"
	BucketSizeWeek      BucketSize = "week"
	BucketSizeMonth     BucketSize = "month"
	BucketSizeYear      BucketSize = "year"
	BucketSizeHourOfDay BucketSize = "hour_of_day"
	BucketSizeDayOfWeek BucketSize = "day_of_week"
)

// Reporting hours. Hour-of-day breakdowns always cover this closed range;
// events outside it are excluded from hour-of-day charts entirely.
const (
	OpeningHour = 10
	ClosingHour = 22
)

// HourSlotCount is the number of dense hour-of-day buckets (10:00 through
// 22:00 inclusive).
const HourSlotCount = ClosingHour - OpeningHour + 1

// dayOfWeekRemap converts Go/SQLite native weekday numbering (Sunday = 0)
// into Monday-first positions (Monday = 0 .. Sunday = 6).
var dayOfWeekRemap = [7]int{6, 0, 1, 2, 3, 4, 5}

// DayLabels are the Monday-first day-of-week bucket labels.
var DayLabels = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ParseBucketSize validates a caller-supplied bucket size string.
func ParseBucketSize(s string) (BucketSize, error) {
	switch BucketSize(s) {
	case BucketSizeHour, BucketSizeDay, BucketSizeWeek, BucketSizeMonth,
		BucketSizeYear, BucketSizeHourOfDay, BucketSizeDayOfWeek:
		return BucketSize(s), nil
	}
	return "", fmt.Errorf("unknown bucket size: %s", s)
}

// HourSlotIndex returns the dense bucket index for an hour of day, or -1 when
// the hour falls outside the reporting range.
func HourSlotIndex(hour int) int {
	if hour < OpeningHour || hour > ClosingHour {
		return -1
	}
	return hour - OpeningHour
}

// HourLabel formats an in-range hour as its chart label, e.g. "10 AM",
// "12 PM", "10 PM".
func HourLabel(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}

// HourLabels returns the dense labels for the reporting hour range.
func HourLabels() []string {
	labels := make([]string, 0, HourSlotCount)
	for h := OpeningHour; h <= ClosingHour; h++ {
		labels = append(labels, HourLabel(h))
	}
	return labels
}

// DayOfWeekIndex returns the Monday-first position (0..6) for a timestamp's
// weekday.
func DayOfWeekIndex(t time.Time) int {
	return dayOfWeekRemap[int(t.Weekday())]
}

// TruncateToBucket truncates a time to the start of its calendar bucket.
// Weeks start on Monday at 00:00. Months and years use exact calendar
// boundaries rather than fixed-length approximations.
func TruncateToBucket(t time.Time, size BucketSize) time.Time {
	year, month, day := t.Year(), t.Month(), t.Day()
	loc := t.Location()

	switch size {
	case BucketSizeYear:
		return time.Date(year, 1, 1, 0, 0, 0, 0, loc)
	case BucketSizeMonth:
		return time.Date(year, month, 1, 0, 0, 0, 0, loc)
	case BucketSizeWeek:
		weekday := int(t.Weekday())
		if weekday == 0 { // Sunday
			weekday = 7
		}
		return time.Date(year, month, day-(weekday-1), 0, 0, 0, 0, loc)
	case BucketSizeDay:
		return time.Date(year, month, day, 0, 0, 0, 0, loc)
	case BucketSizeHour:
		return time.Date(year, month, day, t.Hour(), 0, 0, 0, loc)
	default:
		return t
	}
}

// NextBucket advances a bucket start to the start of the following bucket.
func NextBucket(t time.Time, size BucketSize) time.Time {
	switch size {
	case BucketSizeYear:
		return t.AddDate(1, 0, 0)
	case BucketSizeMonth:
		return t.AddDate(0, 1, 0)
	case BucketSizeWeek:
		return t.AddDate(0, 0, 7)
	case BucketSizeDay:
		return t.AddDate(0, 0, 1)
	case BucketSizeHour:
		return t.Add(time.Hour)
	default:
		return t
	}
}

// BucketKey formats the canonical string key for a timestamp's bucket. The
// key doubles as the chart label for calendar buckets, and matches the
// strftime output of GroupByExpression so database results can be joined
// back to dense series.
func BucketKey(t time.Time, size BucketSize) (string, error) {
	switch size {
	case BucketSizeHour:
		return t.Format("2006-01-02 15:00"), nil
	case BucketSizeDay:
		return t.Format("2006-01-02"), nil
	case BucketSizeWeek:
		return TruncateToBucket(t, BucketSizeWeek).Format("2006-01-02"), nil
	case BucketSizeMonth:
		return t.Format("2006-01"), nil
	case BucketSizeYear:
		return t.Format("2006"), nil
	case BucketSizeHourOfDay:
		if HourSlotIndex(t.Hour()) < 0 {
			return "", fmt.Errorf("hour %d outside reporting range", t.Hour())
		}
		return HourLabel(t.Hour()), nil
	case BucketSizeDayOfWeek:
		return DayLabels[DayOfWeekIndex(t)], nil
	default:
		return "", fmt.Errorf("unknown bucket size: %s", size)
	}
}

// GroupByExpression returns the SQLite expression that buckets the given
// timestamp column the same way BucketKey does.
func GroupByExpression(column string, size BucketSize) (string, error) {
	switch size {
	case BucketSizeHour:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d %%H:00', %s)", column), nil
	case BucketSizeDay:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", column), nil
	case BucketSizeWeek:
		return fmt.Sprintf("date(%s, 'start of day', '-' || ((strftime('%%w', %s) + 6) %% 7) || ' days')", column, column), nil
	case BucketSizeMonth:
		return fmt.Sprintf("strftime('%%Y-%%m', %s)", column), nil
	case BucketSizeYear:
		return fmt.Sprintf("strftime('%%Y', %s)", column), nil
	case BucketSizeHourOfDay:
		return fmt.Sprintf("CAST(strftime('%%H', %s) AS INTEGER)", column), nil
	case BucketSizeDayOfWeek:
		return fmt.Sprintf("CAST(strftime('%%w', %s) AS INTEGER)", column), nil
	default:
		return "", fmt.Errorf("unknown bucket size: %s", size)
	}
}
