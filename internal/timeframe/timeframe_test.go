package timeframe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateToBucketWeekStartsOnMonday(t *testing.T) {
	testCases := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "wednesday truncates to previous monday",
			input:    time.Date(2025, 6, 11, 15, 30, 0, 0, time.UTC),
			expected: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monday truncates to itself",
			input:    time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "sunday belongs to the week that started six days earlier",
			input:    time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC),
			expected: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "week crossing month boundary",
			input:    time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, TruncateToBucket(tc.input, BucketSizeWeek))
		})
	}
}

func TestTruncateToBucketCalendarExact(t *testing.T) {
	input := time.Date(2024, 2, 29, 13, 45, 12, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), TruncateToBucket(input, BucketSizeMonth))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), TruncateToBucket(input, BucketSizeYear))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), TruncateToBucket(input, BucketSizeDay))
	assert.Equal(t, time.Date(2024, 2, 29, 13, 0, 0, 0, time.UTC), TruncateToBucket(input, BucketSizeHour))
}

func TestHourSlots(t *testing.T) {
	assert.Equal(t, 13, HourSlotCount)
	assert.Equal(t, -1, HourSlotIndex(9))
	assert.Equal(t, 0, HourSlotIndex(10))
	assert.Equal(t, 12, HourSlotIndex(22))
	assert.Equal(t, -1, HourSlotIndex(23))

	labels := HourLabels()
	require.Len(t, labels, 13)
	assert.Equal(t, "10 AM", labels[0])
	assert.Equal(t, "12 PM", labels[2])
	assert.Equal(t, "10 PM", labels[12])
}

func TestDayOfWeekIndexIsMondayFirst(t *testing.T) {
	// 2025-06-09 is a Monday.
	monday := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	for offset := 0; offset < 7; offset++ {
		day := monday.AddDate(0, 0, offset)
		assert.Equal(t, offset, DayOfWeekIndex(day), "offset %d", offset)
	}

	sunday := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 6, DayOfWeekIndex(sunday))
	assert.Equal(t, "Sunday", DayLabels[DayOfWeekIndex(sunday)])
}

func TestBucketKey(t *testing.T) {
	input := time.Date(2025, 6, 11, 14, 20, 0, 0, time.UTC)

	testCases := []struct {
		size     BucketSize
		expected string
	}{
		{BucketSizeHour, "2025-06-11 14:00"},
		{BucketSizeDay, "2025-06-11"},
		{BucketSizeWeek, "2025-06-09"},
		{BucketSizeMonth, "2025-06"},
		{BucketSizeYear, "2025"},
		{BucketSizeHourOfDay, "2 PM"},
		{BucketSizeDayOfWeek, "Wednesday"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.size), func(t *testing.T) {
			key, err := BucketKey(input, tc.size)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, key)
		})
	}
}

func TestBucketKeyRejectsOutOfRangeHourOfDay(t *testing.T) {
	earlyMorning := time.Date(2025, 6, 11, 7, 0, 0, 0, time.UTC)
	_, err := BucketKey(earlyMorning, BucketSizeHourOfDay)
	assert.Error(t, err)
}

func TestWindowTrailingDays(t *testing.T) {
	now := time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC)
	w := TrailingDays(now, 7)

	require.NotNil(t, w.From)
	require.NotNil(t, w.To)
	assert.Equal(t, time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC), *w.From)
	assert.True(t, w.Contains(now))
	assert.False(t, w.Contains(now.AddDate(0, 0, -8)))
}

func TestWindowBucketsDenseCoverage(t *testing.T) {
	w := Between(
		time.Date(2025, 6, 9, 10, 30, 0, 0, time.UTC),
		time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC),
	)

	days := w.Buckets(BucketSizeDay)
	require.Len(t, days, 4)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), days[3])

	assert.Nil(t, AllTime().Buckets(BucketSizeDay))
}

func TestWindowBucketsLongHourlyRange(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	w := Between(from, from.AddDate(0, 0, 50))

	// 50 days of hourly buckets, both bounds inclusive.
	hours := w.Buckets(BucketSizeHour)
	require.Len(t, hours, 50*24+1)
	assert.Equal(t, from, hours[0])
	assert.Equal(t, from.AddDate(0, 0, 50), hours[len(hours)-1])
}

func TestWindowBucketsDegenerateRanges(t *testing.T) {
	from := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	// Reversed bounds produce no series instead of spinning.
	assert.Nil(t, Between(from, from.AddDate(0, 0, -1)).Buckets(BucketSizeDay))

	// Dense time-of-day sizes have no calendar successor.
	assert.Nil(t, Between(from, from.AddDate(0, 0, 1)).Buckets(BucketSizeHourOfDay))
}

func TestParseBucketSize(t *testing.T) {
	size, err := ParseBucketSize("day_of_week")
	require.NoError(t, err)
	assert.Equal(t, BucketSizeDayOfWeek, size)

	_, err = ParseBucketSize("fortnight")
	assert.Error(t, err)
}
