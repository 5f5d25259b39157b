package dwell_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"footfall/internal/dwell"
)

func TestSummarize(t *testing.T) {
	testCases := []struct {
		name     string
		values   []int64
		expected dwell.Stats
	}{
		{
			name:     "empty input yields zero stats",
			values:   nil,
			expected: dwell.Stats{},
		},
		{
			name:   "single value",
			values: []int64{42},
			expected: dwell.Stats{
				Count: 1, Sum: 42, Mean: 42, Median: 42, Min: 42, Max: 42,
			},
		},
		{
			name:   "odd count takes the middle element",
			values: []int64{300, 100, 200},
			expected: dwell.Stats{
				Count: 3, Sum: 600, Mean: 200, Median: 200, Min: 100, Max: 300,
			},
		},
		{
			name:   "even count takes the lower middle element",
			values: []int64{600, 60, 240, 120},
			expected: dwell.Stats{
				Count: 4, Sum: 1020, Mean: 255, Median: 120, Min: 60, Max: 600,
			},
		},
		{
			name:   "zero durations are legitimate values",
			values: []int64{0, 0, 10},
			expected: dwell.Stats{
				Count: 3, Sum: 10, Mean: 10.0 / 3.0, Median: 0, Min: 0, Max: 10,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := dwell.Summarize(tc.values)
			assert.Equal(t, tc.expected.Count, got.Count)
			assert.Equal(t, tc.expected.Sum, got.Sum)
			assert.InDelta(t, tc.expected.Mean, got.Mean, 0.0001)
			assert.Equal(t, tc.expected.Median, got.Median)
			assert.Equal(t, tc.expected.Min, got.Min)
			assert.Equal(t, tc.expected.Max, got.Max)
		})
	}
}

func TestSummarizeSumMeanConsistency(t *testing.T) {
	values := []int64{13, 999, 4, 4, 77, 1024, 0}
	got := dwell.Summarize(values)
	assert.InDelta(t, float64(got.Sum), got.Mean*float64(got.Count), 0.0001)
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	values := []int64{3, 1, 2}
	dwell.Summarize(values)
	assert.Equal(t, []int64{3, 1, 2}, values)
}
