// Package dwell computes grouped dwell time statistics over appearance
// events and reconstructed sessions.
package dwell

import "sort"

// Stats is the fixed statistical shape every grouping produces.
type Stats struct {
	Count  int64   `json:"count"`
	Sum    int64   `json:"sum"`
	Mean   float64 `json:"mean"`
	Median int64   `json:"median"`
	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
}

// Summarize computes exact statistics over dwell values in seconds. An empty
// input yields the zero Stats. Median is positional: the lower of the two
// middle elements when the count is even, no averaging.
func Summarize(values []int64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })

	var sum int64
	for _, v := range sorted {
		sum += v
	}

	return Stats{
		Count:  int64(len(sorted)),
		Sum:    sum,
		Mean:   float64(sum) / float64(len(sorted)),
		Median: sorted[(len(sorted)-1)/2],
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}
