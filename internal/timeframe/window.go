package timeframe

import "time"

// Window is a half-open-by-convention time range; a nil bound means
// unbounded on that side. Both bounds, when present, are inclusive to match
// the BETWEEN semantics used by the SQL layer.
type Window struct {
	From *time.Time
	To   *time.Time
}

// AllTime is the unbounded window.
func AllTime() Window {
	return Window{}
}

// TrailingDays returns a window covering the last n days ending at now.
func TrailingDays(now time.Time, n int) Window {
	from := now.AddDate(0, 0, -n)
	return Window{From: &from, To: &now}
}

// Between builds a window from two concrete bounds.
func Between(from, to time.Time) Window {
	return Window{From: &from, To: &to}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.To != nil && t.After(*w.To) {
		return false
	}
	return true
}

// IsZero reports whether the window is unbounded on both sides.
func (w Window) IsZero() bool {
	return w.From == nil && w.To == nil
}

// Buckets enumerates the dense calendar bucket starts covering the window.
// Returns nil when either bound is missing or reversed; dense series need a
// concrete range, and every bucket in it appears.
func (w Window) Buckets(size BucketSize) []time.Time {
	if w.From == nil || w.To == nil || w.To.Before(*w.From) {
		return nil
	}

	var starts []time.Time
	for cur := TruncateToBucket(*w.From, size); !cur.After(*w.To); {
		starts = append(starts, cur)
		next := NextBucket(cur, size)
		if !next.After(cur) {
			// Non-calendar sizes do not advance; no dense series for them.
			return nil
		}
		cur = next
	}
	return starts
}
