package schedule

import (
	"sort"
	"time"
)

// Interval is a half-open [Start, End) span of time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Minutes returns the interval length in whole minutes.
func (iv Interval) Minutes() int {
	return int(iv.End.Sub(iv.Start).Minutes())
}

// IsValid reports whether the interval has positive length.
func (iv Interval) IsValid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether other lies fully inside iv.
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// Merge unions a set of intervals into a sorted, non-overlapping list.
// Touching intervals are coalesced. Merging an already-merged list returns
// an equal list.
func Merge(ivs []Interval) []Interval {
	valid := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if iv.IsValid() {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Start.Before(valid[j].Start)
	})

	merged := []Interval{valid[0]}
	for _, iv := range valid[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// SplitAtMidnight slices an interval at every day boundary it crosses, so
// per-day bucketing stays well defined. Intervals within a single day come
// back unchanged.
func SplitAtMidnight(iv Interval) []Interval {
	if !iv.IsValid() {
		return nil
	}

	var parts []Interval
	cur := iv.Start
	for cur.Before(iv.End) {
		nextMidnight := DayOf(cur).AddDate(0, 0, 1)
		end := iv.End
		if nextMidnight.Before(end) {
			end = nextMidnight
		}
		parts = append(parts, Interval{Start: cur, End: end})
		cur = end
	}
	return parts
}

// Subtract removes the busy intervals from the free intervals. Both inputs
// may be unsorted; the result is sorted and non-overlapping.
func Subtract(free, busy []Interval) []Interval {
	result := Merge(free)
	for _, b := range Merge(busy) {
		var next []Interval
		for _, f := range result {
			if !f.Overlaps(b) {
				next = append(next, f)
				continue
			}
			if b.Start.After(f.Start) {
				next = append(next, Interval{Start: f.Start, End: b.Start})
			}
			if b.End.Before(f.End) {
				next = append(next, Interval{Start: b.End, End: f.End})
			}
		}
		result = next
	}
	return result
}

// DayOf truncates an instant to midnight in its own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// BucketByDay splits intervals at midnight and groups them by calendar day.
// Keys are midnight instants as produced by DayOf.
func BucketByDay(ivs []Interval) map[time.Time][]Interval {
	buckets := make(map[time.Time][]Interval)
	for _, iv := range ivs {
		for _, part := range SplitAtMidnight(iv) {
			day := DayOf(part.Start)
			buckets[day] = append(buckets[day], part)
		}
	}
	for day, list := range buckets {
		buckets[day] = Merge(list)
	}
	return buckets
}
