package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, day string, hhmm string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", day+" "+hhmm)
	require.NoError(t, err)
	return ts
}

func span(t *testing.T, day, from, to string) Interval {
	t.Helper()
	return Interval{Start: at(t, day, from), End: at(t, day, to)}
}

func TestMergeCoalescesOverlapAndTouch(t *testing.T) {
	in := []Interval{
		span(t, "2026-03-02", "13:00", "14:00"),
		span(t, "2026-03-02", "09:00", "10:30"),
		span(t, "2026-03-02", "10:00", "11:00"),
		span(t, "2026-03-02", "11:00", "11:30"),
	}

	got := Merge(in)

	require.Len(t, got, 2)
	assert.Equal(t, span(t, "2026-03-02", "09:00", "11:30"), got[0])
	assert.Equal(t, span(t, "2026-03-02", "13:00", "14:00"), got[1])
}

func TestMergeIdempotent(t *testing.T) {
	in := []Interval{
		span(t, "2026-03-02", "09:00", "10:00"),
		span(t, "2026-03-02", "09:30", "11:00"),
		span(t, "2026-03-03", "08:00", "08:15"),
	}

	once := Merge(in)
	twice := Merge(once)

	assert.Equal(t, once, twice)
}

func TestMergeDropsInvalid(t *testing.T) {
	in := []Interval{
		{Start: at(t, "2026-03-02", "10:00"), End: at(t, "2026-03-02", "10:00")},
		span(t, "2026-03-02", "09:00", "09:30"),
	}

	got := Merge(in)

	require.Len(t, got, 1)
	assert.Equal(t, span(t, "2026-03-02", "09:00", "09:30"), got[0])
}

func TestSplitAtMidnight(t *testing.T) {
	crossing := Interval{
		Start: at(t, "2026-03-02", "22:00"),
		End:   at(t, "2026-03-04", "01:00"),
	}

	parts := SplitAtMidnight(crossing)

	require.Len(t, parts, 3)
	assert.Equal(t, at(t, "2026-03-02", "22:00"), parts[0].Start)
	assert.Equal(t, at(t, "2026-03-03", "00:00"), parts[0].End)
	assert.Equal(t, at(t, "2026-03-03", "00:00"), parts[1].Start)
	assert.Equal(t, at(t, "2026-03-04", "00:00"), parts[1].End)
	assert.Equal(t, at(t, "2026-03-04", "01:00"), parts[2].End)
}

func TestSplitAtMidnightSameDay(t *testing.T) {
	iv := span(t, "2026-03-02", "09:00", "17:00")

	parts := SplitAtMidnight(iv)

	require.Len(t, parts, 1)
	assert.Equal(t, iv, parts[0])
}

func TestSubtract(t *testing.T) {
	free := []Interval{span(t, "2026-03-02", "09:00", "17:00")}
	busy := []Interval{
		span(t, "2026-03-02", "10:00", "11:00"),
		span(t, "2026-03-02", "12:00", "13:00"),
		span(t, "2026-03-02", "16:30", "18:00"),
	}

	got := Subtract(free, busy)

	require.Len(t, got, 3)
	assert.Equal(t, span(t, "2026-03-02", "09:00", "10:00"), got[0])
	assert.Equal(t, span(t, "2026-03-02", "11:00", "12:00"), got[1])
	assert.Equal(t, span(t, "2026-03-02", "13:00", "16:30"), got[2])
}

func TestSubtractSwallowsWholeWindow(t *testing.T) {
	free := []Interval{span(t, "2026-03-02", "09:00", "10:00")}
	busy := []Interval{span(t, "2026-03-02", "08:00", "11:00")}

	assert.Empty(t, Subtract(free, busy))
}

func TestBucketByDay(t *testing.T) {
	ivs := []Interval{
		span(t, "2026-03-02", "09:00", "10:00"),
		{Start: at(t, "2026-03-02", "23:00"), End: at(t, "2026-03-03", "01:00")},
	}

	buckets := BucketByDay(ivs)

	require.Len(t, buckets, 2)
	day1 := DayOf(at(t, "2026-03-02", "00:00"))
	day2 := DayOf(at(t, "2026-03-03", "00:00"))
	require.Len(t, buckets[day1], 2)
	require.Len(t, buckets[day2], 1)
	assert.Equal(t, at(t, "2026-03-03", "01:00"), buckets[day2][0].End)
}

func TestIntervalMinutes(t *testing.T) {
	assert.Equal(t, 90, span(t, "2026-03-02", "09:00", "10:30").Minutes())
}
