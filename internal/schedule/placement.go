package schedule

import (
	"sort"
	"time"
)

// TaskSpec is the placement engine's view of a task. It carries only what
// first-fit needs; persistence concerns stay outside this package.
type TaskSpec struct {
	ID              uint
	Idx             int
	Name            string
	DurationMinutes int
	Priority        int
	Recurring       bool
	Indefinite      bool
	CalendarEvent   bool
}

// Slot is one planned placement produced by Place.
type Slot struct {
	TaskID uint
	Date   time.Time
	Start  time.Time
	End    time.Time
}

// Unplaced records a task that found no sufficient gap anywhere in range.
// It is reported to the caller, never silently dropped.
type Unplaced struct {
	TaskID uint
	Name   string
	Reason string
}

// Request describes one placement run over a fixed date range.
//
// WindowsFor yields the eligible windows for a day (see WindowsForDay); Busy
// holds the merged busy intervals in absolute time. Given equal inputs, Place
// returns equal output.
type Request struct {
	Start      time.Time
	Days       int
	Tasks      []TaskSpec
	Busy       []Interval
	WindowsFor func(day time.Time) []Interval
}

// Result is the outcome of a placement run.
type Result struct {
	Slots       []Slot
	Unscheduled []Unplaced
}

// freeCalendar tracks the remaining free intervals per day as placements
// consume them. Days are indexed by offset from the range start so iteration
// order is fixed.
type freeCalendar struct {
	start time.Time
	days  [][]Interval
}

func newFreeCalendar(req Request) *freeCalendar {
	start := DayOf(req.Start)
	busyByDay := BucketByDay(req.Busy)

	cal := &freeCalendar{start: start, days: make([][]Interval, req.Days)}
	for i := 0; i < req.Days; i++ {
		day := start.AddDate(0, 0, i)
		windows := req.WindowsFor(day)
		if len(windows) == 0 {
			continue
		}
		cal.days[i] = Subtract(windows, busyByDay[day])
	}
	return cal
}

func (c *freeCalendar) day(i int) time.Time {
	return c.start.AddDate(0, 0, i)
}

// takeFirst claims the first free interval on day i that is at least minutes
// long, consuming from its start.
func (c *freeCalendar) takeFirst(i, minutes int) (Interval, bool) {
	for j, iv := range c.days[i] {
		if iv.Minutes() < minutes {
			continue
		}
		claimed := Interval{Start: iv.Start, End: iv.Start.Add(time.Duration(minutes) * time.Minute)}
		if claimed.End.Equal(iv.End) {
			c.days[i] = append(c.days[i][:j], c.days[i][j+1:]...)
		} else {
			c.days[i][j].Start = claimed.End
		}
		return claimed, true
	}
	return Interval{}, false
}

// takeAt claims [start, start+minutes) on day i if fully free, carving the
// surrounding interval. Used for recurring replication at a fixed offset.
func (c *freeCalendar) takeAt(i int, start time.Time, minutes int) (Interval, bool) {
	want := Interval{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
	for j, iv := range c.days[i] {
		if !iv.Contains(want) {
			continue
		}
		rest := make([]Interval, 0, len(c.days[i])+1)
		rest = append(rest, c.days[i][:j]...)
		if want.Start.After(iv.Start) {
			rest = append(rest, Interval{Start: iv.Start, End: want.Start})
		}
		if want.End.Before(iv.End) {
			rest = append(rest, Interval{Start: want.End, End: iv.End})
		}
		rest = append(rest, c.days[i][j+1:]...)
		c.days[i] = rest
		return want, true
	}
	return Interval{}, false
}

// Place runs deterministic first-fit: tasks in priority-descending order
// (Idx ascending as the tie-break), dates scanned chronologically, each task
// claiming the start of the first sufficient gap. Recurring tasks replicate
// onto later eligible dates at the same clock offset where possible, falling
// back to first-fit within the day before skipping it. Indefinite tasks get a
// single open-ended starting placement.
func Place(req Request) Result {
	tasks := make([]TaskSpec, len(req.Tasks))
	copy(tasks, req.Tasks)
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority > tasks[j].Priority
		}
		return tasks[i].Idx < tasks[j].Idx
	})

	cal := newFreeCalendar(req)

	var result Result
	for _, task := range tasks {
		firstDay, slot, ok := placeFirstFit(cal, task)
		if !ok {
			result.Unscheduled = append(result.Unscheduled, Unplaced{
				TaskID: task.ID,
				Name:   task.Name,
				Reason: "no free interval of sufficient length in range",
			})
			continue
		}
		result.Slots = append(result.Slots, slot)

		if task.Recurring {
			result.Slots = append(result.Slots, replicate(cal, task, firstDay, slot)...)
		}
	}
	return result
}

func placeFirstFit(cal *freeCalendar, task TaskSpec) (int, Slot, bool) {
	for i := range cal.days {
		iv, ok := cal.takeFirst(i, task.DurationMinutes)
		if !ok {
			continue
		}
		return i, Slot{TaskID: task.ID, Date: cal.day(i), Start: iv.Start, End: iv.End}, true
	}
	return 0, Slot{}, false
}

// replicate copies a recurring task onto each later eligible day, preferring
// the anchor's clock offset and retrying anywhere in the day's free list
// before skipping the day.
func replicate(cal *freeCalendar, task TaskSpec, firstDay int, anchor Slot) []Slot {
	offset := anchor.Start.Sub(DayOf(anchor.Start))

	var slots []Slot
	for i := firstDay + 1; i < len(cal.days); i++ {
		if len(cal.days[i]) == 0 {
			continue
		}
		preferred := cal.day(i).Add(offset)
		iv, ok := cal.takeAt(i, preferred, task.DurationMinutes)
		if !ok {
			iv, ok = cal.takeFirst(i, task.DurationMinutes)
		}
		if !ok {
			continue
		}
		slots = append(slots, Slot{TaskID: task.ID, Date: cal.day(i), Start: iv.Start, End: iv.End})
	}
	return slots
}
