package schedule

import (
	"time"

	"goalplanner/internal/model"
)

// EveningBufferMinutes is the gap left between the end of the regular workday
// and the start of an evening window.
const EveningBufferMinutes = 30

const minutesPerDay = 24 * 60

// UsagePattern is a detected signal about when a user actually works.
// MentionMinutes carries an explicit start time extracted from the user's own
// words ("after 19:00"), as minutes from midnight; zero when absent.
type UsagePattern struct {
	TimeOfDay      string
	HoursPerDay    int
	MentionMinutes int
}

// IsEvening reports whether the pattern asks for evening placement.
func (p *UsagePattern) IsEvening() bool {
	return p != nil && p.TimeOfDay == "evening" && p.HoursPerDay > 0
}

// WindowsForDay turns raw preferences into the concrete placement windows for
// one calendar day. It returns nil for ineligible days (weekends when those
// are disallowed).
//
// Evening mode, when feasible, replaces the daytime window: the user is
// committed elsewhere during regular hours. An evening window that would run
// past midnight is infeasible and the daytime window is used instead.
func WindowsForDay(day time.Time, settings model.WorkdaySettings, usage *UsagePattern) []Interval {
	day = DayOf(day)

	if !settings.AllowWeekends {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return nil
		}
	}

	if usage.IsEvening() {
		if win, ok := eveningWindow(day, settings, usage); ok {
			return []Interval{win}
		}
	}

	return daytimeWindows(day, settings)
}

func daytimeWindows(day time.Time, settings model.WorkdaySettings) []Interval {
	startMin := settings.StartHour * 60
	endMin := settings.EndHour * 60
	if endMin <= startMin {
		return nil
	}

	work := Interval{
		Start: day.Add(time.Duration(startMin) * time.Minute),
		End:   day.Add(time.Duration(endMin) * time.Minute),
	}

	if settings.LunchEndMinute <= settings.LunchStartMinute {
		return []Interval{work}
	}
	lunch := Interval{
		Start: day.Add(time.Duration(settings.LunchStartMinute) * time.Minute),
		End:   day.Add(time.Duration(settings.LunchEndMinute) * time.Minute),
	}
	return Subtract([]Interval{work}, []Interval{lunch})
}

func eveningWindow(day time.Time, settings model.WorkdaySettings, usage *UsagePattern) (Interval, bool) {
	startMin := settings.EndHour*60 + EveningBufferMinutes
	if usage.MentionMinutes > startMin {
		startMin = usage.MentionMinutes
	}
	endMin := startMin + usage.HoursPerDay*60

	if startMin >= minutesPerDay || endMin > minutesPerDay {
		return Interval{}, false
	}

	return Interval{
		Start: day.Add(time.Duration(startMin) * time.Minute),
		End:   day.Add(time.Duration(endMin) * time.Minute),
	}, true
}
