// Package leave derives per-day availability from soldiers' vacation date
// ranges: who is away, who departs or returns today, and the per-day counts
// the monthly calendar shows.
//
// Missing data is read as "no vacations": a soldier whose ranges could not
// be fetched is indistinguishable from one who has none, and both count as
// available. Fail-open is the documented product behavior.
package leave

import "time"

// Range is an inclusive vacation window: the soldier is away from Start
// through End, both days counted.
type Range struct {
	Start time.Time
	End   time.Time
}

// DayState is a soldier's availability on one specific day.
//
// Boundary days count as available: a soldier departing today can still
// stand a morning duty and one returning today an evening one. OnVacation
// is true only strictly inside a range.
type DayState struct {
	OnVacation     bool
	LeavingToday   bool
	ReturningToday bool
}

func (s DayState) Available() bool { return !s.OnVacation }

// StateFor folds every range covering day into one DayState. At most one
// covering range is expected, but overlapping data must not break the fold.
func StateFor(day time.Time, ranges []Range) DayState {
	d := dateOf(day)
	var state DayState
	for _, r := range ranges {
		start, end := dateOf(r.Start), dateOf(r.End)
		if d.Before(start) || d.After(end) {
			continue
		}
		if start.Equal(d) {
			state.LeavingToday = true
		}
		if end.Equal(d) {
			state.ReturningToday = true
		}
		if start.Before(d) && end.After(d) {
			state.OnVacation = true
		}
	}
	return state
}

// NextUpcoming returns the earliest range start strictly after day, used to
// order available soldiers by how soon they next depart.
func NextUpcoming(day time.Time, ranges []Range) (time.Time, bool) {
	d := dateOf(day)
	var next time.Time
	found := false
	for _, r := range ranges {
		start := dateOf(r.Start)
		if !start.After(d) {
			continue
		}
		if !found || start.Before(next) {
			next = start
			found = true
		}
	}
	return next, found
}

// DayCount is one calendar cell: how many soldiers are available vs away.
type DayCount struct {
	Day        time.Time
	Available  int
	OnVacation int
}

// MonthStats folds StateFor over every soldier for every rendered day.
// Soldiers missing from bySoldier have no ranges and count available.
func MonthStats(days []time.Time, soldierIDs []int64, bySoldier map[int64][]Range) []DayCount {
	counts := make([]DayCount, 0, len(days))
	for _, day := range days {
		c := DayCount{Day: dateOf(day)}
		for _, id := range soldierIDs {
			if StateFor(day, bySoldier[id]).Available() {
				c.Available++
			} else {
				c.OnVacation++
			}
		}
		counts = append(counts, c)
	}
	return counts
}

// DaysOfMonth lists every calendar day of the given month at UTC midnight.
func DaysOfMonth(year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	var days []time.Time
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
