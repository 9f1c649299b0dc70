package leave

import (
	"testing"
	"time"
)

func d(day int) time.Time { return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC) }

var janVacation = []Range{{Start: d(10), End: d(15)}}

func TestStateFor_Boundaries(t *testing.T) {
	cases := []struct {
		day  time.Time
		want DayState
	}{
		{d(9), DayState{}},
		{d(10), DayState{LeavingToday: true}},
		{d(12), DayState{OnVacation: true}},
		{d(15), DayState{ReturningToday: true}},
		{d(16), DayState{}},
	}
	for _, c := range cases {
		got := StateFor(c.day, janVacation)
		if got != c.want {
			t.Errorf("StateFor(%s) = %+v, want %+v", c.day.Format("2006-01-02"), got, c.want)
		}
	}
}

func TestStateFor_BoundaryDaysAreAvailable(t *testing.T) {
	if !StateFor(d(10), janVacation).Available() {
		t.Error("departure day must count available")
	}
	if StateFor(d(12), janVacation).Available() {
		t.Error("day strictly inside the range must not count available")
	}
	if !StateFor(d(15), janVacation).Available() {
		t.Error("return day must count available")
	}
}

func TestStateFor_SingleDayRange(t *testing.T) {
	got := StateFor(d(20), []Range{{Start: d(20), End: d(20)}})
	want := DayState{LeavingToday: true, ReturningToday: true}
	if got != want {
		t.Fatalf("single-day range: got %+v, want %+v", got, want)
	}
	if !got.Available() {
		t.Fatal("single-day range is all boundary, soldier stays available")
	}
}

func TestStateFor_ToleratesOverlappingRanges(t *testing.T) {
	ranges := []Range{
		{Start: d(10), End: d(15)},
		{Start: d(12), End: d(18)},
	}
	got := StateFor(d(12), ranges)
	if !got.OnVacation || !got.LeavingToday {
		t.Fatalf("overlapping ranges must both contribute: %+v", got)
	}
}

func TestStateFor_FailOpen(t *testing.T) {
	// No fetched ranges - fetch failure or genuinely none - must look the
	// same: available every day.
	for _, ranges := range [][]Range{nil, {}} {
		for day := 1; day <= 31; day++ {
			if !StateFor(d(day), ranges).Available() {
				t.Fatalf("day %d: zero ranges must mean available", day)
			}
		}
	}
}

func TestNextUpcoming(t *testing.T) {
	ranges := []Range{
		{Start: d(25), End: d(28)},
		{Start: d(18), End: d(20)},
		{Start: d(5), End: d(8)},
	}
	next, ok := NextUpcoming(d(12), ranges)
	if !ok || !next.Equal(d(18)) {
		t.Fatalf("want next departure Jan 18, got %v ok=%v", next, ok)
	}

	if _, ok := NextUpcoming(d(30), ranges); ok {
		t.Fatal("no range starts after Jan 30")
	}
	// A range starting today is not "upcoming".
	next, ok = NextUpcoming(d(18), ranges)
	if !ok || !next.Equal(d(25)) {
		t.Fatalf("range starting today must be skipped: got %v ok=%v", next, ok)
	}
}

func TestMonthStats(t *testing.T) {
	soldiers := []int64{1, 2, 3}
	bySoldier := map[int64][]Range{
		1: {{Start: d(10), End: d(15)}},
		// soldier 2 has no entry at all: fail-open, always available
		3: {{Start: d(14), End: d(16)}},
	}

	counts := MonthStats([]time.Time{d(9), d(12), d(15)}, soldiers, bySoldier)
	if len(counts) != 3 {
		t.Fatalf("want 3 day counts, got %d", len(counts))
	}

	// Jan 9: nobody away.
	if counts[0].Available != 3 || counts[0].OnVacation != 0 {
		t.Errorf("Jan 9: got %+v", counts[0])
	}
	// Jan 12: soldier 1 strictly inside.
	if counts[1].Available != 2 || counts[1].OnVacation != 1 {
		t.Errorf("Jan 12: got %+v", counts[1])
	}
	// Jan 15: soldier 1 returns (available), soldier 3 strictly inside.
	if counts[2].Available != 2 || counts[2].OnVacation != 1 {
		t.Errorf("Jan 15: got %+v", counts[2])
	}
}

func TestDaysOfMonth(t *testing.T) {
	days := DaysOfMonth(2025, time.February)
	if len(days) != 28 {
		t.Fatalf("Feb 2025 has 28 days, got %d", len(days))
	}
	if !days[0].Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first day wrong: %v", days[0])
	}
	if len(DaysOfMonth(2024, time.February)) != 29 {
		t.Fatal("Feb 2024 is a leap month")
	}
}
