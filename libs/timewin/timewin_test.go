package timewin

import (
	"testing"
	"time"
)

var day = time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)

func TestResolve_SameDay(t *testing.T) {
	start, end := Resolve(day, "08:00", "14:00")
	if !start.Equal(day.Add(8 * time.Hour)) {
		t.Fatalf("start: want 08:00, got %s", start.Format(time.RFC3339))
	}
	if !end.Equal(day.Add(14 * time.Hour)) {
		t.Fatalf("end: want 14:00 same day, got %s", end.Format(time.RFC3339))
	}
}

func TestResolve_Overnight(t *testing.T) {
	start, end := Resolve(day, "22:00", "06:00")
	if !start.Equal(day.Add(22 * time.Hour)) {
		t.Fatalf("start: want 2025-01-19T22:00, got %s", start.Format(time.RFC3339))
	}
	if !end.Equal(day.Add(30 * time.Hour)) {
		t.Fatalf("end: want 2025-01-20T06:00, got %s", end.Format(time.RFC3339))
	}
}

func TestResolve_EqualEndpointsRollOver(t *testing.T) {
	// A 24h watch written as 08:00 -> 08:00 must end on the next day,
	// never produce an empty window.
	start, end := Resolve(day, "08:00", "08:00")
	if got := end.Sub(start); got != 24*time.Hour {
		t.Fatalf("want 24h window, got %s", got)
	}
}

func TestResolve_SecondsIgnored(t *testing.T) {
	s1, e1 := Resolve(day, "22:00:00", "06:00:00")
	s2, e2 := Resolve(day, "22:00", "06:00")
	if !s1.Equal(s2) || !e1.Equal(e2) {
		t.Fatalf("seconds should not affect resolution: %s-%s vs %s-%s", s1, e1, s2, e2)
	}
}

func TestOverlap(t *testing.T) {
	aStart, aEnd := day.Add(9*time.Hour), day.Add(12*time.Hour)
	if d := Overlap(aStart, aEnd, day.Add(11*time.Hour), day.Add(15*time.Hour)); d != time.Hour {
		t.Fatalf("partial overlap: want 1h, got %s", d)
	}
	if d := Overlap(aStart, aEnd, day.Add(14*time.Hour), day.Add(16*time.Hour)); d != 0 {
		t.Fatalf("disjoint windows: want 0, got %s", d)
	}
	if d := Overlap(aStart, aEnd, aEnd, day.Add(13*time.Hour)); d != 0 {
		t.Fatalf("touching windows: want 0, got %s", d)
	}
}

func TestBestSlot_PrefersLargestOverlap(t *testing.T) {
	candidates := []Slot{
		{ID: 1, Start: "20:00", End: "23:59"},
		{ID: 2, Start: "00:00", End: "08:00"},
	}
	// Raw 22:00->06:00 overlaps slot 1 for ~2h and slot 2 for 6h
	// (slot 2 lands on the next morning, where the overnight window ends).
	best, ok := BestSlot(day, "22:00", "06:00", candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if best.ID != 2 {
		t.Fatalf("want slot 2 (larger overlap), got slot %d", best.ID)
	}
}

func TestBestSlot_OvernightMatchesNextMorningSlot(t *testing.T) {
	// A morning-only slot shares nothing with the overnight window on its
	// own day; it must still match via the day+1 resolution.
	candidates := []Slot{{ID: 4, Start: "00:00", End: "08:00"}}
	best, ok := BestSlot(day, "22:00", "06:00", candidates)
	if !ok {
		t.Fatal("expected the next-morning slot to match")
	}
	if best.ID != 4 {
		t.Fatalf("want slot 4, got slot %d", best.ID)
	}

	// Same-day raw windows never look at day+1.
	if _, ok := BestSlot(day, "09:00", "10:00", candidates); ok {
		t.Fatal("same-day window must not match a disjoint morning slot")
	}
}

func TestBestSlot_TieKeepsFirstCandidate(t *testing.T) {
	candidates := []Slot{
		{ID: 7, Start: "09:00", End: "10:00"},
		{ID: 8, Start: "10:00", End: "11:00"},
	}
	// Raw 09:30->10:30 overlaps both candidates for exactly 30 minutes.
	best, ok := BestSlot(day, "09:30", "10:30", candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if best.ID != 7 {
		t.Fatalf("tie must keep first candidate, got slot %d", best.ID)
	}
}

func TestBestSlot_NoOverlapFallsBack(t *testing.T) {
	candidates := []Slot{{ID: 3, Start: "14:00", End: "16:00"}}
	if _, ok := BestSlot(day, "09:00", "10:00", candidates); ok {
		t.Fatal("disjoint candidate must not match")
	}
	if _, ok := BestSlot(day, "09:00", "10:00", nil); ok {
		t.Fatal("empty candidate list must not match")
	}
}

func TestIsOvernight(t *testing.T) {
	cases := []struct {
		start, end string
		want       bool
	}{
		{"08:00", "14:00", false},
		{"22:00", "06:00", true},
		{"08:00", "08:00", true},
		{"22:00:00", "06:00:00", true},
		{"00:00", "23:59", false},
	}
	for _, c := range cases {
		if got := IsOvernight(c.start, c.end); got != c.want {
			t.Errorf("IsOvernight(%q, %q) = %v, want %v", c.start, c.end, got, c.want)
		}
	}
}
