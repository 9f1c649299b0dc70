package handlers

import (
	"testing"
	"time"

	"github.com/platoonhq/rosterd/libs/timewin"
	"github.com/platoonhq/rosterd/services/roster-service/internal/model"
)

func assignment(id int64, mission string, soldier string, start, end time.Time) model.Assignment {
	return model.Assignment{
		ID: id, MissionID: 1, MissionName: mission,
		SoldierName: soldier, StartAt: start, EndAt: end,
	}
}

func TestGroupedRosterMergesEqualWindows(t *testing.T) {
	start := time.Date(2025, 1, 19, 8, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	rows := []model.Assignment{
		assignment(1, "Gate", "Avi", start, end),
		assignment(2, "Gate", "Ben", start, end),
		assignment(3, "Gate", "Gil", end, end.Add(4*time.Hour)),
	}

	groups := groupedRoster(rows)
	if len(groups) != 1 {
		t.Fatalf("missions = %d, want 1", len(groups))
	}
	if len(groups[0].Slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(groups[0].Slots))
	}
	if len(groups[0].Slots[0].Items) != 2 {
		t.Fatalf("first slot items = %d, want 2", len(groups[0].Slots[0].Items))
	}
	if groups[0].Slots[0].Items[0].SoldierName != "Avi" {
		t.Fatalf("first item = %q, want Avi", groups[0].Slots[0].Items[0].SoldierName)
	}
}

func TestGroupedRosterEmpty(t *testing.T) {
	if got := groupedRoster(nil); len(got) != 0 {
		t.Fatalf("groups = %d, want 0", len(got))
	}
}

func TestHistoryEntrySnapsToBestSlot(t *testing.T) {
	entry := model.HistoryItem{
		MissionID:   1,
		MissionName: "Gate",
		SlotDate:    time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC),
		StartTime:   "08:15:00",
		EndTime:     "11:45:00",
	}
	candidates := []timewin.Slot{
		{ID: 5, MissionID: 1, Start: "08:00", End: "12:00"},
		{ID: 6, MissionID: 1, Start: "12:00", End: "16:00"},
	}

	item := historyEntry(entry, candidates)
	if item.SlotID == nil || *item.SlotID != 5 {
		t.Fatalf("slot id = %v, want 5", item.SlotID)
	}
	if item.StartTime != "08:00" || item.EndTime != "12:00" {
		t.Fatalf("window = %s-%s, want 08:00-12:00", item.StartTime, item.EndTime)
	}
}

func TestHistoryEntryFallsBackToRawWindow(t *testing.T) {
	entry := model.HistoryItem{
		MissionID:   1,
		MissionName: "Gate",
		SlotDate:    time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC),
		StartTime:   "02:00:00",
		EndTime:     "04:00:00",
	}
	candidates := []timewin.Slot{{ID: 5, MissionID: 1, Start: "08:00", End: "12:00"}}

	item := historyEntry(entry, candidates)
	if item.SlotID != nil {
		t.Fatalf("slot id = %v, want nil (no overlap)", item.SlotID)
	}
	if item.StartTime != "02:00" || item.EndTime != "04:00" {
		t.Fatalf("window = %s-%s, want raw 02:00-04:00", item.StartTime, item.EndTime)
	}
}

func TestHistoryEntryRendersWithoutCandidates(t *testing.T) {
	// A failed or empty slot lookup yields no candidates; the row must
	// still render, carrying its raw window and no slot id.
	entry := model.HistoryItem{
		MissionID:   1,
		MissionName: "Gate",
		SlotDate:    time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC),
		StartTime:   "08:15:00",
		EndTime:     "11:45:00",
	}

	item := historyEntry(entry, nil)
	if item.SlotID != nil {
		t.Fatalf("slot id = %v, want nil", item.SlotID)
	}
	if item.StartTime != "08:15" || item.EndTime != "11:45" {
		t.Fatalf("window = %s-%s, want raw 08:15-11:45", item.StartTime, item.EndTime)
	}
}

func TestValidClock(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"08:00", true},
		{"23:59", true},
		{"08:00:30", true},
		{"8:00", false},
		{"24:00", false},
		{"08:60", false},
		{"", false},
		{"08:00:61", false},
	}
	for _, c := range cases {
		if got := validClock(c.in); got != c.ok {
			t.Errorf("validClock(%q) = %v, want %v", c.in, got, c.ok)
		}
	}
}

func TestDayBoundsHalfOpen(t *testing.T) {
	day := time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)
	start, end := dayBounds(day)
	if !start.Equal(day) {
		t.Fatalf("start = %v, want %v", start, day)
	}
	if !end.Equal(day.AddDate(0, 0, 1)) {
		t.Fatalf("end = %v, want next midnight", end)
	}
}
