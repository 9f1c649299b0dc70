package planner

import (
	"testing"
	"time"

	"github.com/platoonhq/rosterd/libs/timewin"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func soldier(id int64, name string, roles ...int64) Soldier {
	s := Soldier{ID: id, Name: name, Roles: map[int64]bool{}}
	for _, r := range roles {
		s.Roles[r] = true
	}
	return s
}

func TestFillStaffsRoleMinimumsBeforeTopUp(t *testing.T) {
	snap := Snapshot{
		Day: day,
		Missions: []Mission{{
			ID: 1, Name: "Gate", TotalNeeded: 3,
			Slots:        []timewin.Slot{{ID: 10, MissionID: 1, Start: "08:00", End: "12:00"}},
			Requirements: []Requirement{{RoleID: 7, Count: 1}},
		}},
		Soldiers: []Soldier{
			soldier(1, "Avi"),
			soldier(2, "Ben", 7),
			soldier(3, "Gil"),
		},
	}

	res := Fill(snap)
	if len(res.Proposed) != 3 {
		t.Fatalf("proposed = %d, want 3", len(res.Proposed))
	}
	if res.Unfilled != 0 {
		t.Fatalf("unfilled = %d, want 0", res.Unfilled)
	}
	first := res.Proposed[0]
	if first.RoleID == nil || *first.RoleID != 7 || first.SoldierID != 2 {
		t.Fatalf("role seat filled by soldier %d with role %v, want soldier 2 role 7", first.SoldierID, first.RoleID)
	}
}

func TestFillSkipsVacationersIncludingBoundaryDays(t *testing.T) {
	snap := Snapshot{
		Day: day,
		Missions: []Mission{{
			ID: 1, Name: "Patrol", TotalNeeded: 3,
			Slots: []timewin.Slot{{ID: 10, MissionID: 1, Start: "08:00", End: "12:00"}},
		}},
		Soldiers: []Soldier{soldier(1, "Avi"), soldier(2, "Ben"), soldier(3, "Gil"), soldier(4, "Dan")},
		Vacations: map[int64][]DateRange{
			// Mid-vacation: unavailable.
			1: {{Start: day.AddDate(0, 0, -2), End: day.AddDate(0, 0, 2)}},
			// Returning today: the fill still leaves the day alone.
			2: {{Start: day.AddDate(0, 0, -3), End: day}},
			// Departing today: same.
			3: {{Start: day, End: day.AddDate(0, 0, 3)}},
		},
	}

	res := Fill(snap)
	if len(res.Proposed) != 1 {
		t.Fatalf("proposed = %d, want 1 (only Dan is off vacation)", len(res.Proposed))
	}
	if res.Proposed[0].SoldierID != 4 {
		t.Fatalf("picked soldier %d, want 4", res.Proposed[0].SoldierID)
	}
	if res.Unfilled != 2 {
		t.Fatalf("unfilled = %d, want 2", res.Unfilled)
	}
}

func TestFillSkipsOverlappingAssignments(t *testing.T) {
	startAt, endAt := timewin.Resolve(day, "08:00", "12:00")
	busyID := int64(1)
	snap := Snapshot{
		Day: day,
		Missions: []Mission{{
			ID: 2, Name: "Tower", TotalNeeded: 1,
			Slots: []timewin.Slot{{ID: 20, MissionID: 2, Start: "10:00", End: "14:00"}},
		}},
		Soldiers: []Soldier{soldier(1, "Avi"), soldier(2, "Ben")},
		Existing: []Existing{{MissionID: 1, SoldierID: &busyID, StartAt: startAt, EndAt: endAt}},
	}

	res := Fill(snap)
	if len(res.Proposed) != 1 {
		t.Fatalf("proposed = %d, want 1", len(res.Proposed))
	}
	if res.Proposed[0].SoldierID != 2 {
		t.Fatalf("picked soldier %d, want 2 (soldier 1 is busy 08:00-12:00)", res.Proposed[0].SoldierID)
	}
}

func TestFillCountsExistingSeats(t *testing.T) {
	startAt, endAt := timewin.Resolve(day, "08:00", "12:00")
	seatedID := int64(3)
	snap := Snapshot{
		Day: day,
		Missions: []Mission{{
			ID: 1, Name: "Gate", TotalNeeded: 2,
			Slots: []timewin.Slot{{ID: 10, MissionID: 1, Start: "08:00", End: "12:00"}},
		}},
		Soldiers: []Soldier{soldier(1, "Avi"), soldier(2, "Ben"), soldier(3, "Gil")},
		Existing: []Existing{{MissionID: 1, SoldierID: &seatedID, StartAt: startAt, EndAt: endAt}},
	}

	res := Fill(snap)
	if len(res.Proposed) != 1 {
		t.Fatalf("proposed = %d, want 1 (one seat already taken)", len(res.Proposed))
	}
}

func TestFillBalancesLoadAcrossSlots(t *testing.T) {
	snap := Snapshot{
		Day: day,
		Missions: []Mission{{
			ID: 1, Name: "Gate", TotalNeeded: 1,
			Slots: []timewin.Slot{
				{ID: 10, MissionID: 1, Start: "08:00", End: "12:00"},
				{ID: 11, MissionID: 1, Start: "12:00", End: "16:00"},
			},
		}},
		Soldiers: []Soldier{soldier(1, "Avi"), soldier(2, "Ben")},
	}

	res := Fill(snap)
	if len(res.Proposed) != 2 {
		t.Fatalf("proposed = %d, want 2", len(res.Proposed))
	}
	if res.Proposed[0].SoldierID == res.Proposed[1].SoldierID {
		t.Fatalf("both slots went to soldier %d, want load spread", res.Proposed[0].SoldierID)
	}
}

func TestFillReportsUnfilledSeats(t *testing.T) {
	snap := Snapshot{
		Day: day,
		Missions: []Mission{{
			ID: 1, Name: "Gate", TotalNeeded: 2,
			Slots:        []timewin.Slot{{ID: 10, MissionID: 1, Start: "08:00", End: "12:00"}},
			Requirements: []Requirement{{RoleID: 7, Count: 1}},
		}},
		Soldiers: []Soldier{soldier(1, "Avi")}, // nobody holds role 7
	}

	res := Fill(snap)
	if res.Unfilled == 0 {
		t.Fatalf("unfilled = 0, want > 0")
	}
	if len(res.Violations) == 0 {
		t.Fatalf("expected violations for the unfillable role seat")
	}
	// The only soldier still takes the general seat.
	if len(res.Proposed) != 1 || res.Proposed[0].SoldierID != 1 {
		t.Fatalf("proposed = %+v, want soldier 1 on the general seat", res.Proposed)
	}
}

func TestFillOvernightSlotBlocksNextMorning(t *testing.T) {
	snap := Snapshot{
		Day: day,
		Missions: []Mission{
			{
				ID: 1, Name: "Night", TotalNeeded: 1,
				Slots: []timewin.Slot{{ID: 10, MissionID: 1, Start: "22:00", End: "06:00"}},
			},
		},
		Soldiers: []Soldier{soldier(1, "Avi")},
	}

	res := Fill(snap)
	if len(res.Proposed) != 1 {
		t.Fatalf("proposed = %d, want 1", len(res.Proposed))
	}
	p := res.Proposed[0]
	if !p.EndAt.After(p.StartAt) || p.EndAt.Day() != day.Day()+1 {
		t.Fatalf("overnight window = [%v, %v], want end on the next day", p.StartAt, p.EndAt)
	}
}
