package rostergrid

import (
	"reflect"
	"testing"
	"time"
)

var day = time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

func TestGroup_MissionAndSlotOrder(t *testing.T) {
	rows := []Row{
		{ID: 1, MissionName: "Patrol", Role: "driver", StartAt: at(10), EndAt: at(12)},
		{ID: 2, MissionName: "Patrol", Role: "commander", StartAt: at(8), EndAt: at(9)},
		{ID: 3, MissionName: "Gate", Role: "guard", StartAt: at(9), EndAt: at(10)},
	}

	groups := Group(rows)
	if len(groups) != 2 {
		t.Fatalf("want 2 missions, got %d", len(groups))
	}
	if groups[0].MissionName != "Gate" || groups[1].MissionName != "Patrol" {
		t.Fatalf("missions must be alphabetical: got %s, %s", groups[0].MissionName, groups[1].MissionName)
	}
	patrol := groups[1]
	if len(patrol.Slots) != 2 {
		t.Fatalf("Patrol: want 2 slot buckets, got %d", len(patrol.Slots))
	}
	if !patrol.Slots[0].StartAt.Equal(at(8)) || !patrol.Slots[1].StartAt.Equal(at(10)) {
		t.Fatalf("Patrol slots must be chronological: %v, %v", patrol.Slots[0].StartAt, patrol.Slots[1].StartAt)
	}
}

func TestGroup_MergesEqualWindows(t *testing.T) {
	rows := []Row{
		{ID: 1, MissionName: "Gate", Role: "guard", SoldierName: "Adam", StartAt: at(6), EndAt: at(14)},
		{ID: 2, MissionName: "Gate", Role: "commander", SoldierName: "Ben", StartAt: at(6), EndAt: at(14)},
		{ID: 3, MissionName: "Gate", Role: "guard", SoldierName: "Dan", StartAt: at(14), EndAt: at(22)},
	}

	groups := Group(rows)
	if len(groups) != 1 || len(groups[0].Slots) != 2 {
		t.Fatalf("want 1 mission with 2 buckets, got %+v", groups)
	}
	if got := len(groups[0].Slots[0].Rows); got != 2 {
		t.Fatalf("first bucket must span 2 rows, got %d", got)
	}
}

func TestGroup_RolelessRowsSortLast(t *testing.T) {
	rows := []Row{
		{ID: 1, MissionName: "Gate", Role: "", SoldierName: "Filler", StartAt: at(6), EndAt: at(14)},
		{ID: 2, MissionName: "Gate", Role: "guard", SoldierName: "Adam", StartAt: at(6), EndAt: at(14)},
		{ID: 3, MissionName: "Gate", Role: "commander", SoldierName: "Ben", StartAt: at(6), EndAt: at(14)},
	}

	groups := Group(rows)
	bucket := groups[0].Slots[0].Rows
	if bucket[0].Role != "commander" || bucket[1].Role != "guard" || bucket[2].Role != "" {
		t.Fatalf("want roles [commander guard <none>], got [%q %q %q]",
			bucket[0].Role, bucket[1].Role, bucket[2].Role)
	}
}

func TestGroup_KeyComesFromInstants(t *testing.T) {
	// Same wall-clock window reached via different canonical representations
	// still shares a bucket because instants, not strings, form the key.
	overnightEnd := day.AddDate(0, 0, 1).Add(6 * time.Hour)
	rows := []Row{
		{ID: 1, MissionName: "Night Watch", Role: "guard", StartAt: at(22), EndAt: overnightEnd},
		{ID: 2, MissionName: "Night Watch", Role: "guard", StartAt: day.Add(22 * time.Hour), EndAt: overnightEnd},
	}
	groups := Group(rows)
	if len(groups[0].Slots) != 1 {
		t.Fatalf("equal instants must merge into one bucket, got %d", len(groups[0].Slots))
	}
}

func TestGroup_Idempotent(t *testing.T) {
	rows := []Row{
		{ID: 4, MissionName: "Patrol", Role: "", StartAt: at(10), EndAt: at(12)},
		{ID: 1, MissionName: "Patrol", Role: "driver", StartAt: at(10), EndAt: at(12)},
		{ID: 2, MissionName: "Gate", Role: "guard", StartAt: at(8), EndAt: at(16)},
		{ID: 3, MissionName: "Gate", Role: "guard", StartAt: at(0), EndAt: at(8)},
	}

	once := Group(rows)
	twice := Group(Flatten(once))
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("regrouping a flattened grouping must be identical:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestGroup_Empty(t *testing.T) {
	if got := Group(nil); got != nil {
		t.Fatalf("empty input must yield empty grouping, got %+v", got)
	}
}
