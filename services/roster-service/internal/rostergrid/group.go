// Package rostergrid turns the flat list of a day's assignments into the
// nested mission -> slot -> rows structure the roster table renders, with
// one header cell per slot bucket spanning its rows.
package rostergrid

import (
	"sort"
	"time"
)

// Row is a single assignment fact to render.
type Row struct {
	ID          int64
	MissionName string
	Role        string // empty = no role; sorts after every named role
	SoldierID   int64
	SoldierName string
	StartAt     time.Time
	EndAt       time.Time
}

// SlotGroup is one exact time window within a mission and the rows that
// share it. Rows is never empty for groups produced by Group.
type SlotGroup struct {
	StartAt time.Time
	EndAt   time.Time
	Rows    []Row
}

type MissionGroup struct {
	MissionName string
	Slots       []SlotGroup
}

// roleSortKey sorts absent roles after every real role name. The sentinel is
// the maximal code point so the comparator stays total instead of relying on
// empty-string ordering.
func roleSortKey(role string) string {
	if role == "" {
		return "\U0010FFFF"
	}
	return role
}

// Group sorts rows by (mission, window start, window end, role with absent
// roles last) and buckets them by exact resolved window. Missions appear in
// the order of their first sorted row (alphabetical, given the sort); slots
// within a mission appear chronologically. Grouping keys are derived from
// the resolved instants, never from wall-clock strings, so equal windows
// written differently still merge.
func Group(rows []Row) []MissionGroup {
	if len(rows) == 0 {
		return nil
	}

	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.MissionName != b.MissionName {
			return a.MissionName < b.MissionName
		}
		if !a.StartAt.Equal(b.StartAt) {
			return a.StartAt.Before(b.StartAt)
		}
		if !a.EndAt.Equal(b.EndAt) {
			return a.EndAt.Before(b.EndAt)
		}
		return roleSortKey(a.Role) < roleSortKey(b.Role)
	})

	var groups []MissionGroup
	for _, row := range sorted {
		if len(groups) == 0 || groups[len(groups)-1].MissionName != row.MissionName {
			groups = append(groups, MissionGroup{MissionName: row.MissionName})
		}
		mg := &groups[len(groups)-1]

		n := len(mg.Slots)
		if n == 0 || !mg.Slots[n-1].StartAt.Equal(row.StartAt) || !mg.Slots[n-1].EndAt.Equal(row.EndAt) {
			mg.Slots = append(mg.Slots, SlotGroup{StartAt: row.StartAt, EndAt: row.EndAt})
			n++
		}
		mg.Slots[n-1].Rows = append(mg.Slots[n-1].Rows, row)
	}
	return groups
}

// Flatten is the inverse view of Group: the sorted row sequence in render
// order. Group(Flatten(Group(rows))) equals Group(rows).
func Flatten(groups []MissionGroup) []Row {
	var rows []Row
	for _, mg := range groups {
		for _, sg := range mg.Slots {
			rows = append(rows, sg.Rows...)
		}
	}
	return rows
}
