// Package planner fills a day's unstaffed mission slots from a snapshot of
// missions, soldiers, vacations and existing assignments. The fill is a
// deterministic greedy pass: role minimums first, then top-up to the
// mission headcount, always preferring the least-loaded eligible soldier.
package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/platoonhq/rosterd/libs/timewin"
)

type Soldier struct {
	ID    int64
	Name  string
	Roles map[int64]bool // role ids the soldier can fill
}

type Requirement struct {
	RoleID int64
	Count  int
}

type Mission struct {
	ID           int64
	Name         string
	TotalNeeded  int
	Slots        []timewin.Slot
	Requirements []Requirement
}

// Existing is an assignment already on the books for the day, staffed or
// not. Unstaffed rows still occupy a seat.
type Existing struct {
	MissionID int64
	SoldierID *int64
	RoleID    *int64
	StartAt   time.Time
	EndAt     time.Time
}

// DateRange is an inclusive vacation window. The planner never staffs a
// soldier on any day of it, departure and return days included; only the
// display aggregator treats boundary days as available.
type DateRange struct {
	Start time.Time
	End   time.Time
}

type Snapshot struct {
	Day       time.Time
	Missions  []Mission
	Soldiers  []Soldier
	Vacations map[int64][]DateRange
	Existing  []Existing
}

// Proposed is one assignment the fill wants created.
type Proposed struct {
	MissionID int64
	SlotID    int64
	RoleID    *int64
	SoldierID int64
	StartAt   time.Time
	EndAt     time.Time
}

type Result struct {
	Proposed   []Proposed
	Unfilled   int
	Violations []string
}

// Fill computes the assignments needed to staff every mission slot on the
// snapshot day. It never touches existing rows and never proposes a soldier
// who is on vacation or already busy in an overlapping window.
func Fill(snap Snapshot) Result {
	state := newFillState(snap)
	var res Result

	missions := append([]Mission(nil), snap.Missions...)
	sort.SliceStable(missions, func(i, j int) bool { return missions[i].Name < missions[j].Name })

	for _, m := range missions {
		for _, slot := range m.Slots {
			startAt, endAt := timewin.Resolve(snap.Day, slot.Start, slot.End)
			seated := state.seatedIn(m.ID, startAt, endAt)

			// Role minimums first.
			for _, req := range m.Requirements {
				needed := req.Count - seated.withRole(req.RoleID)
				for ; needed > 0; needed-- {
					soldier, ok := state.pick(startAt, endAt, &req.RoleID)
					if !ok {
						res.Unfilled++
						res.Violations = append(res.Violations, fmt.Sprintf(
							"%s %s-%s: no eligible soldier for role %d",
							m.Name, timewin.ClockLabel(slot.Start), timewin.ClockLabel(slot.End), req.RoleID))
						continue
					}
					roleID := req.RoleID
					res.Proposed = append(res.Proposed, Proposed{
						MissionID: m.ID, SlotID: slot.ID, RoleID: &roleID,
						SoldierID: soldier, StartAt: startAt, EndAt: endAt,
					})
					state.occupy(soldier, startAt, endAt)
					seated.total++
				}
			}

			// Top up to the mission headcount with any free soldier.
			for seated.total < m.TotalNeeded {
				soldier, ok := state.pick(startAt, endAt, nil)
				if !ok {
					short := m.TotalNeeded - seated.total
					res.Unfilled += short
					res.Violations = append(res.Violations, fmt.Sprintf(
						"%s %s-%s: %d seats unfilled",
						m.Name, timewin.ClockLabel(slot.Start), timewin.ClockLabel(slot.End), short))
					break
				}
				res.Proposed = append(res.Proposed, Proposed{
					MissionID: m.ID, SlotID: slot.ID,
					SoldierID: soldier, StartAt: startAt, EndAt: endAt,
				})
				state.occupy(soldier, startAt, endAt)
				seated.total++
			}
		}
	}
	return res
}

type window struct {
	start time.Time
	end   time.Time
}

type fillState struct {
	snap     Snapshot
	soldiers []Soldier // sorted by id for determinism
	busy     map[int64][]window
	load     map[int64]time.Duration
}

func newFillState(snap Snapshot) *fillState {
	s := &fillState{
		snap:     snap,
		soldiers: append([]Soldier(nil), snap.Soldiers...),
		busy:     map[int64][]window{},
		load:     map[int64]time.Duration{},
	}
	sort.SliceStable(s.soldiers, func(i, j int) bool { return s.soldiers[i].ID < s.soldiers[j].ID })
	for _, ex := range snap.Existing {
		if ex.SoldierID == nil {
			continue
		}
		s.occupy(*ex.SoldierID, ex.StartAt, ex.EndAt)
	}
	return s
}

func (s *fillState) occupy(soldierID int64, start, end time.Time) {
	s.busy[soldierID] = append(s.busy[soldierID], window{start, end})
	s.load[soldierID] += end.Sub(start)
}

// pick returns the least-loaded soldier who holds roleID (any soldier when
// roleID is nil), is not on vacation on the day, and has no overlapping
// window. Ties break on the lower soldier id.
func (s *fillState) pick(start, end time.Time, roleID *int64) (int64, bool) {
	var best int64
	var bestLoad time.Duration
	found := false
	for _, soldier := range s.soldiers {
		if roleID != nil && !soldier.Roles[*roleID] {
			continue
		}
		if s.onVacation(soldier.ID) {
			continue
		}
		if s.overlapsBusy(soldier.ID, start, end) {
			continue
		}
		if !found || s.load[soldier.ID] < bestLoad {
			best = soldier.ID
			bestLoad = s.load[soldier.ID]
			found = true
		}
	}
	return best, found
}

func (s *fillState) onVacation(soldierID int64) bool {
	d := dateOf(s.snap.Day)
	for _, r := range s.snap.Vacations[soldierID] {
		if !d.Before(dateOf(r.Start)) && !d.After(dateOf(r.End)) {
			return true
		}
	}
	return false
}

func (s *fillState) overlapsBusy(soldierID int64, start, end time.Time) bool {
	for _, w := range s.busy[soldierID] {
		if timewin.Overlap(start, end, w.start, w.end) > 0 {
			return true
		}
	}
	return false
}

type seatCount struct {
	total  int
	byRole map[int64]int
}

func (c seatCount) withRole(roleID int64) int { return c.byRole[roleID] }

// seatedIn counts existing seats for the mission in exactly this window.
func (s *fillState) seatedIn(missionID int64, start, end time.Time) seatCount {
	c := seatCount{byRole: map[int64]int{}}
	for _, ex := range s.snap.Existing {
		if ex.MissionID != missionID || !ex.StartAt.Equal(start) || !ex.EndAt.Equal(end) {
			continue
		}
		c.total++
		if ex.RoleID != nil {
			c.byRole[*ex.RoleID]++
		}
	}
	return c
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
