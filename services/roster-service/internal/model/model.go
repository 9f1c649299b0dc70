package model

import "time"

type Soldier struct {
	ID    int64
	Name  string
	Roles []string
}

type Mission struct {
	ID          int64
	Name        string
	TotalNeeded int
	Slots       []MissionSlot
}

// MissionSlot is a canonical named time window for a mission. Times are
// wall-clock strings; an end at or before the start marks an overnight slot.
type MissionSlot struct {
	ID        int64
	MissionID int64
	StartTime string // "HH:MM:SS"
	EndTime   string
}

// Vacation is an inclusive date range during which a soldier is away.
type Vacation struct {
	ID          int64
	SoldierID   int64
	SoldierName string
	StartDate   time.Time
	EndDate     time.Time
	Note        string
}

// Assignment is one soldier-to-mission fact with its window already resolved
// to absolute instants. Rows are read-only snapshots; only the grouped view
// of them changes.
type Assignment struct {
	ID          int64
	MissionID   int64
	MissionName string
	RoleID      *int64
	Role        string // empty when no role recorded
	SoldierID   *int64
	SoldierName string
	StartAt     time.Time
	EndAt       time.Time
}

// HistoryItem is one entry of a soldier's mission history, with the
// wall-clock rendering of the window and everyone who shared it.
type HistoryItem struct {
	MissionID      int64
	MissionName    string
	SlotDate       time.Time
	StartTime      string
	EndTime        string
	FellowSoldiers []string
}
