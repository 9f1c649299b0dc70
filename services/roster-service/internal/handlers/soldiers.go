package handlers

import (
	"log/slog"
	"net/http"

	"github.com/platoonhq/rosterd/libs/timewin"
	"github.com/platoonhq/rosterd/services/roster-service/internal/model"
	"github.com/platoonhq/rosterd/services/roster-service/internal/storage"
)

type SoldierHandler struct {
	soldiers    *storage.SoldierRepository
	assignments *storage.AssignmentRepository
	missions    *storage.MissionRepository
	logger      *slog.Logger
}

func NewSoldierHandler(soldiers *storage.SoldierRepository, assignments *storage.AssignmentRepository, missions *storage.MissionRepository, logger *slog.Logger) *SoldierHandler {
	return &SoldierHandler{soldiers: soldiers, assignments: assignments, missions: missions, logger: logger}
}

type soldierItem struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// List serves GET /api/v1/soldiers.
func (h *SoldierHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	soldiers, err := h.soldiers.List(r.Context())
	if err != nil {
		h.logger.Error("soldier list failed", "err", err)
		http.Error(w, "failed to load soldiers", http.StatusInternalServerError)
		return
	}

	items := make([]soldierItem, 0, len(soldiers))
	for _, s := range soldiers {
		roles := s.Roles
		if roles == nil {
			roles = []string{}
		}
		items = append(items, soldierItem{ID: s.ID, Name: s.Name, Roles: roles})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type historyItem struct {
	MissionID   int64    `json:"mission_id"`
	MissionName string   `json:"mission_name"`
	Date        string   `json:"date"`
	SlotID      *int64   `json:"slot_id"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Fellows     []string `json:"fellow_soldiers"`
}

// MissionHistory serves GET /api/v1/soldiers/mission-history?soldier_id=N.
// Each raw assignment window is snapped to the mission slot it overlaps
// most; windows matching no slot render verbatim with a null slot_id.
func (h *SoldierHandler) MissionHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	soldierID, ok := queryInt64(r, "soldier_id")
	if !ok {
		http.Error(w, "soldier_id is required", http.StatusBadRequest)
		return
	}
	exists, err := h.soldiers.Exists(r.Context(), soldierID)
	if err != nil {
		http.Error(w, "failed to verify soldier", http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "soldier not found", http.StatusNotFound)
		return
	}

	history, err := h.assignments.HistoryFor(r.Context(), soldierID)
	if err != nil {
		h.logger.Error("mission history query failed", "err", err, "soldier_id", soldierID)
		http.Error(w, "failed to load mission history", http.StatusInternalServerError)
		return
	}

	slotCache := map[int64][]timewin.Slot{}
	items := make([]historyItem, 0, len(history))
	for _, entry := range history {
		candidates, cached := slotCache[entry.MissionID]
		if !cached {
			slots, err := h.missions.SlotsFor(r.Context(), entry.MissionID)
			if err != nil {
				// Slot data is cosmetic here: without candidates the rows
				// fall back to their raw wall-clock windows.
				h.logger.Warn("slot lookup failed, rendering raw windows", "err", err, "mission_id", entry.MissionID)
				slots = nil
			}
			candidates = timewinSlots(slots)
			slotCache[entry.MissionID] = candidates
		}
		items = append(items, historyEntry(entry, candidates))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// historyEntry shapes one history row, snapping its window to the
// best-overlapping canonical slot when one exists.
func historyEntry(entry model.HistoryItem, candidates []timewin.Slot) historyItem {
	item := historyItem{
		MissionID:   entry.MissionID,
		MissionName: entry.MissionName,
		Date:        entry.SlotDate.Format(dateLayout),
		StartTime:   timewin.ClockLabel(entry.StartTime),
		EndTime:     timewin.ClockLabel(entry.EndTime),
		Fellows:     entry.FellowSoldiers,
	}
	if item.Fellows == nil {
		item.Fellows = []string{}
	}
	if best, ok := timewin.BestSlot(entry.SlotDate, entry.StartTime, entry.EndTime, candidates); ok {
		id := best.ID
		item.SlotID = &id
		item.StartTime = timewin.ClockLabel(best.Start)
		item.EndTime = timewin.ClockLabel(best.End)
	}
	return item
}

func timewinSlots(slots []model.MissionSlot) []timewin.Slot {
	out := make([]timewin.Slot, 0, len(slots))
	for _, s := range slots {
		out = append(out, timewin.Slot{ID: s.ID, MissionID: s.MissionID, Start: s.StartTime, End: s.EndTime})
	}
	return out
}
