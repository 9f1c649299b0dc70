package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/platoonhq/rosterd/libs/timewin"
	"github.com/platoonhq/rosterd/services/roster-service/internal/model"
	"github.com/platoonhq/rosterd/services/roster-service/internal/rostergrid"
	"github.com/platoonhq/rosterd/services/roster-service/internal/storage"
)

type RosterHandler struct {
	assignments *storage.AssignmentRepository
	soldiers    *storage.SoldierRepository
	logger      *slog.Logger
}

func NewRosterHandler(assignments *storage.AssignmentRepository, soldiers *storage.SoldierRepository, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{assignments: assignments, soldiers: soldiers, logger: logger}
}

type rosterItem struct {
	ID          int64  `json:"id"`
	MissionID   int64  `json:"mission_id"`
	MissionName string `json:"mission_name"`
	Role        string `json:"role,omitempty"`
	SoldierID   *int64 `json:"soldier_id,omitempty"`
	SoldierName string `json:"soldier_name"`
	StartAt     string `json:"start_at"`
	EndAt       string `json:"end_at"`
}

type slotGroupItem struct {
	StartAt string       `json:"start_at"`
	EndAt   string       `json:"end_at"`
	Items   []rosterItem `json:"items"`
}

type missionGroupItem struct {
	MissionName string          `json:"mission_name"`
	Slots       []slotGroupItem `json:"slots"`
}

type dayRosterResponse struct {
	Day    string             `json:"day"`
	Items  []rosterItem       `json:"items"`
	Groups []missionGroupItem `json:"groups"`
}

// DayRoster serves GET /api/v1/roster?day=YYYY-MM-DD: every assignment
// overlapping the day, both flat and grouped for the merged-header table.
func (h *RosterHandler) DayRoster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	day, err := parseDay(r.URL.Query().Get("day"))
	if err != nil {
		http.Error(w, "invalid day, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	dayStart, dayEnd := dayBounds(day)
	assignments, err := h.assignments.ListOverlappingDay(r.Context(), dayStart, dayEnd)
	if err != nil {
		h.logger.Error("day roster query failed", "err", err)
		http.Error(w, "failed to load roster", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, dayRosterResponse{
		Day:    day.Format(dateLayout),
		Items:  rosterItems(assignments),
		Groups: groupedRoster(assignments),
	})
}

func rosterItemFrom(a model.Assignment) rosterItem {
	return rosterItem{
		ID:          a.ID,
		MissionID:   a.MissionID,
		MissionName: a.MissionName,
		Role:        a.Role,
		SoldierID:   a.SoldierID,
		SoldierName: a.SoldierName,
		StartAt:     a.StartAt.UTC().Format(time.RFC3339),
		EndAt:       a.EndAt.UTC().Format(time.RFC3339),
	}
}

func rosterItems(assignments []model.Assignment) []rosterItem {
	items := make([]rosterItem, 0, len(assignments))
	for _, a := range assignments {
		items = append(items, rosterItemFrom(a))
	}
	return items
}

// groupedRoster runs the grouping engine over the fetched rows and shapes
// the nested result for rendering.
func groupedRoster(assignments []model.Assignment) []missionGroupItem {
	rows := make([]rostergrid.Row, 0, len(assignments))
	byID := make(map[int64]model.Assignment, len(assignments))
	for _, a := range assignments {
		byID[a.ID] = a
		var soldierID int64
		if a.SoldierID != nil {
			soldierID = *a.SoldierID
		}
		rows = append(rows, rostergrid.Row{
			ID:          a.ID,
			MissionName: a.MissionName,
			Role:        a.Role,
			SoldierID:   soldierID,
			SoldierName: a.SoldierName,
			StartAt:     a.StartAt,
			EndAt:       a.EndAt,
		})
	}

	groups := rostergrid.Group(rows)
	out := make([]missionGroupItem, 0, len(groups))
	for _, mg := range groups {
		item := missionGroupItem{MissionName: mg.MissionName}
		for _, sg := range mg.Slots {
			slot := slotGroupItem{
				StartAt: sg.StartAt.UTC().Format(time.RFC3339),
				EndAt:   sg.EndAt.UTC().Format(time.RFC3339),
			}
			for _, row := range sg.Rows {
				slot.Items = append(slot.Items, rosterItemFrom(byID[row.ID]))
			}
			item.Slots = append(item.Slots, slot)
		}
		out = append(out, item)
	}
	return out
}

type createAssignmentRequest struct {
	Day       string `json:"day"`
	MissionID int64  `json:"mission_id"`
	RoleID    *int64 `json:"role_id"`
	SoldierID *int64 `json:"soldier_id"`
	StartTime string `json:"start_time"` // "HH:MM" or "HH:MM:SS"
	EndTime   string `json:"end_time"`
}

// Create serves POST /api/v1/assignments, resolving the wall-clock window
// against the day (overnight windows end on day+1).
func (h *RosterHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.MissionID == 0 || req.StartTime == "" || req.EndTime == "" {
		http.Error(w, "mission_id, start_time and end_time are required", http.StatusBadRequest)
		return
	}
	day, err := parseDay(req.Day)
	if err != nil {
		http.Error(w, "invalid day, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		http.Error(w, "invalid time, expected HH:MM or HH:MM:SS", http.StatusBadRequest)
		return
	}

	startAt, endAt := timewin.Resolve(day, req.StartTime, req.EndTime)
	created, err := h.assignments.Create(r.Context(), req.MissionID, req.SoldierID, req.RoleID, startAt, endAt)
	if err != nil {
		h.logger.Error("assignment create failed", "err", err)
		http.Error(w, "failed to create assignment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, rosterItemFrom(created))
}

type reassignRequest struct {
	AssignmentID int64 `json:"assignment_id"`
	SoldierID    int64 `json:"soldier_id"`
}

// Reassign serves POST /api/v1/assignments/reassign.
func (h *RosterHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req reassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.AssignmentID == 0 || req.SoldierID == 0 {
		http.Error(w, "assignment_id and soldier_id are required", http.StatusBadRequest)
		return
	}

	ok, err := h.soldiers.Exists(r.Context(), req.SoldierID)
	if err != nil {
		http.Error(w, "failed to verify soldier", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "soldier not found", http.StatusNotFound)
		return
	}

	updated, err := h.assignments.Reassign(r.Context(), req.AssignmentID, req.SoldierID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "assignment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("reassign failed", "err", err)
		http.Error(w, "failed to reassign", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rosterItemFrom(updated))
}

type clearRequest struct {
	Day                 string  `json:"day"`
	MissionIDs          []int64 `json:"mission_ids"`
	LockedAssignmentIDs []int64 `json:"locked_assignment_ids"`
}

// Clear serves POST /api/v1/assignments/clear: wipe a day's plan before
// re-running the planner, keeping locked rows in place.
func (h *RosterHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	day, err := parseDay(req.Day)
	if err != nil {
		http.Error(w, "invalid day, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	dayStart, dayEnd := dayBounds(day)
	deleted, err := h.assignments.ClearDay(r.Context(), dayStart, dayEnd, req.MissionIDs, req.LockedAssignmentIDs)
	if err != nil {
		h.logger.Error("clear failed", "err", err)
		http.Error(w, "failed to clear assignments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// Delete serves DELETE /api/v1/assignments?id=N.
func (h *RosterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := queryInt64(r, "id")
	if !ok {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	deleted, err := h.assignments.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("assignment delete failed", "err", err)
		http.Error(w, "failed to delete assignment", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "assignment not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validClock(s string) bool {
	if len(s) != 5 && len(s) != 8 {
		return false
	}
	if _, err := time.Parse("15:04", s[:5]); err != nil {
		return false
	}
	if len(s) == 8 {
		if _, err := time.Parse("15:04:05", s); err != nil {
			return false
		}
	}
	return true
}
