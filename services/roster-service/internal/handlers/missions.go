package handlers

import (
	"log/slog"
	"net/http"

	"github.com/platoonhq/rosterd/libs/timewin"
	"github.com/platoonhq/rosterd/services/roster-service/internal/storage"
)

type MissionHandler struct {
	missions *storage.MissionRepository
	logger   *slog.Logger
}

func NewMissionHandler(missions *storage.MissionRepository, logger *slog.Logger) *MissionHandler {
	return &MissionHandler{missions: missions, logger: logger}
}

type missionSlotItem struct {
	ID        int64  `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Overnight bool   `json:"overnight"`
}

type missionItem struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	TotalNeeded int               `json:"total_needed"`
	Slots       []missionSlotItem `json:"slots"`
}

// List serves GET /api/v1/missions: every mission with its canonical slots.
func (h *MissionHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	missions, err := h.missions.List(r.Context())
	if err != nil {
		h.logger.Error("mission list failed", "err", err)
		http.Error(w, "failed to load missions", http.StatusInternalServerError)
		return
	}

	items := make([]missionItem, 0, len(missions))
	for _, m := range missions {
		item := missionItem{ID: m.ID, Name: m.Name, TotalNeeded: m.TotalNeeded, Slots: []missionSlotItem{}}
		for _, s := range m.Slots {
			item.Slots = append(item.Slots, missionSlotItem{
				ID:        s.ID,
				StartTime: timewin.ClockLabel(s.StartTime),
				EndTime:   timewin.ClockLabel(s.EndTime),
				Overnight: timewin.IsOvernight(s.StartTime, s.EndTime),
			})
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
