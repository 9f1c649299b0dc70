package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/platoonhq/rosterd/services/roster-service/internal/cache"
	"github.com/platoonhq/rosterd/services/roster-service/internal/model"
	"github.com/platoonhq/rosterd/services/roster-service/internal/storage"
)

type VacationHandler struct {
	vacations *storage.VacationRepository
	soldiers  *storage.SoldierRepository
	cache     *cache.AvailabilityCache
	logger    *slog.Logger
}

func NewVacationHandler(vacations *storage.VacationRepository, soldiers *storage.SoldierRepository, availability *cache.AvailabilityCache, logger *slog.Logger) *VacationHandler {
	return &VacationHandler{vacations: vacations, soldiers: soldiers, cache: availability, logger: logger}
}

// ServeHTTP dispatches /api/v1/vacations by method.
func (h *VacationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type vacationItem struct {
	ID          int64  `json:"id"`
	SoldierID   int64  `json:"soldier_id"`
	SoldierName string `json:"soldier_name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Note        string `json:"note,omitempty"`
}

func vacationItemFrom(v model.Vacation) vacationItem {
	return vacationItem{
		ID:          v.ID,
		SoldierID:   v.SoldierID,
		SoldierName: v.SoldierName,
		StartDate:   v.StartDate.Format(dateLayout),
		EndDate:     v.EndDate.Format(dateLayout),
		Note:        v.Note,
	}
}

func (h *VacationHandler) list(w http.ResponseWriter, r *http.Request) {
	var soldierID *int64
	if id, ok := queryInt64(r, "soldier_id"); ok {
		soldierID = &id
	}
	vacations, err := h.vacations.List(r.Context(), soldierID)
	if err != nil {
		h.logger.Error("vacation list failed", "err", err)
		http.Error(w, "failed to load vacations", http.StatusInternalServerError)
		return
	}
	items := make([]vacationItem, 0, len(vacations))
	for _, v := range vacations {
		items = append(items, vacationItemFrom(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type createVacationRequest struct {
	SoldierID int64  `json:"soldier_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Note      string `json:"note"`
}

func (h *VacationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createVacationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.SoldierID == 0 {
		http.Error(w, "soldier_id is required", http.StatusBadRequest)
		return
	}
	start, err := parseDay(req.StartDate)
	if err != nil {
		http.Error(w, "invalid start_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := parseDay(req.EndDate)
	if err != nil {
		http.Error(w, "invalid end_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if end.Before(start) {
		http.Error(w, "end_date must not precede start_date", http.StatusBadRequest)
		return
	}

	exists, err := h.soldiers.Exists(r.Context(), req.SoldierID)
	if err != nil {
		http.Error(w, "failed to verify soldier", http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "soldier not found", http.StatusNotFound)
		return
	}

	created, err := h.vacations.Create(r.Context(), req.SoldierID, start, end, req.Note)
	if err != nil {
		if errors.Is(err, storage.ErrVacationOverlap) {
			http.Error(w, "vacation overlaps an existing entry", http.StatusConflict)
			return
		}
		h.logger.Error("vacation create failed", "err", err)
		http.Error(w, "failed to create vacation", http.StatusInternalServerError)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusCreated, vacationItemFrom(created))
}

func (h *VacationHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := queryInt64(r, "id")
	if !ok {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	deleted, err := h.vacations.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("vacation delete failed", "err", err)
		http.Error(w, "failed to delete vacation", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "vacation not found", http.StatusNotFound)
		return
	}
	h.invalidate(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *VacationHandler) invalidate(r *http.Request) {
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Warn("availability cache invalidation failed", "err", err)
	}
}
