package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/platoonhq/rosterd/services/roster-service/internal/cache"
	"github.com/platoonhq/rosterd/services/roster-service/internal/leave"
	"github.com/platoonhq/rosterd/services/roster-service/internal/model"
	"github.com/platoonhq/rosterd/services/roster-service/internal/storage"
)

type AvailabilityHandler struct {
	soldiers  *storage.SoldierRepository
	vacations *storage.VacationRepository
	cache     *cache.AvailabilityCache
	logger    *slog.Logger
}

func NewAvailabilityHandler(soldiers *storage.SoldierRepository, vacations *storage.VacationRepository, availability *cache.AvailabilityCache, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{soldiers: soldiers, vacations: vacations, cache: availability, logger: logger}
}

type availabilityEntry struct {
	SoldierID      int64  `json:"soldier_id"`
	SoldierName    string `json:"soldier_name"`
	LeavingToday   bool   `json:"leaving_today,omitempty"`
	ReturningToday bool   `json:"returning_today,omitempty"`
	NextVacation   string `json:"next_vacation,omitempty"`
}

type dayAvailabilityResponse struct {
	Day        string              `json:"day"`
	Available  []availabilityEntry `json:"available"`
	OnVacation []availabilityEntry `json:"on_vacation"`
}

// Day serves GET /api/v1/availability/day?day=YYYY-MM-DD. Available
// soldiers come first, ordered by how soon they next depart (no upcoming
// vacation sorts last); soldiers strictly inside a range follow. Soldiers
// whose ranges are unknown count as available.
func (h *AvailabilityHandler) Day(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	day, err := parseDay(r.URL.Query().Get("day"))
	if err != nil {
		http.Error(w, "invalid day, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	soldiers, bySoldier, err := h.snapshot(r)
	if err != nil {
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}

	resp := dayAvailabilityResponse{
		Day:        day.Format(dateLayout),
		Available:  []availabilityEntry{},
		OnVacation: []availabilityEntry{},
	}
	nextBySoldier := map[int64]time.Time{}
	for _, s := range soldiers {
		ranges := bySoldier[s.ID]
		state := leave.StateFor(day, ranges)
		entry := availabilityEntry{
			SoldierID:      s.ID,
			SoldierName:    s.Name,
			LeavingToday:   state.LeavingToday,
			ReturningToday: state.ReturningToday,
		}
		if next, ok := leave.NextUpcoming(day, ranges); ok {
			entry.NextVacation = next.Format(dateLayout)
			nextBySoldier[s.ID] = next
		}
		if state.Available() {
			resp.Available = append(resp.Available, entry)
		} else {
			resp.OnVacation = append(resp.OnVacation, entry)
		}
	}

	// Soonest departure first; soldiers with no upcoming vacation last,
	// keeping the repository's name order within each class.
	sort.SliceStable(resp.Available, func(i, j int) bool {
		ni, iok := nextBySoldier[resp.Available[i].SoldierID]
		nj, jok := nextBySoldier[resp.Available[j].SoldierID]
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return ni.Before(nj)
	})

	writeJSON(w, http.StatusOK, resp)
}

type monthDayItem struct {
	Day        string `json:"day"`
	Available  int    `json:"available"`
	OnVacation int    `json:"on_vacation"`
}

type monthAvailabilityResponse struct {
	Month string         `json:"month"`
	Days  []monthDayItem `json:"days"`
}

// Month serves GET /api/v1/availability/month?month=YYYY-MM, cached in
// Redis until the next vacation write bumps the generation.
func (h *AvailabilityHandler) Month(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	month := r.URL.Query().Get("month")
	first, err := time.ParseInLocation("2006-01", month, time.UTC)
	if err != nil {
		http.Error(w, "invalid month, expected YYYY-MM", http.StatusBadRequest)
		return
	}

	if payload, ok := h.cache.GetMonth(r.Context(), month); ok {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
		return
	}

	soldiers, bySoldier, err := h.snapshot(r)
	if err != nil {
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}

	ids := make([]int64, 0, len(soldiers))
	for _, s := range soldiers {
		ids = append(ids, s.ID)
	}
	days := leave.DaysOfMonth(first.Year(), first.Month())
	resp := monthAvailabilityResponse{Month: month, Days: []monthDayItem{}}
	for _, c := range leave.MonthStats(days, ids, bySoldier) {
		resp.Days = append(resp.Days, monthDayItem{
			Day:        c.Day.Format(dateLayout),
			Available:  c.Available,
			OnVacation: c.OnVacation,
		})
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if err := h.cache.SetMonth(r.Context(), month, payload); err != nil {
		h.logger.Warn("availability cache write skipped", "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

// snapshot loads the soldier list and every vacation range in one pass.
// A failed vacation fetch is fail-open: soldiers render as having none.
func (h *AvailabilityHandler) snapshot(r *http.Request) ([]model.Soldier, map[int64][]leave.Range, error) {
	soldiers, err := h.soldiers.List(r.Context())
	if err != nil {
		h.logger.Error("soldier list failed", "err", err)
		return nil, nil, err
	}
	vacations, err := h.vacations.RangesBySoldier(r.Context())
	if err != nil {
		h.logger.Warn("vacation ranges unavailable, treating all soldiers as available", "err", err)
		vacations = nil
	}
	bySoldier := make(map[int64][]leave.Range, len(vacations))
	for id, vs := range vacations {
		for _, v := range vs {
			bySoldier[id] = append(bySoldier[id], leave.Range{Start: v.StartDate, End: v.EndDate})
		}
	}
	return soldiers, bySoldier, nil
}
