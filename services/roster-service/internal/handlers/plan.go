package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/platoonhq/rosterd/libs/db"
	"github.com/platoonhq/rosterd/libs/events"
	"github.com/platoonhq/rosterd/services/roster-service/internal/outbox"
)

type PlanHandler struct {
	pool   *db.Pool
	outbox *outbox.Repository
	logger *slog.Logger
}

func NewPlanHandler(pool *db.Pool, outboxRepo *outbox.Repository, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{pool: pool, outbox: outboxRepo, logger: logger}
}

type planFillRequest struct {
	Day                 string  `json:"day"`
	MissionIDs          []int64 `json:"mission_ids"`
	LockedAssignmentIDs []int64 `json:"locked_assignment_ids"`
}

type planFillResponse struct {
	PlanID string `json:"plan_id"`
	Status string `json:"status"`
}

// Fill serves POST /api/v1/plan/fill. The request is staged through the
// outbox and picked up by the planner service; the response only
// acknowledges the queue position, completion arrives as its own event.
func (h *PlanHandler) Fill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req planFillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if _, err := parseDay(req.Day); err != nil {
		http.Error(w, "invalid day, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	planID := uuid.NewString()
	payload, err := json.Marshal(events.PlanFillRequested{
		PlanID:              planID,
		Day:                 req.Day,
		MissionIDs:          req.MissionIDs,
		LockedAssignmentIDs: req.LockedAssignmentIDs,
	})
	if err != nil {
		http.Error(w, "failed to build request", http.StatusInternalServerError)
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		h.logger.Error("plan fill enqueue failed", "err", err)
		http.Error(w, "failed to enqueue plan", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()

	evt := outbox.Event{
		AggregateType: "plan",
		AggregateID:   planID,
		EventType:     events.TopicPlanFillRequested,
		Payload:       payload,
	}
	if err := h.outbox.Insert(r.Context(), tx, evt); err != nil {
		h.logger.Error("plan fill enqueue failed", "err", err)
		http.Error(w, "failed to enqueue plan", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(r.Context()); err != nil {
		h.logger.Error("plan fill enqueue failed", "err", err)
		http.Error(w, "failed to enqueue plan", http.StatusInternalServerError)
		return
	}

	h.logger.Info("plan fill queued", "plan_id", planID, "day", req.Day)
	writeJSON(w, http.StatusAccepted, planFillResponse{PlanID: planID, Status: "queued"})
}
