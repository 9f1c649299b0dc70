// Package events names the Kafka topics and payloads shared between the
// roster and planner services. Topic names double as event types in the
// outbox envelope.
package events

const (
	TopicPlanFillRequested = "plan.fill.requested.v1"
	TopicPlanFillCompleted = "plan.fill.completed.v1"
)

// PlanFillRequested asks the planner to fill a day's unstaffed slots.
// LockedAssignmentIDs are kept untouched; empty MissionIDs means every
// mission.
type PlanFillRequested struct {
	PlanID              string  `json:"plan_id"`
	Day                 string  `json:"day"` // YYYY-MM-DD
	MissionIDs          []int64 `json:"mission_ids,omitempty"`
	LockedAssignmentIDs []int64 `json:"locked_assignment_ids,omitempty"`
}

// PlanFillCompleted reports the outcome of a fill run.
type PlanFillCompleted struct {
	PlanID     string   `json:"plan_id"`
	Day        string   `json:"day"`
	Status     string   `json:"status"` // "completed" or "failed"
	Assigned   int      `json:"assigned"`
	Unfilled   int      `json:"unfilled"`
	Violations []string `json:"violations,omitempty"`
	Error      string   `json:"error,omitempty"`
}
