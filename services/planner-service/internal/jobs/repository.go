package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	otelx "github.com/platoonhq/rosterd/libs/otel"
)

// Job is one queued fill request. PlanID doubles as the idempotency key, so
// a redelivered request event never queues a second run.
type Job struct {
	ID          int64
	PlanID      string
	Day         time.Time
	MissionIDs  []int64
	LockedIDs   []int64
	Traceparent string
	Tracestate  string
	Attempts    int
	MaxAttempts int
	NextRunAt   time.Time
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, job Job) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO planner_jobs (plan_id, day, mission_ids, locked_ids, next_run_at, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, now(), $5, $6)
		ON CONFLICT (plan_id) DO NOTHING
	`, job.PlanID, job.Day, job.MissionIDs, job.LockedIDs, traceparent, tracestate)
	return err
}

func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, limit int) ([]Job, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, plan_id, day, COALESCE(mission_ids, '{}'), COALESCE(locked_ids, '{}'),
			traceparent, tracestate, attempts, max_attempts, next_run_at
		FROM planner_jobs
		WHERE status = 'pending' AND next_run_at <= now()
		ORDER BY next_run_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.PlanID, &j.Day, &j.MissionIDs, &j.LockedIDs,
			&j.Traceparent, &j.Tracestate, &j.Attempts, &j.MaxAttempts, &j.NextRunAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *Repository) MarkProcessed(ctx context.Context, tx pgx.Tx, id int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE planner_jobs
		SET status = 'processed', updated_at = now()
		WHERE id = $1
	`, id)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id int64, attempts, maxAttempts int, nextRunAt time.Time, lastError string) error {
	status := "pending"
	if attempts >= maxAttempts {
		status = "failed"
	}
	_, err := tx.Exec(ctx, `
		UPDATE planner_jobs
		SET attempts = $2,
		    status = $3,
		    next_run_at = $4,
		    last_error = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, attempts, status, nextRunAt, lastError)
	return err
}
