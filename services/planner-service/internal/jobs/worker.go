package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/platoonhq/rosterd/libs/db"
	"github.com/platoonhq/rosterd/libs/events"
	otelx "github.com/platoonhq/rosterd/libs/otel"
	"github.com/platoonhq/rosterd/services/planner-service/internal/outbox"
	"github.com/platoonhq/rosterd/services/planner-service/internal/planner"
	"github.com/platoonhq/rosterd/services/planner-service/internal/storage"
)

// Worker polls due fill jobs and runs each one in its own transaction:
// clear the day's unlocked assignments, snapshot, greedy fill, insert, and
// stage the completion event. A storage failure rolls the whole run back
// and the job retries with backoff until max attempts.
type Worker struct {
	pool      *db.Pool
	repo      *Repository
	snapshots *storage.SnapshotRepository
	outbox    *outbox.Repository
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	backoff   time.Duration
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
	Backoff   time.Duration
}

func NewWorker(pool *db.Pool, repo *Repository, snapshots *storage.SnapshotRepository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 1 * time.Minute
	}
	return &Worker{
		pool:      pool,
		repo:      repo,
		snapshots: snapshots,
		outbox:    outboxRepo,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		backoff:   cfg.Backoff,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processDue(ctx); err != nil {
				w.logger.Error("planner batch failed", "err", err)
			}
		}
	}
}

func (w *Worker) processDue(ctx context.Context) error {
	due, err := w.fetchDue(ctx)
	if err != nil {
		return err
	}
	for _, job := range due {
		jobCtx := otelx.ContextWithTraceContext(ctx, job.Traceparent, job.Tracestate)
		if err := w.runJob(jobCtx, job); err != nil {
			w.logger.Error("plan fill failed", "err", err, "plan_id", job.PlanID)
			if failErr := w.failJob(jobCtx, job, err); failErr != nil {
				return failErr
			}
		}
	}
	return nil
}

// fetchDue claims due jobs by pushing next_run_at forward, so a crashed run
// surfaces again after the backoff instead of being lost.
func (w *Worker) fetchDue(ctx context.Context) ([]Job, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	due, err := w.repo.FetchDue(ctx, tx, w.batchSize)
	if err != nil {
		return nil, err
	}
	for _, job := range due {
		if _, err := tx.Exec(ctx, `
			UPDATE planner_jobs SET next_run_at = now() + $2 WHERE id = $1
		`, job.ID, w.backoff); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return due, nil
}

func (w *Worker) runJob(ctx context.Context, job Job) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	dayStart := time.Date(job.Day.Year(), job.Day.Month(), job.Day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	cleared, err := w.snapshots.ClearDay(ctx, tx, dayStart, dayEnd, job.MissionIDs, job.LockedIDs)
	if err != nil {
		return err
	}

	snap, err := w.snapshots.Load(ctx, tx, dayStart, job.MissionIDs)
	if err != nil {
		return err
	}
	res := planner.Fill(snap)

	if err := w.snapshots.InsertProposed(ctx, tx, res.Proposed); err != nil {
		return err
	}
	if err := w.emitCompleted(ctx, tx, job, events.PlanFillCompleted{
		PlanID:     job.PlanID,
		Day:        dayStart.Format("2006-01-02"),
		Status:     "completed",
		Assigned:   len(res.Proposed),
		Unfilled:   res.Unfilled,
		Violations: res.Violations,
	}); err != nil {
		return err
	}
	if err := w.repo.MarkProcessed(ctx, tx, job.ID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	w.logger.Info("plan fill completed",
		"plan_id", job.PlanID,
		"day", dayStart.Format("2006-01-02"),
		"cleared", cleared,
		"assigned", len(res.Proposed),
		"unfilled", res.Unfilled,
	)
	return nil
}

func (w *Worker) failJob(ctx context.Context, job Job, cause error) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	attempts := job.Attempts + 1
	nextRunAt := time.Now().UTC().Add(w.backoff)
	if err := w.repo.MarkFailed(ctx, tx, job.ID, attempts, job.MaxAttempts, nextRunAt, cause.Error()); err != nil {
		return err
	}
	if attempts >= job.MaxAttempts {
		if err := w.emitCompleted(ctx, tx, job, events.PlanFillCompleted{
			PlanID: job.PlanID,
			Day:    job.Day.Format("2006-01-02"),
			Status: "failed",
			Error:  cause.Error(),
		}); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (w *Worker) emitCompleted(ctx context.Context, tx pgx.Tx, job Job, evt events.PlanFillCompleted) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "plan",
		AggregateID:   job.PlanID,
		EventType:     events.TopicPlanFillCompleted,
		Payload:       payload,
	})
}
