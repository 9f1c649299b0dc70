package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/platoonhq/rosterd/libs/config"
	"github.com/platoonhq/rosterd/libs/db"
	"github.com/platoonhq/rosterd/libs/events"
	"github.com/platoonhq/rosterd/libs/httpx"
	"github.com/platoonhq/rosterd/libs/kafkax"
	otelx "github.com/platoonhq/rosterd/libs/otel"
	"github.com/platoonhq/rosterd/libs/runtime"
	"github.com/platoonhq/rosterd/services/planner-service/internal/consumer"
	"github.com/platoonhq/rosterd/services/planner-service/internal/inbox"
	"github.com/platoonhq/rosterd/services/planner-service/internal/jobs"
	"github.com/platoonhq/rosterd/services/planner-service/internal/outbox"
	"github.com/platoonhq/rosterd/services/planner-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "planner-service")
	port, err := config.Port("PORT", "8082")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	jobRepo := jobs.NewRepository()
	snapshotRepo := storage.NewSnapshotRepository()
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	jobWorker := jobs.NewWorker(pool, jobRepo, snapshotRepo, outboxRepo, logger, jobs.WorkerConfig{
		Interval:  2 * time.Second,
		BatchSize: config.Int("PLANNER_BATCH_SIZE", 10),
		Backoff:   config.Seconds("PLANNER_BACKOFF_SECONDS", time.Minute),
	})
	go jobWorker.Run(ctx)

	consumerCfg := consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "planner-service"),
		Topic:   config.String("KAFKA_CONSUME_TOPIC", events.TopicPlanFillRequested),
	}
	eventConsumer := consumer.New(logger, inboxRepo, consumerCfg, func(ctx context.Context, msg kafka.Message) error {
		var payload events.PlanFillRequested
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid plan fill request", "err", err)
			return nil
		}
		if payload.PlanID == "" || payload.Day == "" {
			logger.Error("missing plan fill fields")
			return nil
		}
		day, err := time.ParseInLocation("2006-01-02", payload.Day, time.UTC)
		if err != nil {
			logger.Error("invalid plan fill day", "err", err, "day", payload.Day)
			return nil
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := jobRepo.Insert(ctx, tx, jobs.Job{
			PlanID:     payload.PlanID,
			Day:        day,
			MissionIDs: payload.MissionIDs,
			LockedIDs:  payload.LockedAssignmentIDs,
		}); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	go eventConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "planner")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
