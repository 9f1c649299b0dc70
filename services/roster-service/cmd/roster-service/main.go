package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/platoonhq/rosterd/libs/config"
	"github.com/platoonhq/rosterd/libs/db"
	"github.com/platoonhq/rosterd/libs/httpx"
	"github.com/platoonhq/rosterd/libs/kafkax"
	otelx "github.com/platoonhq/rosterd/libs/otel"
	"github.com/platoonhq/rosterd/libs/runtime"
	"github.com/platoonhq/rosterd/services/roster-service/internal/cache"
	"github.com/platoonhq/rosterd/services/roster-service/internal/handlers"
	"github.com/platoonhq/rosterd/services/roster-service/internal/outbox"
	"github.com/platoonhq/rosterd/services/roster-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "roster-service")
	port, err := config.Port("PORT", "8081")
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

	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
	} else {
		logger.Warn("redis not configured; availability cache disabled")
	}
	availabilityCache := cache.NewAvailabilityCache(rdb, config.Seconds("AVAILABILITY_CACHE_TTL_SECONDS", 10*time.Minute))

	soldiers := storage.NewSoldierRepository(pool)
	missions := storage.NewMissionRepository(pool)
	vacations := storage.NewVacationRepository(pool)
	assignments := storage.NewAssignmentRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	soldierHandler := handlers.NewSoldierHandler(soldiers, assignments, missions, logger)
	missionHandler := handlers.NewMissionHandler(missions, logger)
	vacationHandler := handlers.NewVacationHandler(vacations, soldiers, availabilityCache, logger)
	availabilityHandler := handlers.NewAvailabilityHandler(soldiers, vacations, availabilityCache, logger)
	rosterHandler := handlers.NewRosterHandler(assignments, soldiers, logger)
	planHandler := handlers.NewPlanHandler(pool, outboxRepo, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	}
	if rdb != nil {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: cache.ReadyCheck(rdb)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)

	mux.HandleFunc("/api/v1/soldiers", soldierHandler.List)
	mux.HandleFunc("/api/v1/soldiers/mission-history", soldierHandler.MissionHistory)
	mux.HandleFunc("/api/v1/missions", missionHandler.List)
	mux.Handle("/api/v1/vacations", vacationHandler)
	mux.HandleFunc("/api/v1/availability/day", availabilityHandler.Day)
	mux.HandleFunc("/api/v1/availability/month", availabilityHandler.Month)
	mux.HandleFunc("/api/v1/roster", rosterHandler.DayRoster)
	mux.HandleFunc("/api/v1/assignments", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			rosterHandler.Create(w, r)
		case http.MethodDelete:
			rosterHandler.Delete(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/assignments/reassign", rosterHandler.Reassign)
	mux.HandleFunc("/api/v1/assignments/clear", rosterHandler.Clear)
	mux.HandleFunc("/api/v1/plan/fill", planHandler.Fill)

	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var limiter httpx.Middleware
	if rdb != nil {
		limiter = httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service).Middleware(logger, true)
	} else {
		limiter = httpx.NewRateLimiter(rateLimit, time.Minute).Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ","),
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", httpx.RequestIDHeader},
			MaxAge:         10 * time.Minute,
		}),
		limiter,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(30*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "roster")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
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
