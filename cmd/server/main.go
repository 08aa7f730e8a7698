package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/bdicore/internal/api"
	"github.com/Harshitk-cp/bdicore/internal/buildconfig"
	"github.com/Harshitk-cp/bdicore/internal/config"
	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/Harshitk-cp/bdicore/internal/domainfile"
	"github.com/Harshitk-cp/bdicore/internal/perception"
	"github.com/Harshitk-cp/bdicore/internal/service"
	"github.com/Harshitk-cp/bdicore/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	checks := make(map[string]api.HealthCheck)

	// Persistence is optional; without a database agents live in memory only.
	var snapshots domain.SnapshotStore
	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")

		agentStore := store.NewAgentStore(pool)
		if err := agentStore.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
		snapshots = agentStore
		checks["database"] = pool.Ping
	}

	agentOpts := []service.AgentOption{
		service.WithAgentConfig(service.AgentConfig{
			MaxPromotionsPerTick: config.MaxPromotionsPerTick(),
			BeliefMinCertainty:   config.BeliefMinCertainty(),
			ActionTimeout:        config.ActionTimeout(),
		}),
		service.WithPlannerLimits(config.PlannerMaxDepth(), config.PlannerMaxNodes()),
		service.WithInferenceLimit(config.InferenceMaxIterations()),
	}

	registry := service.NewRegistry()
	agents := service.NewAgentService(registry, snapshots, logger, agentOpts...)

	if redisURL := config.RedisURL(); redisURL != "" {
		client, err := perception.NewRedisClient(ctx, redisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		logger.Info("connected to redis", zap.String("percept_prefix", config.PerceptPrefix()))

		prefix := config.PerceptPrefix()
		agents.SetSensorFactory(func(id uuid.UUID) []domain.Sensor {
			return []domain.Sensor{perception.NewRedisSensor(client, prefix, id, logger)}
		})
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	if snapshots != nil {
		loaded, err := agents.LoadAll(ctx)
		if err != nil {
			logger.Fatal("failed to restore agents", zap.Error(err))
		}
		logger.Info("restored agents", zap.Int("count", loaded))
	}

	if path := config.DomainFile(); path != "" {
		doc, err := domainfile.Load(path)
		if err != nil {
			logger.Fatal("failed to load domain file", zap.String("path", path), zap.Error(err))
		}
		status, err := agents.Create(ctx, doc.Snapshot())
		if err != nil {
			logger.Fatal("failed to host domain agent", zap.Error(err))
		}
		logger.Info("hosting domain agent",
			zap.String("agent_id", status.ID.String()),
			zap.String("path", path))
	}

	runner := service.NewRunner(registry, logger)
	runner.SetInterval(config.TickInterval())

	app := api.NewApp(agents, runner, logger, api.Options{
		APIKey:         config.APIKey(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
		HealthChecks:   checks,
	})

	// Start background services
	runner.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	// Stop background services
	runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	if snapshots != nil {
		saved := agents.SaveAll(shutdownCtx)
		logger.Info("saved agents", zap.Int("count", saved))
	}

	logger.Info("server stopped")
}
