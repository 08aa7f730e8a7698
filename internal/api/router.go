package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/bdicore/internal/api/handlers"
	mw "github.com/Harshitk-cp/bdicore/internal/api/middleware"
	"github.com/Harshitk-cp/bdicore/internal/buildconfig"
	"github.com/Harshitk-cp/bdicore/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HealthCheck probes one dependency, such as the database or Redis.
type HealthCheck func(ctx context.Context) error

// Options configures the HTTP layer.
type Options struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
	// HealthChecks are run by /health, keyed by dependency name.
	HealthChecks map[string]HealthCheck
}

// App holds the router and the services it exposes.
type App struct {
	Router       *chi.Mux
	Agents       *service.AgentService
	Runner       *service.Runner
	metrics      *mw.MetricsCollector
	checks       map[string]HealthCheck
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp wires the API over svc. runner may be nil when agents are only ticked
// through the API.
func NewApp(svc *service.AgentService, runner *service.Runner, logger *zap.Logger, opts Options) *App {
	agentHandler := handlers.NewAgentHandler(svc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Agents:    svc,
		Runner:    runner,
		checks:    opts.HealthChecks,
		startTime: time.Now(),
	}
	app.metrics = mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)                                         // Generate/extract request ID first
	r.Use(middleware.RealIP)                                    // Extract real IP
	r.Use(app.metrics.Middleware)                               // Collect metrics
	r.Use(mw.Logging(logger))                                   // Log all requests
	r.Use(middleware.Recoverer)                                 // Recover from panics
	r.Use(mw.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst)) // Rate limiting

	// Health (no auth)
	r.Get("/health", app.healthHandler())

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(opts.APIKey))

		r.Route("/agents", func(r chi.Router) {
			r.Post("/", agentHandler.Create)
			r.Get("/", agentHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", agentHandler.GetByID)
				r.Delete("/", agentHandler.Delete)
				r.Get("/beliefs", agentHandler.Beliefs)
				r.Post("/percepts", agentHandler.Perceive)
				r.Post("/desires", agentHandler.AddDesire)
				r.Post("/tick", agentHandler.Tick)
				r.Post("/plan", agentHandler.Plan)
				r.Post("/snapshot", agentHandler.Snapshot)
			})
		})
	})

	return app
}

func (app *App) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(app.checks))
		for name, check := range app.checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		body := map[string]any{
			"status":       "ok",
			"dependencies": deps,
			"build":        buildconfig.VersionInfo(),
		}
		if status != http.StatusOK {
			body["status"] = "error"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"in_flight":      app.metrics.InFlight(),
			"routes":         app.metrics.Routes(),
			"agents":         app.Agents.Registry().Len(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}
		if app.Runner != nil {
			response["runner"] = app.Runner.Stats()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
