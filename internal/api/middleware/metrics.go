package middleware

import (
	"maps"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
)

// MetricsCollector counts requests for the /metrics endpoint.
type MetricsCollector struct {
	requestCount *atomic.Int64
	errorCount   *atomic.Int64
	inFlight     atomic.Int64

	mu     sync.Mutex
	routes map[string]int64
}

func NewMetricsCollector(requestCount, errorCount *atomic.Int64) *MetricsCollector {
	return &MetricsCollector{
		requestCount: requestCount,
		errorCount:   errorCount,
		routes:       make(map[string]int64),
	}
}

// InFlight reports requests currently being served.
func (mc *MetricsCollector) InFlight() int64 {
	return mc.inFlight.Load()
}

// Routes returns completed request counts keyed by "METHOD pattern", so requests
// for different agents share one entry.
func (mc *MetricsCollector) Routes() map[string]int64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return maps.Clone(mc.routes)
}

// Middleware counts requests and errors (4xx and 5xx).
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requestCount.Add(1)
		mc.inFlight.Add(1)
		defer mc.inFlight.Add(-1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 400 {
			mc.errorCount.Add(1)
		}

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		mc.mu.Lock()
		mc.routes[r.Method+" "+pattern]++
		mc.mu.Unlock()
	})
}
