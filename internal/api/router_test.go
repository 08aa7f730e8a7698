package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/Harshitk-cp/bdicore/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const moverDocument = `{
	"name": "mover",
	"facts": {"at": "A"},
	"rules": [{"name": "arrived", "conditions": ["at=B"], "conclusions": ["arrived=yes"]}],
	"actions": [{"name": "move", "preconditions": ["at=A"], "effects": ["at=B"]}]
}`

type testServer struct {
	t   *testing.T
	app *App
	key string
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS = 1000
		opts.RateLimitBurst = 1000
	}
	svc := service.NewAgentService(service.NewRegistry(), nil, zap.NewNop())
	runner := service.NewRunner(svc.Registry(), zap.NewNop())
	return &testServer{t: t, app: NewApp(svc, runner, zap.NewNop(), opts), key: opts.APIKey}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if s.key != "" {
		req.Header.Set("Authorization", "Bearer "+s.key)
	}
	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) createMover() string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/v1/agents", moverDocument)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[service.AgentStatus](s.t, rec).ID.String()
}

func TestAgentLifecycle(t *testing.T) {
	s := newTestServer(t, Options{})
	id := s.createMover()
	base := "/v1/agents/" + id

	rec := s.do(http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[service.AgentStatus](t, rec)
	assert.Equal(t, "mover", status.Name)
	assert.Equal(t, 1, status.Rules)
	assert.Equal(t, 1, status.Actions)

	rec = s.do(http.MethodPost, base+"/percepts", `{"updates":[{"key":"light","value":"green","certainty":0.9}]}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, base+"/desires", `{"goal":{"name":"at_b","conditions":["at=B"]},"priority":0.8}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	desire := decode[domain.DesireRecord](t, rec)
	assert.NotEmpty(t, desire.ID)
	assert.Equal(t, 0.8, desire.Priority)

	rec = s.do(http.MethodPost, base+"/tick", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[service.TickReport](t, rec)
	assert.Equal(t, int64(1), report.Tick)
	assert.Equal(t, 1, report.Merged)
	assert.Equal(t, "move", report.Executed)
	assert.Equal(t, []string{"at_b"}, report.Achieved)

	// the rule fires on the next tick, once at=B is believed
	rec = s.do(http.MethodPost, base+"/tick", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, base+"/beliefs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	beliefs := decode[struct {
		Beliefs []domain.BeliefRecord `json:"beliefs"`
	}](t, rec).Beliefs
	got := make(map[string]string)
	for _, b := range beliefs {
		got[b.Key] = b.Value
	}
	assert.Equal(t, map[string]string{"at": "B", "arrived": "yes", "light": "green"}, got)

	rec = s.do(http.MethodGet, "/v1/agents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Agents []service.AgentStatus `json:"agents"`
	}](t, rec)
	assert.Len(t, list.Agents, 1)

	rec = s.do(http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlanEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})
	base := "/v1/agents/" + s.createMover()

	rec := s.do(http.MethodPost, base+"/plan", `{"name":"at_b","conditions":["at=B"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"goal":"at_b","actions":["move"],"length":1}`, rec.Body.String())

	rec = s.do(http.MethodPost, base+"/plan", `{"name":"at_c","conditions":["at=C"]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "goal_not_achievable", decode[map[string]string](t, rec)["kind"])

	rec = s.do(http.MethodPost, base+"/plan", `{"name":"","conditions":["at=C"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, base, "")
	assert.Nil(t, decode[service.AgentStatus](t, rec).CurrentIntention, "dry run adopts nothing")
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t, Options{})
	base := "/v1/agents/" + s.createMover()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"invalid document", http.MethodPost, "/v1/agents", `{"facts":{}}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/v1/agents", `{`, http.StatusBadRequest},
		{"invalid id", http.MethodGet, "/v1/agents/not-a-uuid", "", http.StatusBadRequest},
		{"unknown agent", http.MethodPost, "/v1/agents/00000000-0000-0000-0000-000000000001/tick", "", http.StatusNotFound},
		{"empty percepts", http.MethodPost, base + "/percepts", `{"updates":[]}`, http.StatusBadRequest},
		{"bad certainty", http.MethodPost, base + "/percepts", `{"updates":[{"key":"a","value":"b","certainty":3}]}`, http.StatusBadRequest},
		{"bad desire", http.MethodPost, base + "/desires", `{"goal":{"name":"g","goal_type":"someday"}}`, http.StatusBadRequest},
		{"desire for unknown agent", http.MethodPost, "/v1/agents/00000000-0000-0000-0000-000000000001/desires", `{"goal":{"name":"g"}}`, http.StatusNotFound},
		{"snapshot without store", http.MethodPost, base + "/snapshot", "", http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, Options{APIKey: "s3cret"})

	rec := s.do(http.MethodGet, "/v1/agents", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.key = "wrong"
	rec = s.do(http.MethodGet, "/v1/agents", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s.key = ""
	rec = s.do(http.MethodGet, "/v1/agents", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health needs no key")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, Options{HealthChecks: map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	}})

	rec := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "error", health["status"])
	assert.Equal(t, map[string]any{"redis": "connection refused"}, health["dependencies"])

	s.createMover()
	rec = s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := decode[map[string]any](t, rec)
	assert.Equal(t, float64(1), metrics["agents"])
	assert.Equal(t, float64(3), metrics["request_count"])
	assert.Equal(t, float64(1), metrics["error_count"])
	assert.Contains(t, metrics, "runner")

	routes, ok := metrics["routes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), routes["GET /health"])
}
