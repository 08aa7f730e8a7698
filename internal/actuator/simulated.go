// Package actuator executes plan steps on behalf of agents.
package actuator

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"go.uber.org/zap"
)

// Simulated pretends to run actions: every action succeeds with its declared effects
// unless a failure was injected for it. It is safe for concurrent use.
type Simulated struct {
	mu       sync.Mutex
	failures map[string]int
	latency  time.Duration
	executed []string
	logger   *zap.Logger
}

func NewSimulated(logger *zap.Logger) *Simulated {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulated{failures: make(map[string]int), logger: logger}
}

// FailNext makes the next n executions of the named action report failure.
func (s *Simulated) FailNext(action string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[action] += n
}

// SetLatency delays every execution, honouring ctx.
func (s *Simulated) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// Executed lists the actions run successfully so far, in order.
func (s *Simulated) Executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.executed...)
}

func (s *Simulated) Execute(ctx context.Context, action domain.Action) (domain.Outcome, error) {
	s.mu.Lock()
	latency := s.latency
	s.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return domain.Outcome{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[action.Name] > 0 {
		s.failures[action.Name]--
		s.logger.Debug("simulated failure", zap.String("action", action.Name))
		return domain.Outcome{Success: false, Reason: "injected failure"}, nil
	}
	s.executed = append(s.executed, action.Name)
	return domain.Outcome{Success: true, Effects: DeclaredEffects(action)}, nil
}

// DeclaredEffects converts an action's effects into belief updates.
func DeclaredEffects(action domain.Action) []domain.BeliefUpdate {
	out := make([]domain.BeliefUpdate, 0, len(action.Effects))
	for _, e := range action.Effects {
		switch e.Kind {
		case domain.PredicateEquals:
			out = append(out, domain.BeliefUpdate{Key: e.Key, Value: e.Value, Certainty: 1})
		case domain.PredicateAbsent:
			out = append(out, domain.BeliefUpdate{Key: e.Key, Retract: true})
		}
	}
	return out
}
