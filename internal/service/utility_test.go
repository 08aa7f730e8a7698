package service

import (
	"testing"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewCELScorer_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		expression string
	}{
		{"syntax error", `state["battery"] ==`},
		{"unknown variable", `beliefs["battery"] == "low"`},
		{"string result", `state["battery"]`},
		{"list result", `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCELScorer("u", tt.expression, zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestCELScorer_Evaluate(t *testing.T) {
	state := domain.NewWorldState().Set("battery", "low").Set("temperature", "42")

	tests := []struct {
		name       string
		expression string
		want       float64
	}{
		{"ternary double", `state["battery"] == "low" ? 0.95 : 0.2`, 0.95},
		{"membership guard", `"door" in state ? 1.0 : 0.3`, 0.3},
		{"int", `size(state)`, 2},
		{"bool true", `state["battery"] == "low"`, 1},
		{"bool false", `state["battery"] == "high"`, 0},
		{"conversion", `double(state["temperature"]) / 100.0`, 0.42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewCELScorer("u", tt.expression, zap.NewNop())
			require.NoError(t, err)
			got, err := s.Evaluate(state)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.InDelta(t, tt.want, s.Score(state), 1e-9)
		})
	}
}

func TestCELScorer_RuntimeErrorFallsBackToPriority(t *testing.T) {
	s, err := NewCELScorer("charge", `state["battery"] == "low" ? 0.9 : 0.1`, zap.NewNop())
	require.NoError(t, err)

	empty := domain.NewWorldState()
	_, err = s.Evaluate(empty)
	assert.Error(t, err, "missing key is a runtime error")
	assert.Zero(t, s.Score(empty))

	d := domain.NewDesire(domain.Achievement("charge"), 0.35).WithScorer(s)
	assert.Equal(t, 0.35, d.EffectivePriority(empty))
	assert.Equal(t, 0.9, d.EffectivePriority(domain.NewWorldState().Set("battery", "low")))
}

func TestCELScorer_ResultIsClampedByDesire(t *testing.T) {
	s, err := NewCELScorer("big", `7.5`, zap.NewNop())
	require.NoError(t, err)

	d := domain.NewDesire(domain.Achievement("big"), 0.1).WithScorer(s)
	assert.Equal(t, 1.0, d.EffectivePriority(domain.NewWorldState()))
	assert.Equal(t, "big", s.Name())
	assert.Equal(t, `7.5`, s.Expression())
}
