package domain

import "github.com/google/uuid"

// Scorer is the pluggable utility capability used to rank desires at deliberation time.
type Scorer interface {
	Score(state WorldState) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(state WorldState) float64

func (f ScorerFunc) Score(state WorldState) float64 { return f(state) }

// Desire wraps a goal with a runtime priority that may diverge from the goal's own.
type Desire struct {
	id       uuid.UUID
	goal     Goal
	priority float64
	scorer   Scorer
}

func NewDesire(goal Goal, priority float64) *Desire {
	return &Desire{id: uuid.New(), goal: goal, priority: ClampUnit(priority)}
}

// RestoreDesire rebuilds a persisted desire under its original id.
func RestoreDesire(id uuid.UUID, goal Goal, priority float64) *Desire {
	return &Desire{id: id, goal: goal, priority: ClampUnit(priority)}
}

// WithScorer attaches a utility scorer that overrides the static priority when ranking.
func (d *Desire) WithScorer(s Scorer) *Desire {
	d.scorer = s
	return d
}

func (d *Desire) ID() uuid.UUID { return d.id }

func (d *Desire) Goal() Goal { return d.goal }

func (d *Desire) Priority() float64 { return d.priority }

func (d *Desire) Scorer() Scorer { return d.scorer }

func (d *Desire) SetPriority(p float64) { d.priority = ClampUnit(p) }

// FallibleScorer is implemented by scorers whose evaluation can fail. On error the
// desire falls back to its static priority.
type FallibleScorer interface {
	Evaluate(state WorldState) (float64, error)
}

// EffectivePriority is the scorer's clamped result in state, or the static priority.
func (d *Desire) EffectivePriority(state WorldState) float64 {
	switch s := d.scorer.(type) {
	case nil:
		return d.priority
	case FallibleScorer:
		v, err := s.Evaluate(state)
		if err != nil {
			return d.priority
		}
		return ClampUnit(v)
	default:
		return ClampUnit(s.Score(state))
	}
}

// Record converts the desire to its persistence form. Scorers that expose their
// source expression keep it in the record.
func (d *Desire) Record() DesireRecord {
	r := DesireRecord{ID: d.id.String(), Goal: d.goal.Record(), Priority: d.priority}
	if e, ok := d.scorer.(interface{ Expression() string }); ok {
		r.Utility = e.Expression()
	}
	return r
}
