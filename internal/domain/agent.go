package domain

import (
	"time"

	"github.com/google/uuid"
)

// BeliefRecord is the persisted form of a Belief.
type BeliefRecord struct {
	Key       string  `json:"key" yaml:"key"`
	Value     string  `json:"value" yaml:"value"`
	Certainty float64 `json:"certainty" yaml:"certainty"`
}

// Belief rebuilds a belief, clamping the stored certainty.
func (r BeliefRecord) Belief() Belief {
	return NewBeliefWithCertainty(r.Key, r.Value, r.Certainty)
}

// GoalRecord is the persisted form of a Goal. A nil priority means the default.
type GoalRecord struct {
	Name       string   `json:"name" yaml:"name"`
	GoalType   string   `json:"goal_type" yaml:"goal_type"`
	Conditions []string `json:"conditions" yaml:"conditions"`
	Priority   *float64 `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// ActionRecord is the persisted form of an Action.
type ActionRecord struct {
	Name          string   `json:"name" yaml:"name"`
	Parameters    []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Preconditions []string `json:"preconditions,omitempty" yaml:"preconditions,omitempty"`
	Effects       []string `json:"effects" yaml:"effects"`
}

// RuleRecord is the persisted form of a Rule.
type RuleRecord struct {
	Name        string   `json:"name" yaml:"name"`
	Conditions  []string `json:"conditions" yaml:"conditions"`
	Conclusions []string `json:"conclusions" yaml:"conclusions"`
	Certainty   float64  `json:"certainty,omitempty" yaml:"certainty,omitempty"`
}

// DesireRecord is the persisted form of a Desire. Utility holds a scorer expression.
type DesireRecord struct {
	ID       string     `json:"id,omitempty" yaml:"id,omitempty"`
	Goal     GoalRecord `json:"goal" yaml:"goal"`
	Priority float64    `json:"priority" yaml:"priority"`
	Utility  string     `json:"utility,omitempty" yaml:"utility,omitempty"`
}

// AgentSnapshot captures everything needed to rebuild an agent between runs.
// Intentions are not persisted: plans are recomputed from the restored beliefs.
type AgentSnapshot struct {
	AgentID   uuid.UUID      `json:"agent_id"`
	Name      string         `json:"name"`
	Tick      int64          `json:"tick"`
	Beliefs   []BeliefRecord `json:"beliefs"`
	Rules     []RuleRecord   `json:"rules"`
	Actions   []ActionRecord `json:"actions"`
	Desires   []DesireRecord `json:"desires"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
