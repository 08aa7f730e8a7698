package domain

import (
	"fmt"
	"math"
)

// Belief is a certainty-weighted proposition held by an agent.
// Certainty is always within [0,1]; the fields are only reachable through the
// constructors and setters below so no caller can leave it outside that range.
type Belief struct {
	key       string
	value     string
	certainty float64
}

// NewBelief creates an asserted belief with certainty 1.0.
func NewBelief(key, value string) Belief {
	return Belief{key: key, value: value, certainty: 1.0}
}

// Fact is NewBelief under the name used for sensed, fully certain propositions.
func Fact(key, value string) Belief {
	return NewBelief(key, value)
}

// NewBeliefWithCertainty creates a belief with certainty clamped into [0,1].
func NewBeliefWithCertainty(key, value string, certainty float64) Belief {
	return Belief{key: key, value: value, certainty: ClampUnit(certainty)}
}

func (b Belief) Key() string { return b.key }

func (b Belief) Value() string { return b.value }

func (b Belief) Certainty() float64 { return b.certainty }

// SetCertainty replaces the certainty, clamped into [0,1].
func (b *Belief) SetCertainty(c float64) { b.certainty = ClampUnit(c) }

// WithCertainty returns a copy carrying the clamped certainty.
func (b Belief) WithCertainty(c float64) Belief {
	b.certainty = ClampUnit(c)
	return b
}

func (b Belief) String() string {
	return fmt.Sprintf("%s=%s (%.2f)", b.key, b.value, b.certainty)
}

// Record converts the belief to its persistence form.
func (b Belief) Record() BeliefRecord {
	return BeliefRecord{Key: b.key, Value: b.value, Certainty: b.certainty}
}

// BeliefUpdate is a raw belief proposal from a sensor, the API or an actuator outcome.
// It bypasses the Belief constructors and is validated before it is merged.
type BeliefUpdate struct {
	Key       string  `json:"key" yaml:"key"`
	Value     string  `json:"value" yaml:"value"`
	Certainty float64 `json:"certainty" yaml:"certainty"`
	// Retract removes the key instead of asserting it.
	Retract bool `json:"retract,omitempty" yaml:"retract,omitempty"`
}

// Validate rejects updates that cannot be merged without silently changing them.
func (u BeliefUpdate) Validate() error {
	if u.Key == "" {
		return fmt.Errorf("%w: empty key", ErrBeliefRevision)
	}
	if u.Retract {
		return nil
	}
	if math.IsNaN(u.Certainty) || u.Certainty < 0 || u.Certainty > 1 {
		return fmt.Errorf("%w: certainty %v for %q outside [0,1]", ErrBeliefRevision, u.Certainty, u.Key)
	}
	return nil
}

// Belief converts a validated update into a belief.
func (u BeliefUpdate) Belief() Belief {
	return NewBeliefWithCertainty(u.Key, u.Value, u.Certainty)
}

// ClampUnit clamps v into [0,1]. NaN maps to 0.
func ClampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0.0, math.Min(1.0, v))
}
