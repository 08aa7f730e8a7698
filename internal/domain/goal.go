package domain

import (
	"fmt"
	"slices"
)

// GoalKind classifies how a goal is pursued.
type GoalKind string

const (
	// GoalAchievement is pursued until its conditions hold once, then dropped.
	GoalAchievement GoalKind = "achievement"
	// GoalMaintenance stays dormant while its conditions hold and is re-pursued
	// whenever they stop holding.
	GoalMaintenance GoalKind = "maintenance"
	// GoalTest only checks whether its conditions hold; it is never planned for.
	GoalTest GoalKind = "test"
)

func ValidGoalKind(k string) bool {
	switch GoalKind(k) {
	case GoalAchievement, GoalMaintenance, GoalTest:
		return true
	}
	return false
}

// DefaultGoalPriority is the priority of a goal built without WithPriority.
const DefaultGoalPriority = 0.5

// Goal is a desired state described by ordered conditions. Builder methods return
// modified copies; the receiver is never changed.
type Goal struct {
	name       string
	kind       GoalKind
	conditions []Predicate
	priority   float64
}

func NewGoal(name string, kind GoalKind) Goal {
	return Goal{name: name, kind: kind, priority: DefaultGoalPriority}
}

func Achievement(name string) Goal { return NewGoal(name, GoalAchievement) }

func Maintenance(name string) Goal { return NewGoal(name, GoalMaintenance) }

func TestGoal(name string) Goal { return NewGoal(name, GoalTest) }

// WithCondition returns a copy with p appended to the conditions.
func (g Goal) WithCondition(p Predicate) Goal {
	g.conditions = append(slices.Clip(g.conditions), p)
	return g
}

// WithConditions returns a copy with every predicate appended in order.
func (g Goal) WithConditions(ps ...Predicate) Goal {
	g.conditions = append(slices.Clip(g.conditions), ps...)
	return g
}

// WithPriority returns a copy with the clamped priority.
func (g Goal) WithPriority(p float64) Goal {
	g.priority = ClampUnit(p)
	return g
}

func (g Goal) Name() string { return g.name }

func (g Goal) Kind() GoalKind { return g.kind }

// Conditions returns a copy of the ordered conditions.
func (g Goal) Conditions() []Predicate { return slices.Clone(g.conditions) }

func (g Goal) Priority() float64 { return g.priority }

// SatisfiedBy reports whether every condition holds in the given beliefs.
func (g Goal) SatisfiedBy(bb *BeliefBase) bool {
	return bb.Holds(g.conditions...)
}

// SatisfiedIn reports whether every condition holds in the given world state.
func (g Goal) SatisfiedIn(s WorldState) bool {
	return s.Satisfies(g.conditions)
}

func (g Goal) String() string {
	return fmt.Sprintf("%s(%s)", g.name, g.kind)
}

func (g Goal) Record() GoalRecord {
	priority := g.priority
	return GoalRecord{
		Name:       g.name,
		GoalType:   string(g.kind),
		Conditions: PredicateStrings(g.conditions),
		Priority:   &priority,
	}
}

// GoalFromRecord rebuilds a goal, rejecting unknown kinds and malformed conditions.
func GoalFromRecord(r GoalRecord) (Goal, error) {
	if r.Name == "" {
		return Goal{}, fmt.Errorf("goal name is required")
	}
	kind := r.GoalType
	if kind == "" {
		kind = string(GoalAchievement)
	}
	if !ValidGoalKind(kind) {
		return Goal{}, fmt.Errorf("goal %q: invalid goal_type %q", r.Name, r.GoalType)
	}
	conds, err := ParsePredicates(r.Conditions)
	if err != nil {
		return Goal{}, fmt.Errorf("goal %q: %w", r.Name, err)
	}
	g := NewGoal(r.Name, GoalKind(kind)).WithConditions(conds...)
	if r.Priority != nil {
		g = g.WithPriority(*r.Priority)
	}
	return g, nil
}
