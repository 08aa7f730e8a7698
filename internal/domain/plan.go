package domain

import (
	"slices"
	"strings"
)

// Plan is an ordered action sequence produced by the planner. It is not modified after
// construction.
type Plan struct {
	name    string
	actions []Action
}

func NewPlan(name string, actions ...Action) Plan {
	return Plan{name: name, actions: slices.Clone(actions)}
}

// AddAction returns a new plan with a appended.
func (p Plan) AddAction(a Action) Plan {
	return Plan{name: p.name, actions: append(slices.Clip(p.actions), a)}
}

func (p Plan) Name() string { return p.name }

// Actions returns a copy of the action sequence.
func (p Plan) Actions() []Action { return slices.Clone(p.actions) }

// Action returns the i-th action.
func (p Plan) Action(i int) (Action, bool) {
	if i < 0 || i >= len(p.actions) {
		return Action{}, false
	}
	return p.actions[i], true
}

func (p Plan) Len() int { return len(p.actions) }

func (p Plan) IsEmpty() bool { return len(p.actions) == 0 }

// ActionNames lists the action names in order.
func (p Plan) ActionNames() []string {
	out := make([]string, len(p.actions))
	for i, a := range p.actions {
		out[i] = a.Name
	}
	return out
}

// Simulate applies every action in order from initial without checking preconditions.
func (p Plan) Simulate(initial WorldState) WorldState {
	s := initial
	for _, a := range p.actions {
		s = s.Apply(a)
	}
	return s
}

func (p Plan) String() string {
	return p.name + "[" + strings.Join(p.ActionNames(), " -> ") + "]"
}
