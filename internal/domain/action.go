package domain

import (
	"fmt"
	"slices"
)

// Action is a planning operator. Preconditions must all hold for the action to be
// applicable; effects overwrite (Equals) or delete (Absent) keys. Parameters are
// descriptive only: conditions are authored per action, never derived from them.
type Action struct {
	Name          string
	Parameters    []string
	Preconditions []Predicate
	Effects       []Predicate
}

func NewAction(name string) Action {
	return Action{Name: name}
}

// WithParameter returns a copy with param appended.
func (a Action) WithParameter(param string) Action {
	a.Parameters = append(slices.Clip(a.Parameters), param)
	return a
}

// Requires returns a copy with the preconditions appended.
func (a Action) Requires(ps ...Predicate) Action {
	a.Preconditions = append(slices.Clip(a.Preconditions), ps...)
	return a
}

// Produces returns a copy with the effects appended.
func (a Action) Produces(ps ...Predicate) Action {
	a.Effects = append(slices.Clip(a.Effects), ps...)
	return a
}

// Validate rejects actions the planner cannot apply deterministically.
func (a Action) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("action name is required")
	}
	seen := make(map[string]Predicate, len(a.Effects))
	for _, e := range a.Effects {
		if e.Kind == PredicatePresent {
			return fmt.Errorf("action %q: effect %q must set or delete a key", a.Name, e)
		}
		if prev, ok := seen[e.Key]; ok && prev != e {
			return fmt.Errorf("action %q: conflicting effects %q and %q", a.Name, prev, e)
		}
		seen[e.Key] = e
	}
	return nil
}

// ApplicableIn reports whether every precondition holds in s.
func (a Action) ApplicableIn(s WorldState) bool {
	return s.Satisfies(a.Preconditions)
}

func (a Action) String() string {
	if len(a.Parameters) == 0 {
		return a.Name
	}
	return fmt.Sprintf("%s%v", a.Name, a.Parameters)
}

func (a Action) Record() ActionRecord {
	return ActionRecord{
		Name:          a.Name,
		Parameters:    slices.Clone(a.Parameters),
		Preconditions: PredicateStrings(a.Preconditions),
		Effects:       PredicateStrings(a.Effects),
	}
}

// ActionFromRecord parses and validates a persisted action.
func ActionFromRecord(r ActionRecord) (Action, error) {
	pre, err := ParsePredicates(r.Preconditions)
	if err != nil {
		return Action{}, fmt.Errorf("action %q preconditions: %w", r.Name, err)
	}
	eff, err := ParsePredicates(r.Effects)
	if err != nil {
		return Action{}, fmt.Errorf("action %q effects: %w", r.Name, err)
	}
	a := Action{
		Name:          r.Name,
		Parameters:    slices.Clone(r.Parameters),
		Preconditions: pre,
		Effects:       eff,
	}
	if err := a.Validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}
