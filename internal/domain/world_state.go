package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// WorldState is an immutable-by-convention snapshot of key/value facts used by the
// planner. Set and Apply return new states; the receiver is never modified.
type WorldState struct {
	vars map[string]string
}

func NewWorldState() WorldState {
	return WorldState{vars: map[string]string{}}
}

// WorldStateOf copies m into a new state.
func WorldStateOf(m map[string]string) WorldState {
	return WorldState{vars: maps.Clone(m)}
}

// WorldStateFromBeliefs snapshots every belief whose certainty is at least minCertainty.
func WorldStateFromBeliefs(bb *BeliefBase, minCertainty float64) WorldState {
	vars := make(map[string]string, bb.Len())
	for b := range bb.All() {
		if b.Certainty() >= minCertainty {
			vars[b.Key()] = b.Value()
		}
	}
	return WorldState{vars: vars}
}

// Set returns a copy with key bound to value.
func (s WorldState) Set(key, value string) WorldState {
	next := s.clone()
	next.vars[key] = value
	return next
}

func (s WorldState) Get(key string) (string, bool) {
	v, ok := s.vars[key]
	return v, ok
}

// Matches reports whether key is bound to exactly value.
func (s WorldState) Matches(key, value string) bool {
	v, ok := s.vars[key]
	return ok && v == value
}

func (s WorldState) Holds(p Predicate) bool {
	return p.Eval(s.Get)
}

// Satisfies reports whether every predicate holds.
func (s WorldState) Satisfies(preds []Predicate) bool {
	for _, p := range preds {
		if !s.Holds(p) {
			return false
		}
	}
	return true
}

// Contains reports whether every key/value pair of other is present in s.
func (s WorldState) Contains(other WorldState) bool {
	for k, v := range other.vars {
		if !s.Matches(k, v) {
			return false
		}
	}
	return true
}

// Apply returns the state produced by the action's effects. Preconditions are not
// checked here.
func (s WorldState) Apply(a Action) WorldState {
	next := s.clone()
	for _, e := range a.Effects {
		switch e.Kind {
		case PredicateEquals:
			next.vars[e.Key] = e.Value
		case PredicateAbsent:
			delete(next.vars, e.Key)
		}
	}
	return next
}

// Equal compares two states by exact key/value equality.
func (s WorldState) Equal(other WorldState) bool {
	return maps.Equal(s.vars, other.vars)
}

// Key is a canonical encoding: equal states have equal keys.
func (s WorldState) Key() string {
	var sb strings.Builder
	for _, k := range slices.Sorted(maps.Keys(s.vars)) {
		sb.WriteString(strconv.Quote(k))
		sb.WriteByte('=')
		sb.WriteString(strconv.Quote(s.vars[k]))
		sb.WriteByte(';')
	}
	return sb.String()
}

func (s WorldState) Len() int { return len(s.vars) }

// Map returns a copy of the underlying bindings.
func (s WorldState) Map() map[string]string {
	return maps.Clone(s.vars)
}

// Predicates renders the state as equality predicates in key order.
func (s WorldState) Predicates() []Predicate {
	out := make([]Predicate, 0, len(s.vars))
	for _, k := range slices.Sorted(maps.Keys(s.vars)) {
		out = append(out, Equals(k, s.vars[k]))
	}
	return out
}

func (s WorldState) String() string {
	return "{" + strings.Join(PredicateStrings(s.Predicates()), ", ") + "}"
}

func (s WorldState) clone() WorldState {
	vars := make(map[string]string, len(s.vars)+1)
	maps.Copy(vars, s.vars)
	return WorldState{vars: vars}
}
