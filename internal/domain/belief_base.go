package domain

import (
	"iter"
	"maps"
	"slices"
)

// BeliefBase maps proposition keys to beliefs. Keys are unique; the last write wins.
// It is owned by a single agent and is not safe for concurrent use.
type BeliefBase struct {
	beliefs map[string]Belief
}

func NewBeliefBase() *BeliefBase {
	return &BeliefBase{beliefs: make(map[string]Belief)}
}

// Add upserts b by key, replacing any previous value and certainty.
func (bb *BeliefBase) Add(b Belief) {
	b.certainty = ClampUnit(b.certainty)
	bb.beliefs[b.key] = b
}

func (bb *BeliefBase) Get(key string) (Belief, bool) {
	b, ok := bb.beliefs[key]
	return b, ok
}

// Remove deletes key and returns the belief it held, if any.
func (bb *BeliefBase) Remove(key string) (Belief, bool) {
	b, ok := bb.beliefs[key]
	if ok {
		delete(bb.beliefs, key)
	}
	return b, ok
}

func (bb *BeliefBase) Contains(key string) bool {
	_, ok := bb.beliefs[key]
	return ok
}

// Query returns every belief matching pred, in key order.
func (bb *BeliefBase) Query(pred func(Belief) bool) []Belief {
	var out []Belief
	for _, key := range bb.sortedKeys() {
		if b := bb.beliefs[key]; pred(b) {
			out = append(out, b)
		}
	}
	return out
}

// All iterates a snapshot taken when All is called, in key order. Mutating the base
// while ranging over the sequence does not affect what is yielded.
func (bb *BeliefBase) All() iter.Seq[Belief] {
	snapshot := make([]Belief, 0, len(bb.beliefs))
	for _, key := range bb.sortedKeys() {
		snapshot = append(snapshot, bb.beliefs[key])
	}
	return slices.Values(snapshot)
}

func (bb *BeliefBase) Clear() {
	clear(bb.beliefs)
}

func (bb *BeliefBase) Len() int {
	return len(bb.beliefs)
}

func (bb *BeliefBase) IsEmpty() bool {
	return len(bb.beliefs) == 0
}

// Lookup returns the value held for key; it satisfies Predicate.Eval.
func (bb *BeliefBase) Lookup(key string) (string, bool) {
	b, ok := bb.beliefs[key]
	return b.value, ok
}

// Holds reports whether every predicate is satisfied by the current beliefs.
func (bb *BeliefBase) Holds(preds ...Predicate) bool {
	for _, p := range preds {
		if !p.Eval(bb.Lookup) {
			return false
		}
	}
	return true
}

// Apply validates and merges an external update.
func (bb *BeliefBase) Apply(u BeliefUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.Retract {
		bb.Remove(u.Key)
		return nil
	}
	bb.Add(u.Belief())
	return nil
}

// Clone returns an independent copy.
func (bb *BeliefBase) Clone() *BeliefBase {
	return &BeliefBase{beliefs: maps.Clone(bb.beliefs)}
}

// Records converts every belief to its persistence form, in key order.
func (bb *BeliefBase) Records() []BeliefRecord {
	out := make([]BeliefRecord, 0, len(bb.beliefs))
	for b := range bb.All() {
		out = append(out, b.Record())
	}
	return out
}

func (bb *BeliefBase) sortedKeys() []string {
	return slices.Sorted(maps.Keys(bb.beliefs))
}
