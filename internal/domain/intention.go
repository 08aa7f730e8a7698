package domain

import (
	"slices"

	"github.com/google/uuid"
)

// Intention commits an agent to executing a plan for a goal. The cursor indexes the
// next action; cursor == plan length means the intention is complete.
type Intention struct {
	id       uuid.UUID
	desireID uuid.UUID
	goal     Goal
	plan     Plan
	cursor   int
	priority float64
	replans  int
}

func NewIntention(goal Goal, plan Plan) *Intention {
	return &Intention{id: uuid.New(), goal: goal, plan: plan, priority: goal.Priority()}
}

// ForDesire records which desire backs the intention and adopts its priority.
func (i *Intention) ForDesire(desireID uuid.UUID, priority float64) *Intention {
	i.desireID = desireID
	i.priority = ClampUnit(priority)
	return i
}

func (i *Intention) ID() uuid.UUID { return i.id }

func (i *Intention) DesireID() uuid.UUID { return i.desireID }

func (i *Intention) Goal() Goal { return i.goal }

func (i *Intention) Plan() Plan { return i.plan }

func (i *Intention) Cursor() int { return i.cursor }

func (i *Intention) Priority() float64 { return i.priority }

// Replans counts how many times the plan was replaced after a failure.
func (i *Intention) Replans() int { return i.replans }

// Next advances the cursor; it never moves past the plan length.
func (i *Intention) Next() {
	if i.cursor < i.plan.Len() {
		i.cursor++
	}
}

func (i *Intention) IsCompleted() bool {
	return i.cursor >= i.plan.Len()
}

// Reset rewinds the cursor to the first action.
func (i *Intention) Reset() {
	i.cursor = 0
}

// CurrentAction returns the action at the cursor.
func (i *Intention) CurrentAction() (Action, bool) {
	return i.plan.Action(i.cursor)
}

// Replan swaps in a fresh plan and rewinds the cursor.
func (i *Intention) Replan(p Plan) {
	i.plan = p
	i.cursor = 0
	i.replans++
}

// IntentionStack holds active intentions; the most recently pushed one is current.
type IntentionStack struct {
	intentions []*Intention
}

func NewIntentionStack() *IntentionStack {
	return &IntentionStack{}
}

func (s *IntentionStack) Push(i *Intention) {
	s.intentions = append(s.intentions, i)
}

func (s *IntentionStack) Pop() (*Intention, bool) {
	if len(s.intentions) == 0 {
		return nil, false
	}
	top := s.intentions[len(s.intentions)-1]
	s.intentions[len(s.intentions)-1] = nil
	s.intentions = s.intentions[:len(s.intentions)-1]
	return top, true
}

// Current returns the top intention. The pointer is live: advancing it mutates the
// stack's entry.
func (s *IntentionStack) Current() (*Intention, bool) {
	if len(s.intentions) == 0 {
		return nil, false
	}
	return s.intentions[len(s.intentions)-1], true
}

// RemoveCompleted drops every completed intention and returns them bottom to top.
func (s *IntentionStack) RemoveCompleted() []*Intention {
	var removed []*Intention
	s.intentions = slices.DeleteFunc(s.intentions, func(i *Intention) bool {
		if i.IsCompleted() {
			removed = append(removed, i)
			return true
		}
		return false
	})
	return removed
}

// Backs reports whether some intention is backed by the desire.
func (s *IntentionStack) Backs(desireID uuid.UUID) bool {
	return slices.ContainsFunc(s.intentions, func(i *Intention) bool {
		return i.desireID == desireID
	})
}

// All returns the intentions bottom to top.
func (s *IntentionStack) All() []*Intention {
	return slices.Clone(s.intentions)
}

func (s *IntentionStack) Clear() {
	clear(s.intentions)
	s.intentions = s.intentions[:0]
}

func (s *IntentionStack) Len() int { return len(s.intentions) }

func (s *IntentionStack) IsEmpty() bool { return len(s.intentions) == 0 }
