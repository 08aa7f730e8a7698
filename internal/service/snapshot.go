package service

import (
	"fmt"
	"time"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/google/uuid"
)

type CollectionStatus struct {
	Len     int  `json:"len"`
	IsEmpty bool `json:"is_empty"`
}

type IntentionStatus struct {
	ID       uuid.UUID `json:"id"`
	Goal     string    `json:"goal"`
	Plan     []string  `json:"plan"`
	Cursor   int       `json:"cursor"`
	Priority float64   `json:"priority"`
	Replans  int       `json:"replans"`
}

// AgentStatus is the read-only view shown by the API and CLI.
type AgentStatus struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Tick             int64            `json:"tick"`
	Beliefs          CollectionStatus `json:"beliefs"`
	Desires          CollectionStatus `json:"desires"`
	Intentions       CollectionStatus `json:"intentions"`
	Rules            int              `json:"rules"`
	Actions          int              `json:"actions"`
	CurrentIntention *IntentionStatus `json:"current_intention,omitempty"`
}

func (a *Agent) Status() AgentStatus {
	st := AgentStatus{
		ID:         a.id,
		Name:       a.name,
		Tick:       a.ticks,
		Beliefs:    CollectionStatus{Len: a.beliefs.Len(), IsEmpty: a.beliefs.IsEmpty()},
		Desires:    CollectionStatus{Len: a.desires.Len(), IsEmpty: a.desires.IsEmpty()},
		Intentions: CollectionStatus{Len: a.intentions.Len(), IsEmpty: a.intentions.IsEmpty()},
		Rules:      len(a.inference.Rules()),
		Actions:    len(a.planner.Actions()),
	}
	if in, ok := a.intentions.Current(); ok {
		st.CurrentIntention = &IntentionStatus{
			ID:       in.ID(),
			Goal:     in.Goal().Name(),
			Plan:     in.Plan().ActionNames(),
			Cursor:   in.Cursor(),
			Priority: in.Priority(),
			Replans:  in.Replans(),
		}
	}
	return st
}

// Snapshot captures the agent's persistent state. Intentions are left out; they are
// replanned from the restored beliefs.
func (a *Agent) Snapshot() *domain.AgentSnapshot {
	s := &domain.AgentSnapshot{
		AgentID:   a.id,
		Name:      a.name,
		Tick:      a.ticks,
		Beliefs:   a.beliefs.Records(),
		CreatedAt: a.createdAt,
		UpdatedAt: time.Now().UTC(),
	}
	for _, r := range a.inference.Rules() {
		s.Rules = append(s.Rules, r.Record())
	}
	for _, act := range a.planner.Actions() {
		s.Actions = append(s.Actions, act.Record())
	}
	for _, d := range a.desires.All() {
		s.Desires = append(s.Desires, d.Record())
	}
	return s
}

// RestoreAgent rebuilds an agent from a snapshot. opts are applied before the
// snapshot's content, so a zero snapshot AgentID keeps the generated id.
func RestoreAgent(s *domain.AgentSnapshot, opts ...AgentOption) (*Agent, error) {
	a := NewAgent(s.Name, opts...)
	if s.AgentID != uuid.Nil {
		a.id = s.AgentID
	}
	a.ticks = s.Tick
	if !s.CreatedAt.IsZero() {
		a.createdAt = s.CreatedAt
	}

	for _, r := range s.Beliefs {
		a.beliefs.Add(r.Belief())
	}
	for _, rec := range s.Rules {
		r, err := domain.RuleFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if err := a.AddRule(r); err != nil {
			return nil, err
		}
	}
	for _, rec := range s.Actions {
		act, err := domain.ActionFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if err := a.AddAction(act); err != nil {
			return nil, err
		}
	}
	for _, rec := range s.Desires {
		d, err := a.DesireFromRecord(rec)
		if err != nil {
			return nil, err
		}
		a.desires.Add(d)
	}
	return a, nil
}

// DesireFromRecord builds a desire for this agent, compiling its utility expression.
// A zero priority means the goal's own priority.
func (a *Agent) DesireFromRecord(rec domain.DesireRecord) (*domain.Desire, error) {
	goal, err := domain.GoalFromRecord(rec.Goal)
	if err != nil {
		return nil, err
	}
	priority := rec.Priority
	if priority == 0 {
		priority = goal.Priority()
	}
	var d *domain.Desire
	if rec.ID != "" {
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("desire %q: invalid id: %w", goal.Name(), err)
		}
		d = domain.RestoreDesire(id, goal, priority)
	} else {
		d = domain.NewDesire(goal, priority)
	}
	if rec.Utility != "" {
		scorer, err := NewCELScorer(goal.Name(), rec.Utility, a.logger)
		if err != nil {
			return nil, err
		}
		d.WithScorer(scorer)
	}
	return d, nil
}
