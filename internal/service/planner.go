package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	DefaultPlannerMaxDepth = 32
	DefaultPlannerMaxNodes = 100000
)

// Planner performs breadth-first forward search over world states. Actions are tried
// in registration order, so among equally short plans the one using earlier-registered
// actions is returned.
type Planner struct {
	actions  []domain.Action
	maxDepth int
	maxNodes int
	tracer   trace.Tracer
}

type PlannerOption func(*Planner)

// WithMaxDepth bounds the plan length explored.
func WithMaxDepth(n int) PlannerOption {
	return func(p *Planner) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithMaxNodes bounds the number of states expanded per search.
func WithMaxNodes(n int) PlannerOption {
	return func(p *Planner) {
		if n > 0 {
			p.maxNodes = n
		}
	}
}

func WithPlannerTracer(t trace.Tracer) PlannerOption {
	return func(p *Planner) {
		if t != nil {
			p.tracer = t
		}
	}
}

func NewPlanner(opts ...PlannerOption) *Planner {
	p := &Planner{
		maxDepth: DefaultPlannerMaxDepth,
		maxNodes: DefaultPlannerMaxNodes,
		tracer:   noop.NewTracerProvider().Tracer("bdicore/planner"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddAction validates and registers a.
func (p *Planner) AddAction(a domain.Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, ok := p.Action(a.Name); ok {
		return fmt.Errorf("duplicate action %q", a.Name)
	}
	p.actions = append(p.actions, a)
	return nil
}

func (p *Planner) Actions() []domain.Action {
	return slices.Clone(p.actions)
}

// Action looks up a registered action by name.
func (p *Planner) Action(name string) (domain.Action, bool) {
	i := slices.IndexFunc(p.actions, func(a domain.Action) bool { return a.Name == name })
	if i < 0 {
		return domain.Action{}, false
	}
	return p.actions[i], true
}

// Plan searches for a sequence reaching a state that contains every binding of goal.
func (p *Planner) Plan(ctx context.Context, initial, goal domain.WorldState) (domain.Plan, error) {
	return p.PlanFor(ctx, goal.String(), initial, goal.Predicates())
}

type searchNode struct {
	state  domain.WorldState
	parent *searchNode
	action int
	depth  int
}

// PlanFor searches for the shortest action sequence after which every condition
// holds. The plan is named name. A goal already satisfied by initial yields an empty
// plan.
//
// ErrGoalNotAchievable is returned when a condition can never be established or the
// whole reachable space was searched. ErrPlanningFailed is returned when the depth or
// node bound, or ctx, stopped the search first.
func (p *Planner) PlanFor(ctx context.Context, name string, initial domain.WorldState, conditions []domain.Predicate) (domain.Plan, error) {
	ctx, span := p.tracer.Start(ctx, "bdi.plan", trace.WithAttributes(
		attribute.String("bdi.goal", name),
		attribute.Int("bdi.actions", len(p.actions)),
	))
	defer span.End()

	plan, expanded, err := p.search(ctx, name, initial, conditions)
	span.SetAttributes(attribute.Int("bdi.expanded", expanded))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorKind(err))
		return domain.Plan{}, err
	}
	span.SetAttributes(attribute.Int("bdi.plan_length", plan.Len()))
	return plan, nil
}

func (p *Planner) search(ctx context.Context, name string, initial domain.WorldState, conditions []domain.Predicate) (domain.Plan, int, error) {
	if initial.Satisfies(conditions) {
		return domain.NewPlan(name), 0, nil
	}
	if err := p.checkEstablishable(name, initial, conditions); err != nil {
		return domain.Plan{}, 0, err
	}

	visited := map[string]struct{}{initial.Key(): {}}
	queue := []*searchNode{{state: initial, action: -1}}
	expanded := 0
	truncated := false

	for head := 0; head < len(queue); head++ {
		if err := ctx.Err(); err != nil {
			return domain.Plan{}, expanded, fmt.Errorf("%w: goal %q: %v", domain.ErrPlanningFailed, name, err)
		}
		n := queue[head]
		queue[head] = nil

		if n.depth >= p.maxDepth {
			truncated = true
			continue
		}
		if expanded >= p.maxNodes {
			return domain.Plan{}, expanded, fmt.Errorf("%w: goal %q: node limit %d reached", domain.ErrPlanningFailed, name, p.maxNodes)
		}
		expanded++

		for i, a := range p.actions {
			if !a.ApplicableIn(n.state) {
				continue
			}
			next := n.state.Apply(a)
			key := next.Key()
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}

			child := &searchNode{state: next, parent: n, action: i, depth: n.depth + 1}
			if next.Satisfies(conditions) {
				return p.reconstruct(name, child), expanded, nil
			}
			queue = append(queue, child)
		}
	}

	if truncated {
		return domain.Plan{}, expanded, fmt.Errorf("%w: goal %q: depth limit %d reached", domain.ErrPlanningFailed, name, p.maxDepth)
	}
	return domain.Plan{}, expanded, fmt.Errorf("%w: goal %q: reachable states exhausted", domain.ErrGoalNotAchievable, name)
}

// checkEstablishable fails fast when an unmet condition is not produced by any effect.
func (p *Planner) checkEstablishable(name string, initial domain.WorldState, conditions []domain.Predicate) error {
	for _, cond := range conditions {
		if initial.Holds(cond) {
			continue
		}
		if !slices.ContainsFunc(p.actions, func(a domain.Action) bool { return establishes(a, cond) }) {
			return fmt.Errorf("%w: goal %q: no action establishes %s", domain.ErrGoalNotAchievable, name, cond)
		}
	}
	return nil
}

func establishes(a domain.Action, cond domain.Predicate) bool {
	for _, e := range a.Effects {
		if e.Key != cond.Key {
			continue
		}
		switch cond.Kind {
		case domain.PredicateEquals:
			if e.Kind == domain.PredicateEquals && e.Value == cond.Value {
				return true
			}
		case domain.PredicatePresent:
			if e.Kind == domain.PredicateEquals {
				return true
			}
		case domain.PredicateAbsent:
			if e.Kind == domain.PredicateAbsent {
				return true
			}
		}
	}
	return false
}

func (p *Planner) reconstruct(name string, leaf *searchNode) domain.Plan {
	var steps []domain.Action
	for n := leaf; n.parent != nil; n = n.parent {
		steps = append(steps, p.actions[n.action])
	}
	slices.Reverse(steps)
	return domain.NewPlan(name, steps...)
}
