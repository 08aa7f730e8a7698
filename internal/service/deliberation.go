package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	DefaultMaxPromotionsPerTick = 1
	DefaultActionTimeout        = 5 * time.Second
)

// Tick event types.
const (
	EventBeliefRejected    = "belief_rejected"
	EventSensorFailed      = "sensor_failed"
	EventReasoningFailed   = "reasoning_failed"
	EventDesireSatisfied   = "desire_satisfied"
	EventTestFailed        = "test_failed"
	EventPlanningFailed    = "planning_failed"
	EventPlanningDeferred  = "planning_deferred"
	EventIntentionAdopted  = "intention_adopted"
	EventActionExecuted    = "action_executed"
	EventActionFailed      = "action_failed"
	EventReplanned         = "replanned"
	EventIntentionDropped  = "intention_dropped"
	EventIntentionFinished = "intention_finished"
	EventGoalAchieved      = "goal_achieved"
)

// AgentConfig tunes the deliberation cycle.
type AgentConfig struct {
	MaxPromotionsPerTick int
	// BeliefMinCertainty is the threshold below which beliefs are left out of the
	// world state used for goal checks and planning.
	BeliefMinCertainty float64
	ActionTimeout      time.Duration
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		MaxPromotionsPerTick: DefaultMaxPromotionsPerTick,
		ActionTimeout:        DefaultActionTimeout,
	}
}

// TickEvent records one notable outcome of a tick. Failures never abort a tick; they
// are reported here instead.
type TickEvent struct {
	Type   string `json:"type"`
	Kind   string `json:"kind,omitempty"`
	Goal   string `json:"goal,omitempty"`
	Action string `json:"action,omitempty"`
	Error  string `json:"error,omitempty"`
}

type TickReport struct {
	AgentID  uuid.UUID             `json:"agent_id"`
	Tick     int64                 `json:"tick"`
	Merged   int                   `json:"merged"`
	Derived  []domain.BeliefRecord `json:"derived"`
	Promoted []string              `json:"promoted"`
	Executed string                `json:"executed,omitempty"`
	Achieved []string              `json:"achieved"`
	Events   []TickEvent           `json:"events"`
	Duration time.Duration         `json:"duration_ns"`
}

func (r *TickReport) event(e TickEvent) {
	r.Events = append(r.Events, e)
}

func (r *TickReport) failure(typ string, goal, action string, err error) {
	r.event(TickEvent{Type: typ, Kind: domain.ErrorKind(err), Goal: goal, Action: action, Error: err.Error()})
}

// EventsOfType filters the report's events.
func (r *TickReport) EventsOfType(typ string) []TickEvent {
	var out []TickEvent
	for _, e := range r.Events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Agent runs the deliberation cycle over its own beliefs, desires and intentions. It is
// not safe for concurrent use; Registry serializes access.
type Agent struct {
	id        uuid.UUID
	name      string
	createdAt time.Time
	ticks     int64

	beliefs    *domain.BeliefBase
	desires    *DesireSet
	intentions *domain.IntentionStack
	inference  *InferenceEngine
	planner    *Planner

	sensors  []domain.Sensor
	actuator domain.Actuator

	cfg    AgentConfig
	logger *zap.Logger
	tracer trace.Tracer

	plannerOpts   []PlannerOption
	maxIterations int
}

type AgentOption func(*Agent)

func WithAgentID(id uuid.UUID) AgentOption {
	return func(a *Agent) { a.id = id }
}

// WithSensors appends sensors consulted at the start of every tick, in order.
func WithSensors(sensors ...domain.Sensor) AgentOption {
	return func(a *Agent) { a.sensors = append(a.sensors, sensors...) }
}

// WithActuator sets the executor for plan steps. Without one, every action succeeds
// with its declared effects.
func WithActuator(act domain.Actuator) AgentOption {
	return func(a *Agent) { a.actuator = act }
}

func WithAgentConfig(cfg AgentConfig) AgentOption {
	return func(a *Agent) { a.cfg = cfg }
}

func WithLogger(logger *zap.Logger) AgentOption {
	return func(a *Agent) { a.logger = logger }
}

// WithTracer traces ticks, inference and planning.
func WithTracer(t trace.Tracer) AgentOption {
	return func(a *Agent) { a.tracer = t }
}

func WithInferenceEngine(e *InferenceEngine) AgentOption {
	return func(a *Agent) { a.inference = e }
}

func WithPlanner(p *Planner) AgentOption {
	return func(a *Agent) { a.planner = p }
}

// WithPlannerLimits bounds the agent's own planner. Non-positive values keep the
// defaults. It has no effect together with WithPlanner.
func WithPlannerLimits(maxDepth, maxNodes int) AgentOption {
	return func(a *Agent) {
		a.plannerOpts = append(a.plannerOpts, WithMaxDepth(maxDepth), WithMaxNodes(maxNodes))
	}
}

// WithInferenceLimit caps fixpoint iterations of the agent's own inference engine.
func WithInferenceLimit(maxIterations int) AgentOption {
	return func(a *Agent) { a.maxIterations = maxIterations }
}

func NewAgent(name string, opts ...AgentOption) *Agent {
	a := &Agent{
		id:         uuid.New(),
		name:       name,
		createdAt:  time.Now().UTC(),
		beliefs:    domain.NewBeliefBase(),
		desires:    NewDesireSet(),
		intentions: domain.NewIntentionStack(),
		cfg:        DefaultAgentConfig(),
		logger:     zap.NewNop(),
		tracer:     noop.NewTracerProvider().Tracer("bdicore/agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cfg.MaxPromotionsPerTick <= 0 {
		a.cfg.MaxPromotionsPerTick = DefaultMaxPromotionsPerTick
	}
	if a.cfg.ActionTimeout <= 0 {
		a.cfg.ActionTimeout = DefaultActionTimeout
	}
	if a.inference == nil {
		a.inference = NewInferenceEngine(a.maxIterations, a.logger)
		a.inference.SetTracer(a.tracer)
	}
	if a.planner == nil {
		a.planner = NewPlanner(append(a.plannerOpts, WithPlannerTracer(a.tracer))...)
	}
	return a
}

func (a *Agent) ID() uuid.UUID { return a.id }

func (a *Agent) Name() string { return a.name }

func (a *Agent) Ticks() int64 { return a.ticks }

func (a *Agent) Beliefs() *domain.BeliefBase { return a.beliefs }

func (a *Agent) Desires() *DesireSet { return a.desires }

func (a *Agent) Intentions() *domain.IntentionStack { return a.intentions }

func (a *Agent) Inference() *InferenceEngine { return a.inference }

func (a *Agent) Planner() *Planner { return a.planner }

func (a *Agent) Config() AgentConfig { return a.cfg }

func (a *Agent) AddRule(r domain.Rule) error { return a.inference.AddRule(r) }

func (a *Agent) AddAction(act domain.Action) error { return a.planner.AddAction(act) }

// AddDesire wraps goal in a desire with the given priority and adds it.
func (a *Agent) AddDesire(goal domain.Goal, priority float64) *domain.Desire {
	d := domain.NewDesire(goal, priority)
	a.desires.Add(d)
	return d
}

// WorldState snapshots the beliefs that clear the configured certainty threshold.
func (a *Agent) WorldState() domain.WorldState {
	return domain.WorldStateFromBeliefs(a.beliefs, a.cfg.BeliefMinCertainty)
}

// PlanGoal runs the planner for goal from the current world state without adopting
// the result.
func (a *Agent) PlanGoal(ctx context.Context, goal domain.Goal) (domain.Plan, error) {
	return a.planner.PlanFor(ctx, goal.Name(), a.WorldState(), goal.Conditions())
}

// Tick runs one deliberation cycle and executes at most one action. The returned
// error is non-nil only when ctx was already done; every other failure is reported as
// an event.
func (a *Agent) Tick(ctx context.Context) (*TickReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	a.ticks++

	ctx, span := a.tracer.Start(ctx, "bdi.tick", trace.WithAttributes(
		attribute.String("bdi.agent_id", a.id.String()),
		attribute.Int64("bdi.tick", a.ticks),
	))
	defer span.End()

	report := &TickReport{AgentID: a.id, Tick: a.ticks}

	a.perceive(ctx, report)
	a.reason(ctx, report)
	state := a.WorldState()
	a.deliberate(ctx, state, report)
	a.execute(ctx, state, report)
	a.removeCompleted(report)

	report.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("bdi.events", len(report.Events)),
		attribute.String("bdi.executed", report.Executed),
	)
	a.logger.Debug("tick complete",
		zap.String("agent_id", a.id.String()),
		zap.Int64("tick", a.ticks),
		zap.Int("merged", report.Merged),
		zap.Int("derived", len(report.Derived)),
		zap.Strings("promoted", report.Promoted),
		zap.String("executed", report.Executed),
		zap.Int("events", len(report.Events)))
	return report, nil
}

func (a *Agent) perceive(ctx context.Context, report *TickReport) {
	for _, s := range a.sensors {
		updates, err := s.Sense(ctx)
		if err != nil {
			err = fmt.Errorf("%w: sensor: %v", domain.ErrCollaborator, err)
			a.logger.Warn("sensor failed", zap.String("agent_id", a.id.String()), zap.Error(err))
			report.failure(EventSensorFailed, "", "", err)
		}
		for _, u := range updates {
			if err := a.beliefs.Apply(u); err != nil {
				report.failure(EventBeliefRejected, "", "", err)
				continue
			}
			report.Merged++
		}
	}
}

func (a *Agent) reason(ctx context.Context, report *TickReport) {
	result, err := a.inference.Infer(ctx, a.beliefs)
	if err != nil {
		a.logger.Warn("inference failed", zap.String("agent_id", a.id.String()), zap.Error(err))
		report.failure(EventReasoningFailed, "", "", err)
		return
	}
	result.Commit(a.beliefs)
	report.Derived = result.Records()
}

// deliberate walks unbacked desires by descending effective priority, dropping the
// satisfied ones and adopting intentions for the rest.
func (a *Agent) deliberate(ctx context.Context, state domain.WorldState, report *TickReport) {
	var adopted []*domain.Intention
	top, hasTop := a.intentions.Current()

	for _, rd := range a.desires.Ranked(state) {
		d := rd.Desire
		if a.intentions.Backs(d.ID()) {
			continue
		}
		goal := d.Goal()

		if goal.SatisfiedIn(state) {
			if goal.Kind() == domain.GoalMaintenance {
				continue
			}
			a.desires.Remove(d.ID())
			report.event(TickEvent{Type: EventDesireSatisfied, Goal: goal.Name()})
			continue
		}
		if goal.Kind() == domain.GoalTest {
			a.desires.Remove(d.ID())
			report.event(TickEvent{Type: EventTestFailed, Goal: goal.Name()})
			continue
		}

		if len(adopted) >= a.cfg.MaxPromotionsPerTick {
			continue
		}
		if hasTop && rd.Priority <= top.Priority() {
			continue
		}

		plan, err := a.planner.PlanFor(ctx, goal.Name(), state, goal.Conditions())
		if err != nil && deferrable(err) {
			a.logger.Debug("planning deferred",
				zap.String("agent_id", a.id.String()),
				zap.String("goal", goal.Name()),
				zap.Error(err))
			report.failure(EventPlanningDeferred, goal.Name(), "", err)
			continue
		}
		if err != nil {
			a.desires.Remove(d.ID())
			a.logger.Info("desire dropped",
				zap.String("agent_id", a.id.String()),
				zap.String("goal", goal.Name()),
				zap.Error(err))
			report.failure(EventPlanningFailed, goal.Name(), "", err)
			continue
		}

		adopted = append(adopted, domain.NewIntention(goal, plan).ForDesire(d.ID(), rd.Priority))
		report.Promoted = append(report.Promoted, goal.Name())
		report.event(TickEvent{Type: EventIntentionAdopted, Goal: goal.Name()})
	}

	// lowest first so the highest-ranked adoption ends on top
	for _, in := range slices.Backward(adopted) {
		a.intentions.Push(in)
	}
}

// execute advances the top intention by at most one action.
func (a *Agent) execute(ctx context.Context, state domain.WorldState, report *TickReport) {
	in, ok := a.intentions.Current()
	if !ok {
		return
	}
	goal := in.Goal()

	if in.IsCompleted() || goal.SatisfiedIn(state) {
		a.intentions.Pop()
		a.finish(in, state, report)
		return
	}

	action, _ := in.CurrentAction()
	if err := ctx.Err(); err != nil {
		report.failure(EventPlanningDeferred, goal.Name(), action.Name, err)
		return
	}
	if !action.ApplicableIn(state) {
		err := fmt.Errorf("%w: preconditions of %q no longer hold", domain.ErrPlanningFailed, action.Name)
		report.failure(EventActionFailed, goal.Name(), action.Name, err)
		a.replan(ctx, in, state, report)
		return
	}

	outcome, err := a.act(ctx, action)
	if err == nil && !outcome.Success {
		err = fmt.Errorf("%w: action %q failed: %s", domain.ErrCollaborator, action.Name, outcome.Reason)
	}
	if err != nil {
		a.logger.Warn("action failed",
			zap.String("agent_id", a.id.String()),
			zap.String("goal", goal.Name()),
			zap.String("action", action.Name),
			zap.Error(err))
		report.failure(EventActionFailed, goal.Name(), action.Name, err)
		a.replan(ctx, in, state, report)
		return
	}

	a.applyOutcome(action, outcome, report)
	in.Next()
	report.Executed = action.Name
	report.event(TickEvent{Type: EventActionExecuted, Goal: goal.Name(), Action: action.Name})
}

func (a *Agent) act(ctx context.Context, action domain.Action) (domain.Outcome, error) {
	if a.actuator == nil {
		return domain.Outcome{Success: true}, nil
	}
	actx, cancel := context.WithTimeout(ctx, a.cfg.ActionTimeout)
	defer cancel()

	outcome, err := a.actuator.Execute(actx, action)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("%w: actuator: %v", domain.ErrCollaborator, err)
	}
	return outcome, nil
}

// applyOutcome commits observed effects, or the declared ones when the actuator
// reported none.
func (a *Agent) applyOutcome(action domain.Action, outcome domain.Outcome, report *TickReport) {
	if outcome.Effects == nil {
		for _, e := range action.Effects {
			switch e.Kind {
			case domain.PredicateEquals:
				a.beliefs.Add(domain.Fact(e.Key, e.Value))
			case domain.PredicateAbsent:
				a.beliefs.Remove(e.Key)
			}
		}
		return
	}
	for _, u := range outcome.Effects {
		if err := a.beliefs.Apply(u); err != nil {
			report.failure(EventBeliefRejected, "", action.Name, err)
		}
	}
}

// replan swaps in a fresh plan from state. A proven dead end abandons the intention
// and its desire. A search cut short by a bound releases the intention but keeps the
// desire for a later tick; one cut short by ctx leaves the intention untouched.
func (a *Agent) replan(ctx context.Context, in *domain.Intention, state domain.WorldState, report *TickReport) {
	goal := in.Goal()
	plan, err := a.planner.PlanFor(ctx, goal.Name(), state, goal.Conditions())
	if err != nil && deferrable(err) {
		if ctx.Err() == nil {
			a.intentions.Pop()
		}
		a.logger.Debug("replanning deferred",
			zap.String("agent_id", a.id.String()),
			zap.String("goal", goal.Name()),
			zap.Error(err))
		report.failure(EventPlanningDeferred, goal.Name(), "", err)
		return
	}
	if err != nil {
		a.intentions.Pop()
		a.desires.Remove(in.DesireID())
		a.logger.Info("intention dropped",
			zap.String("agent_id", a.id.String()),
			zap.String("goal", goal.Name()),
			zap.Error(err))
		report.failure(EventIntentionDropped, goal.Name(), "", err)
		return
	}
	in.Replan(plan)
	report.event(TickEvent{Type: EventReplanned, Goal: goal.Name()})
}

// deferrable reports whether a planning error says nothing about the goal itself: the
// search hit a bound or its context ended. The desire is kept and planned again later.
func deferrable(err error) bool {
	return errors.Is(err, domain.ErrPlanningFailed) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (a *Agent) removeCompleted(report *TickReport) {
	removed := a.intentions.RemoveCompleted()
	if len(removed) == 0 {
		return
	}
	state := a.WorldState()
	for _, in := range removed {
		a.finish(in, state, report)
	}
}

// finish settles a popped intention. A satisfied goal is achieved and its achievement
// desire dropped. A plan that ran out without satisfying the goal leaves the desire in
// place to be planned again next tick.
func (a *Agent) finish(in *domain.Intention, state domain.WorldState, report *TickReport) {
	goal := in.Goal()
	if !goal.SatisfiedIn(state) {
		report.event(TickEvent{Type: EventIntentionFinished, Goal: goal.Name()})
		return
	}
	if goal.Kind() != domain.GoalMaintenance {
		a.desires.Remove(in.DesireID())
	}
	report.Achieved = append(report.Achieved, goal.Name())
	report.event(TickEvent{Type: EventGoalAchieved, Goal: goal.Name()})
	a.logger.Info("goal achieved",
		zap.String("agent_id", a.id.String()),
		zap.String("goal", goal.Name()))
}
