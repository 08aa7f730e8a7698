package service

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const DefaultInferenceMaxIterations = 256

// InferenceResult lists the beliefs derived by one Infer call. They are not committed
// to the input belief base until Commit is called.
type InferenceResult struct {
	Derived    []domain.Belief `json:"-"`
	Iterations int             `json:"iterations"`
	// Firings counts, per rule name, the iterations in which one of the rule's
	// conclusions was applied.
	Firings map[string]int `json:"firings"`
}

// Commit upserts every derived belief into bb.
func (r *InferenceResult) Commit(bb *domain.BeliefBase) {
	for _, b := range r.Derived {
		bb.Add(b)
	}
}

// Records converts the derived beliefs for reports.
func (r *InferenceResult) Records() []domain.BeliefRecord {
	out := make([]domain.BeliefRecord, len(r.Derived))
	for i, b := range r.Derived {
		out[i] = b.Record()
	}
	return out
}

// InferenceEngine forward-chains rules to a fixpoint. Rules are evaluated in
// insertion order; when two rules conclude different values for one key in the same
// iteration, the later rule wins.
type InferenceEngine struct {
	rules         []domain.Rule
	maxIterations int
	tracer        trace.Tracer
	logger        *zap.Logger
}

func NewInferenceEngine(maxIterations int, logger *zap.Logger) *InferenceEngine {
	if maxIterations <= 0 {
		maxIterations = DefaultInferenceMaxIterations
	}
	return &InferenceEngine{
		maxIterations: maxIterations,
		tracer:        noop.NewTracerProvider().Tracer("bdicore/inference"),
		logger:        logger,
	}
}

func (e *InferenceEngine) SetTracer(t trace.Tracer) {
	e.tracer = t
}

// AddRule validates and appends r.
func (e *InferenceEngine) AddRule(r domain.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if slices.ContainsFunc(e.rules, func(existing domain.Rule) bool { return existing.Name() == r.Name() }) {
		return fmt.Errorf("%w: duplicate rule %q", domain.ErrReasoning, r.Name())
	}
	e.rules = append(e.rules, r)
	return nil
}

func (e *InferenceEngine) Rules() []domain.Rule {
	return slices.Clone(e.rules)
}

type proposal struct {
	rule      int
	value     string
	certainty float64
}

// Infer runs the rules over a copy of bb until nothing changes. Each iteration
// evaluates every rule against the beliefs as they stood when the iteration began, so
// the outcome depends only on the input and not on the order proposals are applied.
// A conclusion only replaces a belief held with lower certainty, whatever its value.
// Exceeding the iteration cap yields ErrReasoning.
func (e *InferenceEngine) Infer(ctx context.Context, bb *domain.BeliefBase) (*InferenceResult, error) {
	ctx, span := e.tracer.Start(ctx, "bdi.infer")
	defer span.End()

	acc := bb.Clone()
	result := &InferenceResult{Firings: make(map[string]int)}
	var changedOrder []string
	changed := make(map[string]bool)

	for {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return nil, err
		}
		if result.Iterations >= e.maxIterations {
			err := fmt.Errorf("%w: no fixpoint after %d iterations", domain.ErrReasoning, e.maxIterations)
			span.RecordError(err)
			return nil, err
		}
		result.Iterations++

		proposals, keyOrder := e.propose(acc)

		fired := make(map[int]bool)
		for _, key := range keyOrder {
			winner, certainty := resolve(proposals[key])
			if existing, ok := acc.Get(key); ok && existing.Certainty() >= certainty {
				continue
			}
			acc.Add(domain.NewBeliefWithCertainty(key, winner.value, certainty))
			fired[winner.rule] = true
			if !changed[key] {
				changed[key] = true
				changedOrder = append(changedOrder, key)
			}
		}
		if len(fired) == 0 {
			break
		}
		for i := range fired {
			result.Firings[e.rules[i].Name()]++
		}
	}

	for _, key := range changedOrder {
		b, _ := acc.Get(key)
		if prev, ok := bb.Get(key); ok && prev.Value() == b.Value() && prev.Certainty() == b.Certainty() {
			continue
		}
		result.Derived = append(result.Derived, b)
	}

	span.SetAttributes(
		attribute.Int("bdi.rules", len(e.rules)),
		attribute.Int("bdi.iterations", result.Iterations),
		attribute.Int("bdi.derived", len(result.Derived)),
	)
	if e.logger != nil && len(result.Derived) > 0 {
		e.logger.Debug("inference reached fixpoint",
			zap.Int("iterations", result.Iterations),
			zap.Int("derived", len(result.Derived)))
	}
	return result, nil
}

// propose evaluates every rule against acc and groups the conclusions by key, keeping
// keys in first-proposed order.
func (e *InferenceEngine) propose(acc *domain.BeliefBase) (map[string][]proposal, []string) {
	proposals := make(map[string][]proposal)
	var keyOrder []string

	for i, r := range e.rules {
		certainty, ok := matchCertainty(acc, r)
		if !ok {
			continue
		}
		certainty *= r.Certainty()

		for _, c := range r.Conclusions() {
			if _, seen := proposals[c.Key]; !seen {
				keyOrder = append(keyOrder, c.Key)
			}
			proposals[c.Key] = append(proposals[c.Key], proposal{rule: i, value: c.Value, certainty: certainty})
		}
	}
	return proposals, keyOrder
}

// matchCertainty reports whether every condition of r holds in acc and the weakest
// certainty among the beliefs matched by equality conditions.
func matchCertainty(acc *domain.BeliefBase, r domain.Rule) (float64, bool) {
	certainty := 1.0
	for _, cond := range r.Conditions() {
		if !cond.Eval(acc.Lookup) {
			return 0, false
		}
		if cond.Kind == domain.PredicateEquals {
			b, _ := acc.Get(cond.Key)
			certainty = math.Min(certainty, b.Certainty())
		}
	}
	return certainty, true
}

// resolve picks the proposal of the latest rule and the strongest certainty proposed
// for its value.
func resolve(ps []proposal) (proposal, float64) {
	winner := ps[0]
	for _, p := range ps[1:] {
		if p.rule > winner.rule {
			winner = p
		}
	}
	certainty := 0.0
	for _, p := range ps {
		if p.value == winner.value {
			certainty = math.Max(certainty, p.certainty)
		}
	}
	return winner, certainty
}
