package domain

import (
	"fmt"
	"slices"
)

// Rule derives its conclusions whenever all of its conditions hold. Conclusions are
// always key=value assertions.
type Rule struct {
	name        string
	conditions  []Predicate
	conclusions []Predicate
	certainty   float64
}

func NewRule(name string) Rule {
	return Rule{name: name, certainty: 1.0}
}

func (r Rule) WithCondition(p Predicate) Rule {
	r.conditions = append(slices.Clip(r.conditions), p)
	return r
}

func (r Rule) WithConclusion(p Predicate) Rule {
	r.conclusions = append(slices.Clip(r.conclusions), p)
	return r
}

// WithCertainty sets the rule strength that scales derived certainties.
func (r Rule) WithCertainty(c float64) Rule {
	r.certainty = ClampUnit(c)
	return r
}

func (r Rule) Name() string { return r.name }

func (r Rule) Conditions() []Predicate { return slices.Clone(r.conditions) }

func (r Rule) Conclusions() []Predicate { return slices.Clone(r.conclusions) }

func (r Rule) Certainty() float64 { return r.certainty }

// Validate rejects rules the fixpoint iteration cannot handle: non-assertion
// conclusions, two values for one key, and conclusions that falsify the rule's own
// conditions.
func (r Rule) Validate() error {
	if r.name == "" {
		return fmt.Errorf("%w: rule name is required", ErrReasoning)
	}
	if len(r.conclusions) == 0 {
		return fmt.Errorf("%w: rule %q has no conclusions", ErrReasoning, r.name)
	}
	concluded := make(map[string]string, len(r.conclusions))
	for _, c := range r.conclusions {
		if c.Kind != PredicateEquals {
			return fmt.Errorf("%w: rule %q conclusion %q must be key=value", ErrReasoning, r.name, c)
		}
		if v, ok := concluded[c.Key]; ok && v != c.Value {
			return fmt.Errorf("%w: rule %q concludes %q twice with different values", ErrReasoning, r.name, c.Key)
		}
		concluded[c.Key] = c.Value
	}
	for _, cond := range r.conditions {
		v, ok := concluded[cond.Key]
		if !ok {
			continue
		}
		if cond.Kind == PredicateAbsent || (cond.Kind == PredicateEquals && cond.Value != v) {
			return fmt.Errorf("%w: rule %q contradicts its own condition %q", ErrReasoning, r.name, cond)
		}
	}
	return nil
}

func (r Rule) Record() RuleRecord {
	return RuleRecord{
		Name:        r.name,
		Conditions:  PredicateStrings(r.conditions),
		Conclusions: PredicateStrings(r.conclusions),
		Certainty:   r.certainty,
	}
}

// RuleFromRecord parses and validates a persisted rule. A zero certainty in the record
// means the default of 1.0.
func RuleFromRecord(rec RuleRecord) (Rule, error) {
	conds, err := ParsePredicates(rec.Conditions)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q conditions: %w", rec.Name, err)
	}
	concl, err := ParsePredicates(rec.Conclusions)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q conclusions: %w", rec.Name, err)
	}
	r := NewRule(rec.Name)
	r.conditions = conds
	r.conclusions = concl
	if rec.Certainty != 0 {
		r = r.WithCertainty(rec.Certainty)
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}
