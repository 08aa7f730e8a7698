package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{
			name: "valid",
			rule: NewRule("low_battery").
				WithCondition(Equals("battery", "low")).
				WithConclusion(Equals("needs_charge", "true")),
		},
		{
			name:    "no name",
			rule:    NewRule("").WithConclusion(Equals("a", "1")),
			wantErr: true,
		},
		{
			name:    "no conclusions",
			rule:    NewRule("r").WithCondition(Present("a")),
			wantErr: true,
		},
		{
			name:    "absence conclusion",
			rule:    NewRule("r").WithConclusion(Absent("a")),
			wantErr: true,
		},
		{
			name:    "two values for one key",
			rule:    NewRule("r").WithConclusion(Equals("a", "1")).WithConclusion(Equals("a", "2")),
			wantErr: true,
		},
		{
			name:    "contradicts own absence condition",
			rule:    NewRule("r").WithCondition(Absent("a")).WithConclusion(Equals("a", "1")),
			wantErr: true,
		},
		{
			name:    "contradicts own equality condition",
			rule:    NewRule("flip").WithCondition(Equals("light", "on")).WithConclusion(Equals("light", "off")),
			wantErr: true,
		},
		{
			name: "restates own condition",
			rule: NewRule("r").WithCondition(Equals("a", "1")).WithConclusion(Equals("a", "1")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrReasoning)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRuleFromRecord(t *testing.T) {
	r, err := RuleFromRecord(RuleRecord{
		Name:        "wet",
		Conditions:  []string{"weather=rain", "!umbrella"},
		Conclusions: []string{"wet=true"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Certainty())
	assert.Equal(t, []Predicate{Equals("weather", "rain"), Absent("umbrella")}, r.Conditions())

	r, err = RuleFromRecord(RuleRecord{Name: "weak", Conclusions: []string{"x=1"}, Certainty: 0.6})
	require.NoError(t, err)
	assert.Equal(t, 0.6, r.Certainty())

	_, err = RuleFromRecord(RuleRecord{Name: "bad", Conclusions: []string{"!x"}})
	assert.ErrorIs(t, err, ErrReasoning)
}

func TestGoalRecord(t *testing.T) {
	g := Maintenance("charged").WithCondition(Equals("battery", "high")).WithPriority(0.9)
	back, err := GoalFromRecord(g.Record())
	require.NoError(t, err)
	assert.Equal(t, g, back)

	defaulted, err := GoalFromRecord(GoalRecord{Name: "x", Conditions: []string{"a=1"}})
	require.NoError(t, err)
	assert.Equal(t, GoalAchievement, defaulted.Kind())
	assert.Equal(t, DefaultGoalPriority, defaulted.Priority())

	_, err = GoalFromRecord(GoalRecord{Name: "x", GoalType: "wish"})
	assert.Error(t, err)
}

func TestGoalSatisfaction(t *testing.T) {
	bb := NewBeliefBase()
	bb.Add(Fact("at", "B"))
	g := Achievement("at_b").WithCondition(Equals("at", "B")).WithCondition(Absent("blocked"))

	assert.True(t, g.SatisfiedBy(bb))
	assert.True(t, g.SatisfiedIn(WorldStateFromBeliefs(bb, 0)))

	bb.Add(Fact("blocked", "yes"))
	assert.False(t, g.SatisfiedBy(bb))

	assert.True(t, Achievement("trivial").SatisfiedBy(bb), "no conditions is always satisfied")
}

func TestDesireEffectivePriority(t *testing.T) {
	d := NewDesire(Achievement("g"), 0.4)
	s := NewWorldState().Set("urgency", "high")
	assert.Equal(t, 0.4, d.EffectivePriority(s))

	d.WithScorer(ScorerFunc(func(state WorldState) float64 {
		if state.Matches("urgency", "high") {
			return 3
		}
		return 0.1
	}))
	assert.Equal(t, 1.0, d.EffectivePriority(s))
	assert.Equal(t, 0.1, d.EffectivePriority(NewWorldState()))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "planning_failed", ErrorKind(ErrPlanningFailed))
	assert.Equal(t, "goal_not_achievable", ErrorKind(ErrGoalNotAchievable))
	assert.Equal(t, "reasoning_error", ErrorKind(ErrReasoning))
	assert.Equal(t, "belief_revision_failed", ErrorKind(BeliefUpdate{}.Validate()))
	assert.Equal(t, "other", ErrorKind(assert.AnError))
}
