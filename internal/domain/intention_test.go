package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStepPlan() Plan {
	return NewPlan("deliver",
		NewAction("pick").Produces(Equals("holding", "box")),
		NewAction("drop").Requires(Equals("holding", "box")).Produces(Absent("holding"), Equals("delivered", "yes")),
	)
}

func TestIntentionCursor(t *testing.T) {
	goal := Achievement("deliver").WithCondition(Equals("delivered", "yes")).WithPriority(0.8)
	in := NewIntention(goal, twoStepPlan())

	assert.Equal(t, 0.8, in.Priority())
	assert.False(t, in.IsCompleted())

	a, ok := in.CurrentAction()
	require.True(t, ok)
	assert.Equal(t, "pick", a.Name)

	in.Next()
	a, _ = in.CurrentAction()
	assert.Equal(t, "drop", a.Name)

	in.Next()
	assert.True(t, in.IsCompleted())
	_, ok = in.CurrentAction()
	assert.False(t, ok)

	in.Next()
	assert.Equal(t, 2, in.Cursor(), "cursor never moves past the plan length")

	in.Reset()
	assert.Equal(t, 0, in.Cursor())

	in.Replan(NewPlan("deliver", NewAction("drop")))
	assert.Equal(t, 1, in.Replans())
	assert.Equal(t, 1, in.Plan().Len())
}

func TestEmptyPlanIntentionIsCompleted(t *testing.T) {
	in := NewIntention(Achievement("noop"), NewPlan("noop"))
	assert.True(t, in.IsCompleted())
}

func TestIntentionStack(t *testing.T) {
	s := NewIntentionStack()
	require.True(t, s.IsEmpty())
	_, ok := s.Pop()
	assert.False(t, ok)
	_, ok = s.Current()
	assert.False(t, ok)

	desireID := uuid.New()
	bottom := NewIntention(Achievement("bottom"), twoStepPlan()).ForDesire(desireID, 0.3)
	top := NewIntention(Achievement("top"), twoStepPlan())
	s.Push(bottom)
	s.Push(top)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Same(t, top, cur)
	assert.True(t, s.Backs(desireID))
	assert.False(t, s.Backs(uuid.New()))

	cur.Next()
	top2, _ := s.Current()
	assert.Equal(t, 1, top2.Cursor(), "Current returns the live entry")

	popped, ok := s.Pop()
	require.True(t, ok)
	assert.Same(t, top, popped)
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.True(t, s.IsEmpty())
}

func TestIntentionStackRemoveCompleted(t *testing.T) {
	s := NewIntentionStack()
	done1 := NewIntention(Achievement("a"), NewPlan("a"))
	open := NewIntention(Achievement("b"), twoStepPlan())
	done2 := NewIntention(Achievement("c"), NewPlan("c", NewAction("x")))
	done2.Next()

	s.Push(done1)
	s.Push(open)
	s.Push(done2)

	removed := s.RemoveCompleted()
	require.Len(t, removed, 2)
	assert.Same(t, done1, removed[0])
	assert.Same(t, done2, removed[1])

	for _, in := range s.All() {
		assert.False(t, in.IsCompleted())
	}
	assert.Equal(t, 1, s.Len())
}

func TestPlanSimulate(t *testing.T) {
	p := twoStepPlan()
	end := p.Simulate(NewWorldState())
	assert.True(t, end.Matches("delivered", "yes"))
	assert.False(t, end.Holds(Present("holding")))
	assert.Equal(t, "deliver[pick -> drop]", p.String())

	extended := p.AddAction(NewAction("rest"))
	assert.Equal(t, 3, extended.Len())
	assert.Equal(t, 2, p.Len(), "AddAction returns a new plan")
}
