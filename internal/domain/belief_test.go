package domain

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBelief(t *testing.T) {
	b := NewBelief("temperature", "25")
	assert.Equal(t, "temperature", b.Key())
	assert.Equal(t, "25", b.Value())
	assert.Equal(t, 1.0, b.Certainty())
}

func TestBeliefCertaintyClamped(t *testing.T) {
	tests := []struct {
		name      string
		certainty float64
		want      float64
	}{
		{"above one", 1.7, 1.0},
		{"below zero", -0.3, 0.0},
		{"inside", 0.42, 0.42},
		{"upper bound", 1.0, 1.0},
		{"lower bound", 0.0, 0.0},
		{"nan", math.NaN(), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBeliefWithCertainty("k", "v", tt.certainty)
			if b.Certainty() != tt.want {
				t.Errorf("certainty = %v, want %v", b.Certainty(), tt.want)
			}

			b.SetCertainty(tt.certainty)
			if b.Certainty() != tt.want {
				t.Errorf("SetCertainty: certainty = %v, want %v", b.Certainty(), tt.want)
			}

			if got := NewBelief("k", "v").WithCertainty(tt.certainty).Certainty(); got != tt.want {
				t.Errorf("WithCertainty: certainty = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoredCertaintyIsClampedProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("stored certainty equals the clamped input", prop.ForAll(
		func(key string, c float64) bool {
			bb := NewBeliefBase()
			bb.Add(NewBeliefWithCertainty(key, "v", c))
			got, ok := bb.Get(key)
			if !ok {
				return false
			}
			want := math.Max(0, math.Min(1, c))
			return got.Certainty() == want && got.Certainty() >= 0 && got.Certainty() <= 1
		},
		gen.AlphaString(),
		gen.Float64Range(-10, 10),
	))

	properties.Property("goal and desire priorities stay in [0,1]", prop.ForAll(
		func(p float64) bool {
			g := Achievement("g").WithPriority(p)
			d := NewDesire(g, p)
			d.SetPriority(p * 3)
			return g.Priority() >= 0 && g.Priority() <= 1 && d.Priority() >= 0 && d.Priority() <= 1
		},
		gen.Float64Range(-5, 5),
	))

	properties.TestingRun(t)
}

func TestBeliefBaseOperations(t *testing.T) {
	bb := NewBeliefBase()
	require.True(t, bb.IsEmpty())

	bb.Add(Fact("x", "10"))
	assert.True(t, bb.Contains("x"))
	assert.Equal(t, 1, bb.Len())

	got, ok := bb.Get("x")
	require.True(t, ok)
	assert.Equal(t, "10", got.Value())

	// last write wins
	bb.Add(NewBeliefWithCertainty("x", "11", 0.4))
	got, _ = bb.Get("x")
	assert.Equal(t, "11", got.Value())
	assert.Equal(t, 0.4, got.Certainty())
	assert.Equal(t, 1, bb.Len())

	removed, ok := bb.Remove("x")
	require.True(t, ok)
	assert.Equal(t, "11", removed.Value())
	assert.False(t, bb.Contains("x"))
	_, ok = bb.Get("x")
	assert.False(t, ok)
	assert.True(t, bb.IsEmpty())

	_, ok = bb.Remove("missing")
	assert.False(t, ok)
}

func TestBeliefBaseQueryAndAll(t *testing.T) {
	bb := NewBeliefBase()
	bb.Add(NewBeliefWithCertainty("b", "2", 0.3))
	bb.Add(NewBeliefWithCertainty("a", "1", 0.9))
	bb.Add(NewBeliefWithCertainty("c", "3", 0.8))

	confident := bb.Query(func(b Belief) bool { return b.Certainty() >= 0.5 })
	require.Len(t, confident, 2)
	assert.Equal(t, "a", confident[0].Key())
	assert.Equal(t, "c", confident[1].Key())

	var keys []string
	for b := range bb.All() {
		// mutation while ranging over the snapshot does not change what is yielded
		bb.Remove("c")
		keys = append(keys, b.Key())
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, 2, bb.Len())

	bb.Clear()
	assert.True(t, bb.IsEmpty())
}

func TestBeliefBaseApply(t *testing.T) {
	bb := NewBeliefBase()

	require.NoError(t, bb.Apply(BeliefUpdate{Key: "door", Value: "open", Certainty: 0.7}))
	got, ok := bb.Get("door")
	require.True(t, ok)
	assert.Equal(t, 0.7, got.Certainty())

	err := bb.Apply(BeliefUpdate{Key: "door", Value: "closed", Certainty: 1.5})
	require.ErrorIs(t, err, ErrBeliefRevision)
	got, _ = bb.Get("door")
	assert.Equal(t, "open", got.Value(), "rejected update must not be merged")

	assert.ErrorIs(t, bb.Apply(BeliefUpdate{Value: "x", Certainty: 1}), ErrBeliefRevision)
	assert.ErrorIs(t, bb.Apply(BeliefUpdate{Key: "n", Certainty: math.NaN()}), ErrBeliefRevision)

	require.NoError(t, bb.Apply(BeliefUpdate{Key: "door", Retract: true}))
	assert.False(t, bb.Contains("door"))
}
