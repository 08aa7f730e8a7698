package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSnapshot_NilListsAreEmptyArrays(t *testing.T) {
	cols, err := encodeSnapshot(&domain.AgentSnapshot{Name: "empty"})
	require.NoError(t, err)

	for name, col := range map[string][]byte{
		"beliefs": cols.beliefs,
		"rules":   cols.rules,
		"actions": cols.actions,
		"desires": cols.desires,
	} {
		assert.JSONEq(t, `[]`, string(col), name)
	}
}

func TestSnapshotColumns_Decode(t *testing.T) {
	prio := 0.8
	want := &domain.AgentSnapshot{
		Beliefs: []domain.BeliefRecord{{Key: "at", Value: "A", Certainty: 0.9}},
		Rules:   []domain.RuleRecord{{Name: "r", Conditions: []string{"at=A"}, Conclusions: []string{"near=B"}, Certainty: 0.5}},
		Actions: []domain.ActionRecord{{Name: "move", Preconditions: []string{"at=A"}, Effects: []string{"at=B", "!near"}}},
		Desires: []domain.DesireRecord{{
			ID:       uuid.NewString(),
			Goal:     domain.GoalRecord{Name: "at_b", GoalType: "achievement", Conditions: []string{"at=B"}, Priority: &prio},
			Priority: 0.7,
			Utility:  `"near" in state ? 1.0 : 0.2`,
		}},
	}

	cols, err := encodeSnapshot(want)
	require.NoError(t, err)

	got := &domain.AgentSnapshot{}
	require.NoError(t, cols.decode(got))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotColumns_DecodeCorrupt(t *testing.T) {
	cols := snapshotColumns{beliefs: []byte(`[]`), rules: []byte(`{`), actions: []byte(`[]`), desires: []byte(`[]`)}
	err := cols.decode(&domain.AgentSnapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode rules")
}

// TestAgentStore_Postgres runs against a real database when TEST_DATABASE_URL is set.
func TestAgentStore_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	s := NewAgentStore(pool)
	require.NoError(t, s.Migrate(ctx))

	snap := &domain.AgentSnapshot{
		AgentID: uuid.New(),
		Name:    "pg-test",
		Tick:    3,
		Beliefs: []domain.BeliefRecord{{Key: "at", Value: "A", Certainty: 1}},
	}
	t.Cleanup(func() { _ = s.Delete(context.Background(), snap.AgentID) })

	require.NoError(t, s.Create(ctx, snap))
	assert.False(t, snap.CreatedAt.IsZero())
	assert.True(t, errors.Is(s.Create(ctx, snap), ErrConflict))

	snap.Tick = 4
	require.NoError(t, s.Save(ctx, snap))

	got, err := s.Load(ctx, snap.AgentID)
	require.NoError(t, err)
	if diff := cmp.Diff(snap, got, cmpopts.EquateEmpty(),
		cmpopts.IgnoreFields(domain.AgentSnapshot{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("loaded snapshot mismatch (-want +got):\n%s", diff)
	}

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, snap.AgentID)

	require.NoError(t, s.Delete(ctx, snap.AgentID))
	_, err = s.Load(ctx, snap.AgentID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, snap.AgentID), ErrNotFound)
}
