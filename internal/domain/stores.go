package domain

import (
	"context"

	"github.com/google/uuid"
)

// Sensor supplies belief updates consumed at the start of each tick.
type Sensor interface {
	Sense(ctx context.Context) ([]BeliefUpdate, error)
}

// Outcome is what an actuator reports after executing an action.
type Outcome struct {
	Success bool
	// Effects lists the observed belief changes. When nil on success, the action's
	// declared effects are assumed to have happened.
	Effects []BeliefUpdate
	Reason  string
}

// Actuator executes actions in the real or simulated environment. Execute blocks
// until the outcome is known or ctx expires.
type Actuator interface {
	Execute(ctx context.Context, action Action) (Outcome, error)
}

// SnapshotStore persists agent snapshots. Create fails when a snapshot for the agent
// already exists; Save overwrites.
type SnapshotStore interface {
	Create(ctx context.Context, s *AgentSnapshot) error
	Save(ctx context.Context, s *AgentSnapshot) error
	Load(ctx context.Context, agentID uuid.UUID) (*AgentSnapshot, error)
	Delete(ctx context.Context, agentID uuid.UUID) error
	List(ctx context.Context) ([]uuid.UUID, error)
}
