package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS agent_snapshots (
	agent_id   UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	tick       BIGINT NOT NULL DEFAULT 0,
	beliefs    JSONB NOT NULL DEFAULT '[]',
	rules      JSONB NOT NULL DEFAULT '[]',
	actions    JSONB NOT NULL DEFAULT '[]',
	desires    JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// AgentStore persists agent snapshots in Postgres, one row per agent.
type AgentStore struct {
	db *pgxpool.Pool
}

func NewAgentStore(db *pgxpool.Pool) *AgentStore {
	return &AgentStore{db: db}
}

// Migrate creates the snapshot table if it does not exist.
func (s *AgentStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate agent_snapshots: %w", err)
	}
	return nil
}

// Create inserts a snapshot for a new agent. A second snapshot for the same agent is
// rejected with ErrConflict; use Save to overwrite.
func (s *AgentStore) Create(ctx context.Context, snap *domain.AgentSnapshot) error {
	cols, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO agent_snapshots (agent_id, name, tick, beliefs, rules, actions, desires)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		snap.AgentID, snap.Name, snap.Tick, cols.beliefs, cols.rules, cols.actions, cols.desires,
	).Scan(&snap.CreatedAt, &snap.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Save upserts the snapshot.
func (s *AgentStore) Save(ctx context.Context, snap *domain.AgentSnapshot) error {
	cols, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO agent_snapshots (agent_id, name, tick, beliefs, rules, actions, desires)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (agent_id) DO UPDATE SET
			name = EXCLUDED.name,
			tick = EXCLUDED.tick,
			beliefs = EXCLUDED.beliefs,
			rules = EXCLUDED.rules,
			actions = EXCLUDED.actions,
			desires = EXCLUDED.desires,
			updated_at = now()
		 RETURNING created_at, updated_at`,
		snap.AgentID, snap.Name, snap.Tick, cols.beliefs, cols.rules, cols.actions, cols.desires,
	).Scan(&snap.CreatedAt, &snap.UpdatedAt)
}

func (s *AgentStore) Load(ctx context.Context, agentID uuid.UUID) (*domain.AgentSnapshot, error) {
	snap := &domain.AgentSnapshot{}
	var cols snapshotColumns
	err := s.db.QueryRow(ctx,
		`SELECT agent_id, name, tick, beliefs, rules, actions, desires, created_at, updated_at
		 FROM agent_snapshots WHERE agent_id = $1`,
		agentID,
	).Scan(&snap.AgentID, &snap.Name, &snap.Tick, &cols.beliefs, &cols.rules, &cols.actions, &cols.desires, &snap.CreatedAt, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := cols.decode(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *AgentStore) Delete(ctx context.Context, agentID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM agent_snapshots WHERE agent_id = $1`, agentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every stored agent id, oldest first.
func (s *AgentStore) List(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT agent_id FROM agent_snapshots ORDER BY created_at, agent_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type snapshotColumns struct {
	beliefs []byte
	rules   []byte
	actions []byte
	desires []byte
}

func encodeSnapshot(snap *domain.AgentSnapshot) (snapshotColumns, error) {
	var (
		cols snapshotColumns
		err  error
	)
	if cols.beliefs, err = marshalList(snap.Beliefs); err != nil {
		return cols, fmt.Errorf("encode beliefs: %w", err)
	}
	if cols.rules, err = marshalList(snap.Rules); err != nil {
		return cols, fmt.Errorf("encode rules: %w", err)
	}
	if cols.actions, err = marshalList(snap.Actions); err != nil {
		return cols, fmt.Errorf("encode actions: %w", err)
	}
	if cols.desires, err = marshalList(snap.Desires); err != nil {
		return cols, fmt.Errorf("encode desires: %w", err)
	}
	return cols, nil
}

func (c snapshotColumns) decode(snap *domain.AgentSnapshot) error {
	if err := json.Unmarshal(c.beliefs, &snap.Beliefs); err != nil {
		return fmt.Errorf("decode beliefs: %w", err)
	}
	if err := json.Unmarshal(c.rules, &snap.Rules); err != nil {
		return fmt.Errorf("decode rules: %w", err)
	}
	if err := json.Unmarshal(c.actions, &snap.Actions); err != nil {
		return fmt.Errorf("decode actions: %w", err)
	}
	if err := json.Unmarshal(c.desires, &snap.Desires); err != nil {
		return fmt.Errorf("decode desires: %w", err)
	}
	return nil
}

// marshalList encodes a nil slice as an empty JSON array.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
