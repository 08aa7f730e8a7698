package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/Harshitk-cp/bdicore/internal/perception"
	"github.com/Harshitk-cp/bdicore/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrAgentConflict = errors.New("agent with this id already exists")
	ErrNoStore       = errors.New("snapshot store not configured")
)

// SensorFactory builds extra sensors for a newly hosted agent.
type SensorFactory func(agentID uuid.UUID) []domain.Sensor

// AgentService hosts agents for the API and the runner. Every agent gets a percept
// buffer fed by Perceive; the store is optional.
type AgentService struct {
	registry *Registry
	store    domain.SnapshotStore
	sensors  SensorFactory
	options  []AgentOption
	logger   *zap.Logger

	mu      sync.Mutex
	buffers map[uuid.UUID]*perception.Buffer
}

func NewAgentService(reg *Registry, s domain.SnapshotStore, logger *zap.Logger, opts ...AgentOption) *AgentService {
	return &AgentService{
		registry: reg,
		store:    s,
		options:  opts,
		logger:   logger,
		buffers:  make(map[uuid.UUID]*perception.Buffer),
	}
}

// SetSensorFactory registers a factory consulted for each agent hosted afterwards.
func (s *AgentService) SetSensorFactory(f SensorFactory) {
	s.sensors = f
}

func (s *AgentService) Registry() *Registry { return s.registry }

// Create hosts a new agent built from snap and persists it when a store is configured.
// An id already present in the store is a conflict even when that agent is not hosted.
func (s *AgentService) Create(ctx context.Context, snap *domain.AgentSnapshot) (AgentStatus, error) {
	if snap.AgentID == uuid.Nil {
		snap.AgentID = uuid.New()
	}
	a, err := s.host(snap)
	if err != nil {
		return AgentStatus{}, err
	}

	if s.store != nil {
		err := s.store.Create(ctx, a.Snapshot())
		if errors.Is(err, store.ErrConflict) {
			s.unhost(a.ID())
			return AgentStatus{}, ErrAgentConflict
		}
		if err != nil {
			s.logger.Warn("failed to persist new agent",
				zap.String("agent_id", a.ID().String()),
				zap.Error(err))
		}
	}

	s.logger.Info("agent created",
		zap.String("agent_id", a.ID().String()),
		zap.String("name", a.Name()))
	return a.Status(), nil
}

// Load hosts a stored agent.
func (s *AgentService) Load(ctx context.Context, id uuid.UUID) (AgentStatus, error) {
	if s.store == nil {
		return AgentStatus{}, ErrNoStore
	}
	snap, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AgentStatus{}, ErrAgentNotFound
		}
		return AgentStatus{}, err
	}
	a, err := s.host(snap)
	if err != nil {
		return AgentStatus{}, err
	}
	return a.Status(), nil
}

// LoadAll hosts every stored agent not already hosted and returns how many were loaded.
// An agent that fails to restore is logged and skipped.
func (s *AgentService) LoadAll(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, ErrNoStore
	}
	ids, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, id := range ids {
		if _, err := s.Load(ctx, id); err != nil {
			if !errors.Is(err, ErrAgentConflict) {
				s.logger.Error("failed to restore agent",
					zap.String("agent_id", id.String()),
					zap.Error(err))
			}
			continue
		}
		loaded++
	}
	return loaded, nil
}

func (s *AgentService) host(snap *domain.AgentSnapshot) (*Agent, error) {
	buf := perception.NewBuffer(perception.DefaultBufferCapacity)
	sensors := []domain.Sensor{buf}
	if s.sensors != nil && snap.AgentID != uuid.Nil {
		sensors = append(sensors, s.sensors(snap.AgentID)...)
	}

	opts := append([]AgentOption{WithLogger(s.logger)}, s.options...)
	opts = append(opts, WithSensors(sensors...))
	a, err := RestoreAgent(snap, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Register(a); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.buffers[a.ID()] = buf
	s.mu.Unlock()
	return a, nil
}

func (s *AgentService) Get(id uuid.UUID) (AgentStatus, error) {
	var st AgentStatus
	err := s.registry.With(id, func(a *Agent) error {
		st = a.Status()
		return nil
	})
	return st, err
}

// List reports every hosted agent in registration order.
func (s *AgentService) List() []AgentStatus {
	var out []AgentStatus
	for _, id := range s.registry.IDs() {
		if st, err := s.Get(id); err == nil {
			out = append(out, st)
		}
	}
	return out
}

func (s *AgentService) Beliefs(id uuid.UUID) ([]domain.BeliefRecord, error) {
	var out []domain.BeliefRecord
	err := s.registry.With(id, func(a *Agent) error {
		out = a.Beliefs().Records()
		return nil
	})
	return out, err
}

// Perceive queues updates for the agent's next tick.
func (s *AgentService) Perceive(id uuid.UUID, updates []domain.BeliefUpdate) error {
	s.mu.Lock()
	buf, ok := s.buffers[id]
	s.mu.Unlock()
	if !ok {
		return ErrAgentNotFound
	}
	return buf.Push(updates...)
}

// AddDesire adds a desire built from rec and returns its stored form.
func (s *AgentService) AddDesire(id uuid.UUID, rec domain.DesireRecord) (domain.DesireRecord, error) {
	var out domain.DesireRecord
	err := s.registry.With(id, func(a *Agent) error {
		rec.ID = ""
		d, err := a.DesireFromRecord(rec)
		if err != nil {
			return err
		}
		a.Desires().Add(d)
		out = d.Record()
		return nil
	})
	return out, err
}

func (s *AgentService) Tick(ctx context.Context, id uuid.UUID) (*TickReport, error) {
	return s.registry.Tick(ctx, id)
}

// Plan computes a plan for goal from the agent's current world state without
// adopting it.
func (s *AgentService) Plan(ctx context.Context, id uuid.UUID, rec domain.GoalRecord) (domain.Plan, error) {
	goal, err := domain.GoalFromRecord(rec)
	if err != nil {
		return domain.Plan{}, err
	}
	var plan domain.Plan
	err = s.registry.With(id, func(a *Agent) error {
		var err error
		plan, err = a.PlanGoal(ctx, goal)
		return err
	})
	return plan, err
}

// Save persists the agent's current snapshot.
func (s *AgentService) Save(ctx context.Context, id uuid.UUID) (*domain.AgentSnapshot, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	var snap *domain.AgentSnapshot
	if err := s.registry.With(id, func(a *Agent) error {
		snap = a.Snapshot()
		return nil
	}); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("%w: save snapshot: %v", domain.ErrCollaborator, err)
	}
	return snap, nil
}

// SaveAll persists every hosted agent, logging failures.
func (s *AgentService) SaveAll(ctx context.Context) int {
	saved := 0
	for _, id := range s.registry.IDs() {
		if _, err := s.Save(ctx, id); err != nil {
			s.logger.Error("failed to save agent",
				zap.String("agent_id", id.String()),
				zap.Error(err))
			continue
		}
		saved++
	}
	return saved
}

// Delete stops hosting the agent and removes its stored snapshot.
func (s *AgentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.unhost(id); err != nil {
		return err
	}

	if s.store != nil {
		if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (s *AgentService) unhost(id uuid.UUID) error {
	if err := s.registry.Remove(id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.buffers, id)
	s.mu.Unlock()
	return nil
}
