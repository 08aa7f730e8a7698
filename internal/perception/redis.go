package perception

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultPerceptPrefix = "bdi:percepts"
	DefaultRedisBatch    = 256
)

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		url = "redis://localhost:6379"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// PerceptKey is the list holding percepts for one agent.
func PerceptKey(prefix string, agentID uuid.UUID) string {
	if prefix == "" {
		prefix = DefaultPerceptPrefix
	}
	return prefix + ":" + agentID.String()
}

// RedisSensor pops JSON-encoded belief updates from a per-agent Redis list. Producers
// RPUSH, so updates are consumed in the order they were published.
type RedisSensor struct {
	client *redis.Client
	key    string
	batch  int
	logger *zap.Logger
}

func NewRedisSensor(client *redis.Client, prefix string, agentID uuid.UUID, logger *zap.Logger) *RedisSensor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSensor{
		client: client,
		key:    PerceptKey(prefix, agentID),
		batch:  DefaultRedisBatch,
		logger: logger,
	}
}

// SetBatch bounds how many updates one Sense call consumes.
func (s *RedisSensor) SetBatch(n int) {
	if n > 0 {
		s.batch = n
	}
}

func (s *RedisSensor) Key() string { return s.key }

// Sense pops up to the batch size. Entries that are not valid JSON are logged and
// discarded; semantic validation is left to the belief base.
func (s *RedisSensor) Sense(ctx context.Context) ([]domain.BeliefUpdate, error) {
	var updates []domain.BeliefUpdate
	for range s.batch {
		raw, err := s.client.LPop(ctx, s.key).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return updates, fmt.Errorf("failed to pop percepts from %s: %w", s.key, err)
		}

		var u domain.BeliefUpdate
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.logger.Warn("discarding malformed percept",
				zap.String("key", s.key),
				zap.Error(err))
			continue
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// Publish appends updates to the agent's percept list.
func Publish(ctx context.Context, client *redis.Client, prefix string, agentID uuid.UUID, updates ...domain.BeliefUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	values := make([]any, len(updates))
	for i, u := range updates {
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("failed to marshal percept: %w", err)
		}
		values[i] = data
	}
	key := PerceptKey(prefix, agentID)
	if err := client.RPush(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("failed to push percepts to %s: %w", key, err)
	}
	return nil
}
