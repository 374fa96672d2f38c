package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys for the shared quota state.
const (
	RedisKeyRemaining      = "flowdesk:rate_limit:remaining"
	RedisKeyLimit          = "flowdesk:rate_limit:limit"
	RedisKeyResetTimestamp = "flowdesk:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "flowdesk:rate_limit:last_update"
)

// StateStore persists State. Load returns nil, nil when nothing is stored.
type StateStore interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
}

type memoryStore struct {
	mu    sync.RWMutex
	state *State
}

// NewMemoryStore keeps the state in process memory.
func NewMemoryStore() StateStore {
	return &memoryStore{}
}

func (m *memoryStore) Load(_ context.Context) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, nil
	}
	s := *m.state
	return &s, nil
}

func (m *memoryStore) Save(_ context.Context, s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.state = &copied
	return nil
}

type redisStore struct {
	redis *redis.Client
}

// NewRedisStore shares the state between every console on the same Redis.
func NewRedisStore(redisClient *redis.Client) StateStore {
	return &redisStore{redis: redisClient}
}

func (r *redisStore) Load(ctx context.Context) (*State, error) {
	remaining, err := r.redis.Get(ctx, RedisKeyRemaining).Int()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get remaining: %w", err)
	}

	limit, err := r.redis.Get(ctx, RedisKeyLimit).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get limit: %w", err)
	}

	resetTimestamp, err := r.redis.Get(ctx, RedisKeyResetTimestamp).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	var lastUpdate time.Time
	lastUpdateStr, err := r.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &State{
		Remaining:  remaining,
		Limit:      limit,
		ResetAt:    time.Unix(resetTimestamp, 0),
		LastUpdate: lastUpdate,
	}
	state.UpdateHealth()
	return state, nil
}

func (r *redisStore) Save(ctx context.Context, s *State) error {
	lastUpdateJSON, err := json.Marshal(s.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	// Keys outlive the window slightly so a stale block never sticks.
	ttl := time.Until(s.ResetAt) + time.Minute
	if ttl < time.Minute {
		ttl = time.Minute
	}

	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRemaining, s.Remaining, ttl)
	pipe.Set(ctx, RedisKeyLimit, s.Limit, ttl)
	pipe.Set(ctx, RedisKeyResetTimestamp, s.ResetAt.Unix(), ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}
