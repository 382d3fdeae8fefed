package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store loads and saves selection slices by session id.
type Store interface {
	Load(ctx context.Context, sessionID string) (State, error)
	Save(ctx context.Context, sessionID string, state State) error
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SelectionKey(sessionID string) string
}

// RedisStore keeps selection state as JSON with a sliding TTL.
type RedisStore struct {
	store redisStore
	ttl   time.Duration
}

// NewRedisStore binds the store to the redis wrapper.
func NewRedisStore(store redisStore, ttl time.Duration) (*RedisStore, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &RedisStore{store: store, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (State, error) {
	raw, err := s.store.Get(ctx, s.store.SelectionKey(sessionID))
	if errors.Is(err, redis.Nil) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load selection: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, fmt.Errorf("decode selection: %w", err)
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	if err := s.store.Set(ctx, s.store.SelectionKey(sessionID), payload, s.ttl); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

// MemoryStore keeps selection state in-process.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: map[string]State{}}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[sessionID].clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[sessionID] = state.clone()
	return nil
}
