// Package sequence issues monotonically increasing request numbers per resource key
// so that a response can be discarded when a newer request for the same key exists.
package sequence

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sequencer issues and inspects per-key request sequence numbers.
type Sequencer interface {
	Next(ctx context.Context, key string) (uint64, error)
	Latest(ctx context.Context, key string) (uint64, error)
}

// IsCurrent reports whether seq is still the newest number issued for key.
func IsCurrent(ctx context.Context, s Sequencer, key string, seq uint64) (bool, error) {
	latest, err := s.Latest(ctx, key)
	if err != nil {
		return false, err
	}
	return latest == seq, nil
}

// Memory keeps counters in-process.
type Memory struct {
	mu       sync.Mutex
	counters map[string]uint64
}

func NewMemory() *Memory {
	return &Memory{counters: map[string]uint64{}}
}

func (m *Memory) Next(_ context.Context, key string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}

func (m *Memory) Latest(_ context.Context, key string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key], nil
}

// RedisStore is the subset of the redis wrapper the shared sequencer needs.
type RedisStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (string, error)
	SequenceKey(name string) string
}

// Redis shares counters across API instances.
// Keys expire after ttl of inactivity so abandoned sessions do not accumulate.
type Redis struct {
	store RedisStore
	ttl   time.Duration
}

func NewRedis(store RedisStore, ttl time.Duration) (*Redis, error) {
	if store == nil {
		return nil, errors.New("redis store required")
	}
	return &Redis{store: store, ttl: ttl}, nil
}

func (r *Redis) Next(ctx context.Context, key string) (uint64, error) {
	n, err := r.store.IncrWithTTL(ctx, r.store.SequenceKey(key), r.ttl)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func (r *Redis) Latest(ctx context.Context, key string) (uint64, error) {
	raw, err := r.store.Get(ctx, r.store.SequenceKey(key))
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(raw, 10, 64)
}
