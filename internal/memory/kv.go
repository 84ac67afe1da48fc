// Package memory recalls past RFP runs that resemble the current one.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/rfp-agent/internal/cache"
)

// KV stores capped lists of opaque values under string keys.
type KV interface {
	// Push appends value and keeps only the newest limit values.
	Push(ctx context.Context, key string, value []byte, limit int) error
	// List returns the values oldest first.
	List(ctx context.Context, key string) ([][]byte, error)
	Delete(ctx context.Context, key string) error
}

// MemoryKV is an in-process KV.
type MemoryKV struct {
	mu    sync.RWMutex
	lists map[string][][]byte
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{lists: make(map[string][][]byte)}
}

// Push implements KV.
func (m *MemoryKV) Push(_ context.Context, key string, value []byte, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := append(m.lists[key], append([]byte(nil), value...))
	if limit > 0 && len(l) > limit {
		l = l[len(l)-limit:]
	}
	m.lists[key] = l
	return nil
}

// List implements KV.
func (m *MemoryKV) List(_ context.Context, key string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]byte, len(m.lists[key]))
	copy(out, m.lists[key])
	return out, nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lists, key)
	return nil
}

// RedisKV keeps each list in a Redis list trimmed on every push.
type RedisKV struct {
	client *cache.RedisClient
}

// NewRedisKV wraps client.
func NewRedisKV(client *cache.RedisClient) *RedisKV {
	return &RedisKV{client: client}
}

// Push implements KV.
func (r *RedisKV) Push(ctx context.Context, key string, value []byte, limit int) error {
	pipe := r.client.Client.TxPipeline()
	pipe.RPush(ctx, key, value)
	if limit > 0 {
		pipe.LTrim(ctx, key, int64(-limit), -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push to %s: %w", key, err)
	}
	return nil
}

// List implements KV.
func (r *RedisKV) List(ctx context.Context, key string) ([][]byte, error) {
	vals, err := r.client.Client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// Delete implements KV.
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
