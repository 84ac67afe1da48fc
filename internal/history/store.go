package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jonathan/rfp-agent/internal/cache"
	"github.com/jonathan/rfp-agent/internal/types"
)

// Provider gives read access to past bids and records new ones.
type Provider interface {
	Records(ctx context.Context) ([]types.HistoricalRecord, error)
	Append(ctx context.Context, rec types.HistoricalRecord) error
}

// MemoryStore is a mutex-guarded in-process Provider.
type MemoryStore struct {
	mu      sync.RWMutex
	records []types.HistoricalRecord
}

// NewMemoryStore returns a store preloaded with seed.
func NewMemoryStore(seed ...types.HistoricalRecord) *MemoryStore {
	s := &MemoryStore{}
	s.records = append(s.records, seed...)
	return s
}

// Records returns a copy of the stored bids.
func (s *MemoryStore) Records(_ context.Context) ([]types.HistoricalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.HistoricalRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Append stores a bid.
func (s *MemoryStore) Append(_ context.Context, rec types.HistoricalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// DefaultRedisKey is the list holding JSON-encoded bids.
const DefaultRedisKey = "rfp:history"

// RedisStore keeps bids in a Redis list.
type RedisStore struct {
	client *cache.RedisClient
	key    string
}

// NewRedisStore returns a RedisStore using key, or DefaultRedisKey when empty.
func NewRedisStore(client *cache.RedisClient, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Records reads every stored bid in insertion order.
func (s *RedisStore) Records(ctx context.Context) ([]types.HistoricalRecord, error) {
	raw, err := s.client.Client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	out := make([]types.HistoricalRecord, 0, len(raw))
	for _, item := range raw {
		var rec types.HistoricalRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode history record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Append pushes a bid onto the list.
func (s *RedisStore) Append(ctx context.Context, rec types.HistoricalRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode history record: %w", err)
	}
	if err := s.client.Client.RPush(ctx, s.key, b).Err(); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}

// Seed appends records to p when it is empty.
func Seed(ctx context.Context, p Provider, records []types.HistoricalRecord) error {
	existing, err := p.Records(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, r := range records {
		if err := p.Append(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
