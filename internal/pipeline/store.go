package pipeline

import (
	"context"
	"sync"

	"github.com/jonathan/rfp-agent/internal/types"
)

// RunStore persists runs as they progress.
type RunStore interface {
	CreateRun(ctx context.Context, runID, title string) error
	StartStep(ctx context.Context, runID, stage string) error
	FinishStep(ctx context.Context, runID, stage string, stepErr error) error
	SaveArtifact(ctx context.Context, runID, step string, content any) error
	FinishRun(ctx context.Context, res *types.RunResult) error
	LoadRun(ctx context.Context, runID string) (*types.RunResult, error)
}

// MemoryRunStore keeps finished runs in process. Step and artifact
// records are not retained.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]*types.RunResult
}

// NewMemoryRunStore returns an empty store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[string]*types.RunResult)}
}

// CreateRun records a running placeholder.
func (s *MemoryRunStore) CreateRun(_ context.Context, runID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = &types.RunResult{RunID: runID, Title: title, Status: "running"}
	return nil
}

func (s *MemoryRunStore) StartStep(context.Context, string, string) error         { return nil }
func (s *MemoryRunStore) FinishStep(context.Context, string, string, error) error { return nil }
func (s *MemoryRunStore) SaveArtifact(context.Context, string, string, any) error { return nil }

// FinishRun stores res.
func (s *MemoryRunStore) FinishRun(_ context.Context, res *types.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[res.RunID] = res
	return nil
}

// LoadRun returns a stored run or nil.
func (s *MemoryRunStore) LoadRun(_ context.Context, runID string) (*types.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs[runID], nil
}
