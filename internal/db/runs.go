package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/rfp-agent/internal/types"
)

// RunStore persists orchestrator runs keyed by their string ids.
type RunStore struct {
	db *DB
}

// Runs returns the run persistence view of db.
func (db *DB) Runs() *RunStore {
	return &RunStore{db: db}
}

// CreateRun records a run as started.
func (s *RunStore) CreateRun(ctx context.Context, runID, title string) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	return s.db.CreateRun(ctx, id, title)
}

// StartStep records a stage as in progress.
func (s *RunStore) StartStep(ctx context.Context, runID, stage string) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	return s.db.CreateRunStep(ctx, id, stage, stage)
}

// FinishStep records a stage outcome.
func (s *RunStore) FinishStep(ctx context.Context, runID, stage string, stepErr error) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	status := StepStatusCompleted
	var msg *string
	if stepErr != nil {
		status = StepStatusFailed
		m := stepErr.Error()
		msg = &m
	}
	return s.db.UpdateRunStepStatus(ctx, id, stage, status, msg)
}

// SaveArtifact stores one stage output.
func (s *RunStore) SaveArtifact(ctx context.Context, runID, step string, content any) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	return s.db.SaveArtifact(ctx, id, step, CategoryFor(step), content)
}

// FinishRun stores the full result and closes the run record.
func (s *RunStore) FinishRun(ctx context.Context, res *types.RunResult) error {
	id, err := uuid.Parse(res.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", res.RunID, err)
	}
	if err := s.db.SaveArtifact(ctx, id, StepRunResult, CategoryResult, res); err != nil {
		return err
	}
	var msg *string
	if res.Error != "" {
		msg = &res.Error
	}
	return s.db.CompleteRun(ctx, id, res.Status, msg)
}

// LoadRun returns a stored run. Unknown ids return nil, nil. A run that
// has not finished comes back with only its id, title and status.
func (s *RunStore) LoadRun(ctx context.Context, runID string) (*types.RunResult, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, nil
	}

	content, err := s.db.GetArtifact(ctx, id, StepRunResult)
	if err != nil {
		return nil, err
	}
	if content != nil {
		var res types.RunResult
		if err := json.Unmarshal(content, &res); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run result: %w", err)
		}
		return &res, nil
	}

	run, err := s.db.GetRun(ctx, id)
	if err != nil || run == nil {
		return nil, err
	}
	return &types.RunResult{
		RunID:     run.ID.String(),
		Title:     run.Title,
		Status:    run.Status,
		StartedAt: run.CreatedAt,
	}, nil
}
