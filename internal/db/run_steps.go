package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StepStatus constants
const (
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
)

// RunStep represents a single stage execution for a pipeline run
type RunStep struct {
	ID           uuid.UUID  `json:"id"`
	RunID        uuid.UUID  `json:"run_id"`
	Step         string     `json:"step"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMs   *int       `json:"duration_ms,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateRunStep records a stage as started. Re-running a stage resets it.
func (db *DB) CreateRunStep(ctx context.Context, runID uuid.UUID, step, category string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_steps (run_id, step, category, status, started_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (run_id, step) DO UPDATE
		 SET status = EXCLUDED.status, started_at = NOW(), completed_at = NULL,
		     duration_ms = NULL, error_message = NULL, updated_at = NOW()`,
		runID, step, category, StepStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to create run step: %w", err)
	}
	return nil
}

// UpdateRunStepStatus finishes a stage and stores its duration
func (db *DB) UpdateRunStepStatus(ctx context.Context, runID uuid.UUID, step, status string, errorMsg *string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE run_steps
		 SET status = $1, completed_at = NOW(), error_message = $2,
		     duration_ms = (EXTRACT(EPOCH FROM (NOW() - started_at)) * 1000)::int,
		     updated_at = NOW()
		 WHERE run_id = $3 AND step = $4`,
		status, errorMsg, runID, step,
	)
	if err != nil {
		return fmt.Errorf("failed to update run step status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("step not found: %s", step)
	}
	return nil
}

// ListRunSteps retrieves all steps for a run in start order
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID) ([]RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, step, category, status, started_at, completed_at,
		        duration_ms, error_message, created_at, updated_at
		 FROM run_steps
		 WHERE run_id = $1
		 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	var steps []RunStep
	for rows.Next() {
		var s RunStep
		if err := rows.Scan(&s.ID, &s.RunID, &s.Step, &s.Category, &s.Status,
			&s.StartedAt, &s.CompletedAt, &s.DurationMs, &s.ErrorMessage,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}
