package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/rfp-agent/internal/types"
)

// InsertAuditEntry appends one audit entry.
func (db *DB) InsertAuditEntry(ctx context.Context, entry types.AuditEntry) error {
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		return fmt.Errorf("invalid audit entry id %q: %w", entry.ID, err)
	}
	runID, err := uuid.Parse(entry.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", entry.RunID, err)
	}

	var payload []byte
	if entry.Payload != nil {
		payload, err = json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal audit payload: %w", err)
		}
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO audit_entries (id, run_id, agent, stage, reasoning, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, runID, entry.Agent, entry.Stage, entry.Reasoning, payload, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries returns a run's trail in the order it was written.
func (db *DB) ListAuditEntries(ctx context.Context, runID uuid.UUID) ([]types.AuditEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, agent, stage, COALESCE(reasoning, ''), payload, created_at
		 FROM audit_entries
		 WHERE run_id = $1
		 ORDER BY created_at, id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []types.AuditEntry
	for rows.Next() {
		var (
			e       types.AuditEntry
			id, run uuid.UUID
			payload []byte
		)
		if err := rows.Scan(&id, &run, &e.Agent, &e.Stage, &e.Reasoning, &payload, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.ID = id.String()
		e.RunID = run.String()
		if len(payload) > 0 {
			_ = json.Unmarshal(payload, &e.Payload)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AuditStore adapts DB to audit.Sink.
type AuditStore struct {
	db *DB
}

// Audit returns the audit trail view of db.
func (db *DB) Audit() *AuditStore {
	return &AuditStore{db: db}
}

// Append stores entry.
func (s *AuditStore) Append(ctx context.Context, entry types.AuditEntry) error {
	return s.db.InsertAuditEntry(ctx, entry)
}

// Trail returns the entries for runID. Unknown or malformed ids yield an empty trail.
func (s *AuditStore) Trail(ctx context.Context, runID string) ([]types.AuditEntry, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, nil
	}
	return s.db.ListAuditEntries(ctx, id)
}
