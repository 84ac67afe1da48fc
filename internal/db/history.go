package db

import (
	"context"
	"fmt"

	"github.com/jonathan/rfp-agent/internal/types"
)

// InsertHistoricalRecord stores a past bid. Re-inserting an id updates its outcome.
func (db *DB) InsertHistoricalRecord(ctx context.Context, rec types.HistoricalRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO historical_records (id, rfp_title, vendor, final_price, match_score, status, area, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
		rec.ID, rec.RFPTitle, rec.Vendor, rec.FinalPrice, rec.MatchScore, rec.Status, rec.Area, rec.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert historical record %s: %w", rec.ID, err)
	}
	return nil
}

// ListHistoricalRecords returns every stored bid, oldest first.
func (db *DB) ListHistoricalRecords(ctx context.Context) ([]types.HistoricalRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, rfp_title, vendor, final_price, match_score, status, area, submitted_at
		 FROM historical_records
		 ORDER BY submitted_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list historical records: %w", err)
	}
	defer rows.Close()

	var out []types.HistoricalRecord
	for rows.Next() {
		var r types.HistoricalRecord
		if err := rows.Scan(&r.ID, &r.RFPTitle, &r.Vendor, &r.FinalPrice, &r.MatchScore, &r.Status, &r.Area, &r.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan historical record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// HistoryStore adapts DB to history.Provider.
type HistoryStore struct {
	db *DB
}

// History returns the bid history view of db.
func (db *DB) History() *HistoryStore {
	return &HistoryStore{db: db}
}

// Records implements history.Provider.
func (s *HistoryStore) Records(ctx context.Context) ([]types.HistoricalRecord, error) {
	return s.db.ListHistoricalRecords(ctx)
}

// Append implements history.Provider.
func (s *HistoryStore) Append(ctx context.Context, rec types.HistoricalRecord) error {
	return s.db.InsertHistoricalRecord(ctx, rec)
}
