// Package audit records an append-only trail of pipeline decisions.
package audit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/rfp-agent/internal/types"
)

// Sink stores audit entries.
type Sink interface {
	Append(ctx context.Context, entry types.AuditEntry) error
	Trail(ctx context.Context, runID string) ([]types.AuditEntry, error)
}

// NewEntry stamps an entry with an id and the current time.
func NewEntry(runID, agent, stage, reasoning string, payload map[string]any) types.AuditEntry {
	return types.AuditEntry{
		ID:        uuid.NewString(),
		RunID:     runID,
		Agent:     agent,
		Stage:     stage,
		Payload:   payload,
		Reasoning: reasoning,
		Timestamp: time.Now().UTC(),
	}
}

// MemoryLog keeps entries in process.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []types.AuditEntry
}

// NewMemoryLog returns an empty MemoryLog.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append implements Sink.
func (l *MemoryLog) Append(_ context.Context, entry types.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

// Trail implements Sink. Entries come back in append order.
func (l *MemoryLog) Trail(_ context.Context, runID string) ([]types.AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []types.AuditEntry
	for _, e := range l.entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ByAgent returns the entries of trail written by agent, ignoring case.
func ByAgent(trail []types.AuditEntry, agent string) []types.AuditEntry {
	out := []types.AuditEntry{}
	for _, e := range trail {
		if strings.EqualFold(e.Agent, agent) {
			out = append(out, e)
		}
	}
	return out
}

// Len reports how many entries are stored.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Summary describes one run's trail.
type Summary struct {
	RunID          string              `json:"run_id"`
	TotalSteps     int                 `json:"total_steps"`
	AgentBreakdown map[string][]string `json:"agent_breakdown"`
	Start          *time.Time          `json:"start,omitempty"`
	End            *time.Time          `json:"end,omitempty"`
	Duration       time.Duration       `json:"duration"`
	Failures       int                 `json:"failures"`
}

// Summarize builds a Summary from a trail.
func Summarize(runID string, trail []types.AuditEntry) Summary {
	s := Summary{RunID: runID, TotalSteps: len(trail), AgentBreakdown: map[string][]string{}}
	for _, e := range trail {
		s.AgentBreakdown[e.Agent] = append(s.AgentBreakdown[e.Agent], e.Stage)
		if strings.HasSuffix(e.Stage, "Failed") {
			s.Failures++
		}
	}
	if len(trail) > 0 {
		start, end := trail[0].Timestamp, trail[len(trail)-1].Timestamp
		s.Start, s.End = &start, &end
		s.Duration = end.Sub(start)
	}
	return s
}

// Report fetches and summarises a run's trail from sink.
func Report(ctx context.Context, sink Sink, runID string) ([]types.AuditEntry, Summary, error) {
	trail, err := sink.Trail(ctx, runID)
	if err != nil {
		return nil, Summary{}, err
	}
	return trail, Summarize(runID, trail), nil
}
