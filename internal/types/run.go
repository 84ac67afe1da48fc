package types

import "time"

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	Agent     string         `json:"agent"`
	Stage     string         `json:"stage"`
	Payload   map[string]any `json:"payload,omitempty"`
	Reasoning string         `json:"reasoning,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Run statuses.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
	RunCancelled = "cancelled"
)

// Issue is one reason a run needs human review.
type Issue struct {
	Type           string  `json:"type"`
	Severity       string  `json:"severity"`
	Message        string  `json:"message"`
	Value          float64 `json:"value,omitempty"`
	Threshold      float64 `json:"threshold,omitempty"`
	Recommendation string  `json:"recommendation"`
}

// Review is the escalation verdict attached to a run.
type Review struct {
	Required        bool     `json:"required"`
	Priority        string   `json:"priority"`
	Confidence      float64  `json:"confidence"`
	ConfidenceLevel string   `json:"confidence_level"`
	Summary         string   `json:"summary"`
	Issues          []Issue  `json:"issues"`
	Actions         []string `json:"actions,omitempty"`
}

// RunResult is the orchestrator's output.
type RunResult struct {
	RunID             string                  `json:"run_id"`
	Title             string                  `json:"title,omitempty"`
	Status            string                  `json:"status"`
	Error             string                  `json:"error,omitempty"`
	RFP               *RFPData                `json:"rfp,omitempty"`
	Matches           *MatchSet               `json:"matches,omitempty"`
	VendorQuotes      map[string]*VendorQuote `json:"vendor_quotes,omitempty"`
	DroppedVendors    map[string]string       `json:"dropped_vendors,omitempty"`
	Selection         *Selection              `json:"selection,omitempty"`
	OverallMatchScore float64                 `json:"overall_match_score"`
	WinProbability    *WinProbabilityEstimate `json:"win_probability,omitempty"`
	Strategy          *Strategy               `json:"strategy,omitempty"`
	Review            *Review                 `json:"review,omitempty"`
	AuditTrail        []AuditEntry            `json:"audit_trail"`
	StartedAt         time.Time               `json:"started_at"`
	CompletedAt       time.Time               `json:"completed_at"`
}
