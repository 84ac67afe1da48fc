package db

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses stored in pipeline_runs. Finished runs use the
// types.RunCompleted, types.RunFailed and types.RunCancelled values.
const (
	RunStatusRunning = "running"
)

// Run represents a pipeline run record
type Run struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Artifact steps written by the orchestrator
const (
	StepRFPData        = "rfp_data"
	StepMatches        = "matches"
	StepVendorQuotes   = "vendor_quotes"
	StepSelection      = "selection"
	StepStrategy       = "strategy"
	StepWinProbability = "win_probability"
	StepReview         = "review"
	StepRunResult      = "run_result"
)

// ArtifactCategory groups artifacts by pipeline stage.
const (
	CategoryExtraction = "extraction"
	CategoryMatching   = "matching"
	CategoryPricing    = "pricing"
	CategorySelection  = "selection"
	CategoryEstimation = "estimation"
	CategoryEscalation = "escalation"
	CategoryResult     = "result"
)

// CategoryFor returns the category an artifact step belongs to.
func CategoryFor(step string) string {
	switch step {
	case StepRFPData:
		return CategoryExtraction
	case StepMatches:
		return CategoryMatching
	case StepVendorQuotes, StepStrategy:
		return CategoryPricing
	case StepSelection:
		return CategorySelection
	case StepWinProbability:
		return CategoryEstimation
	case StepReview:
		return CategoryEscalation
	default:
		return CategoryResult
	}
}
