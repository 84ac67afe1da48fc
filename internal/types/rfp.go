// Package types provides type definitions for structured data used throughout the rfp-agent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ApplicationType is where a paint requirement will be applied.
type ApplicationType string

// Application types recognised by the matcher.
const (
	ApplicationExterior ApplicationType = "exterior"
	ApplicationInterior ApplicationType = "interior"
	ApplicationMixed    ApplicationType = "mixed"
)

// Requirement is one paint need extracted from an RFP.
type Requirement struct {
	ID              string          `json:"id" validate:"required"`
	Area            float64         `json:"area" validate:"gt=0"`
	Finish          string          `json:"finish" validate:"required"`
	Coverage        *float64        `json:"coverage,omitempty"`
	MinDurability   *int            `json:"min_durability,omitempty"`
	LaborFee        float64         `json:"labor_fee" validate:"gte=0"`
	ApplicationType ApplicationType `json:"application_type" validate:"oneof=exterior interior mixed"`
}

// ExtractedEntities is the optional output of an upstream entity extractor.
// Any list may be empty.
type ExtractedEntities struct {
	Areas          []float64 `json:"areas"`
	Coverages      []float64 `json:"coverages"`
	Costs          []float64 `json:"costs"`
	Dates          []string  `json:"dates"`
	Finishes       []string  `json:"finishes,omitempty"`
	Materials      []string  `json:"materials,omitempty"`
	Certifications []string  `json:"certifications,omitempty"`
}

// Empty reports whether no numeric or date list carries a value.
func (e *ExtractedEntities) Empty() bool {
	if e == nil {
		return true
	}
	return len(e.Areas) == 0 && len(e.Coverages) == 0 && len(e.Costs) == 0 && len(e.Dates) == 0
}

// Assessment is a graded text signal such as urgency or complexity.
type Assessment struct {
	Level string  `json:"level"`
	Score float64 `json:"score"`
}

// Extraction sources.
const (
	SourceEntities = "entities"
	SourcePatterns = "patterns"
	SourceDefaults = "defaults"
)

// RFPData is the structured form of an RFP.
type RFPData struct {
	Deadline       *time.Time    `json:"deadline,omitempty"`
	DeadlineRaw    string        `json:"deadline_raw"`
	TotalArea      float64       `json:"total_area"`
	Requirements   []Requirement `json:"requirements"`
	Materials      []string      `json:"materials,omitempty"`
	Certifications []string      `json:"certifications,omitempty"`
	Urgency        Assessment    `json:"urgency"`
	Complexity     Assessment    `json:"complexity"`
	Source         string        `json:"source"`
}

// Requirement returns the requirement with the given id.
func (r *RFPData) Requirement(id string) (Requirement, bool) {
	for _, req := range r.Requirements {
		if req.ID == id {
			return req, true
		}
	}
	return Requirement{}, false
}

var validate = validator.New()

// Validate checks a requirement's struct constraints.
func (r *Requirement) Validate() error {
	return validate.Struct(r)
}
