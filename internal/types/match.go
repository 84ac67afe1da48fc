package types

import "math"

// MatchDetails is the per-factor breakdown of a match score.
type MatchDetails struct {
	Finish      float64 `json:"finish"`
	Coverage    float64 `json:"coverage"`
	Durability  float64 `json:"durability"`
	Application float64 `json:"application"`
	Reliability float64 `json:"reliability"`
	Semantic    float64 `json:"semantic,omitempty"`
}

// MatchResult scores a single product against a single requirement.
type MatchResult struct {
	RequirementID string       `json:"requirement_id"`
	ProductID     string       `json:"product_id"`
	ProductName   string       `json:"product_name"`
	Vendor        string       `json:"vendor"`
	Score         float64      `json:"score"`
	Details       MatchDetails `json:"details"`
	Reasons       []string     `json:"reasons"`
	Confidence    float64      `json:"confidence"`
}

// RoundedScore is the integer score used for display.
func (m MatchResult) RoundedScore() int {
	return int(math.Round(m.Score))
}

// MatchSet is the vendor match engine's output.
type MatchSet struct {
	// PerRequirement lists every vendor's best match per requirement, in catalog order.
	PerRequirement map[string][]MatchResult `json:"per_requirement"`
	// Best indexes requirement -> vendor -> best match. Vendors without products are absent.
	Best                    map[string]map[string]*MatchResult `json:"-"`
	RequirementScores       map[string]float64                 `json:"requirement_scores"`
	OverallRequirementScore float64                            `json:"overall_requirement_score"`
	OverallMatchScore       float64                            `json:"overall_match_score"`
}

// BestFor returns a vendor's best match for a requirement.
func (s *MatchSet) BestFor(requirementID, vendor string) (*MatchResult, bool) {
	if s == nil || s.Best == nil {
		return nil, false
	}
	m, ok := s.Best[requirementID][vendor]
	return m, ok && m != nil
}
