package types

// Recommendation bands for win probability.
const (
	BandHigh    = "HIGH"
	BandMedium  = "MEDIUM"
	BandLow     = "LOW"
	BandVeryLow = "VERY_LOW"
)

// WinFactors are the four factor scores blended into the win probability.
type WinFactors struct {
	Match      float64 `json:"match"`
	Pricing    float64 `json:"pricing"`
	Deadline   float64 `json:"deadline"`
	Historical float64 `json:"historical"`
}

// WinProbabilityEstimate is the estimator's output.
type WinProbabilityEstimate struct {
	Probability        int        `json:"probability"`
	Confidence         string     `json:"confidence"`
	Factors            WinFactors `json:"factors"`
	RecommendationBand string     `json:"recommendation_band"`
	Recommendation     string     `json:"recommendation"`
	Action             string     `json:"action"`
	RiskLevel          string     `json:"risk_level"`
}
