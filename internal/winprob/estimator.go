// Package winprob estimates the probability of winning a bid.
package winprob

import (
	"math"
	"time"

	"github.com/jonathan/rfp-agent/internal/history"
	"github.com/jonathan/rfp-agent/internal/types"
)

// Factor weights and defaults.
const (
	matchWeight      = 0.35
	pricingWeight    = 0.30
	deadlineWeight   = 0.20
	historicalWeight = 0.15

	defaultMatch    = 75.0
	defaultPricing  = 70.0
	defaultDeadline = 80.0
	// defaultPrice stands in for the bid price when there is no quote.
	defaultPrice = 50000.0
)

type band struct {
	min            int
	name           string
	recommendation string
	action         string
}

var bands = []band{
	{80, types.BandHigh, "Strongly recommend bidding - Excellent win potential", "Proceed with confidence"},
	{60, types.BandMedium, "Consider bidding with optimizations", "Review pricing and timeline for improvements"},
	{40, types.BandLow, "Risky - Requires strategic pricing adjustments", "Significant optimization needed"},
	{math.MinInt, types.BandVeryLow, "Not recommended unless strategic value exists", "Consider passing or major strategy revision"},
}

// Input carries everything the estimate depends on. Nil fields fall back to defaults.
type Input struct {
	OverallMatchScore *float64
	Quote             *types.VendorQuote
	Deadline          *time.Time
	History           []types.HistoricalRecord
	Vendor            string
}

// Estimator computes win probability estimates.
type Estimator struct {
	now func() time.Time
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithClock overrides the time source used for deadline banding.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

// New returns an Estimator.
func New(opts ...Option) *Estimator {
	e := &Estimator{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate blends match, pricing, deadline and historical factors.
func (e *Estimator) Estimate(in Input) types.WinProbabilityEstimate {
	match := defaultMatch
	if in.OverallMatchScore != nil {
		match = clamp(*in.OverallMatchScore)
	}

	pricing := defaultPricing
	price := defaultPrice
	if in.Quote != nil {
		pricing = clamp(in.Quote.AvgReliability*0.4 + in.Quote.CompetitivenessScore*0.6)
		price = in.Quote.FinalPrice
	}

	f := types.WinFactors{
		Match:      match,
		Pricing:    pricing,
		Deadline:   e.deadlineFactor(in.Deadline),
		Historical: clamp(history.PredictWinFactor(in.History, match, price, in.Vendor)),
	}

	raw := f.Match*matchWeight + f.Pricing*pricingWeight + f.Deadline*deadlineWeight + f.Historical*historicalWeight
	p := int(math.Round(clamp(raw)))

	est := types.WinProbabilityEstimate{
		Probability: p,
		Factors:     f,
		Confidence:  confidence(p),
		RiskLevel:   riskLevel(p),
	}
	for _, b := range bands {
		if p >= b.min {
			est.RecommendationBand = b.name
			est.Recommendation = b.recommendation
			est.Action = b.action
			break
		}
	}
	return est
}

// DaysUntil counts whole days to deadline, rounding partial days up.
func DaysUntil(now, deadline time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

func (e *Estimator) deadlineFactor(deadline *time.Time) float64 {
	if deadline == nil {
		return defaultDeadline
	}
	days := DaysUntil(e.now(), *deadline)
	switch {
	case days > 60:
		return 95
	case days > 30:
		return 85
	case days > 15:
		return 70
	case days > 7:
		return 50
	default:
		return 30
	}
}

func confidence(p int) string {
	switch {
	case p >= 75:
		return "High"
	case p >= 55:
		return "Medium"
	default:
		return "Low"
	}
}

func riskLevel(p int) string {
	switch {
	case p >= 75:
		return "Low Risk"
	case p >= 55:
		return "Medium Risk"
	default:
		return "High Risk"
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
