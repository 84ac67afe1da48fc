// Package escalation flags low-confidence RFP responses for human review.
package escalation

import (
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/rfp-agent/internal/types"
)

// Issue types.
const (
	IssueLowMatch       = "LOW_MATCH_SCORE"
	IssueLowWin         = "LOW_WIN_PROBABILITY"
	IssueLowReliability = "LOW_RELIABILITY"
	IssuePriceVariance  = "HIGH_PRICE_VARIANCE"
	IssueDeadlineRisk   = "HIGH_DEADLINE_RISK"
	IssueHighComplexity = "HIGH_COMPLEXITY"
)

// Severities and review priorities.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"

	PriorityUrgent = "URGENT"
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// tightDeadlineFactor is the win-probability deadline factor given to bids
// due within a week.
const tightDeadlineFactor = 30.0

// Thresholds are expressed as fractions in [0,1].
type Thresholds struct {
	MatchScore     float64
	WinProbability float64
	PriceVariance  float64
	Reliability    float64
}

// DefaultThresholds returns the standard review thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{MatchScore: 0.85, WinProbability: 0.70, PriceVariance: 0.20, Reliability: 0.90}
}

var actions = map[string][]string{
	IssueLowMatch:       {"Review and adjust technical specifications", "Consider alternative vendors or products"},
	IssueLowWin:         {"Optimize pricing strategy", "Review competitive positioning"},
	IssueLowReliability: {"Verify vendor credentials and past performance", "Request quality guarantees or certifications"},
	IssuePriceVariance:  {"Verify all pricing calculations", "Investigate reasons for price differences"},
	IssueDeadlineRisk:   {"Confirm delivery timeline with vendor", "Consider requesting deadline extension"},
	IssueHighComplexity: {"Consult with technical experts", "Break down complex requirements"},
}

// Evaluator decides whether a run needs review.
type Evaluator struct {
	t Thresholds
}

// NewEvaluator returns an Evaluator using t.
func NewEvaluator(t Thresholds) *Evaluator {
	return &Evaluator{t: t}
}

// Evaluate inspects a finished run. Complexity alone lowers confidence
// but never forces a review.
func (e *Evaluator) Evaluate(res *types.RunResult) types.Review {
	var issues []types.Issue
	confidence := 1.0
	required := false
	flag := func(is types.Issue, factor float64, review bool) {
		issues = append(issues, is)
		confidence *= factor
		required = required || review
	}

	match := res.OverallMatchScore / 100
	if match < e.t.MatchScore {
		flag(types.Issue{
			Type:           IssueLowMatch,
			Severity:       SeverityHigh,
			Message:        fmt.Sprintf("Match score %s is below threshold of %s", pct(match), pct(e.t.MatchScore)),
			Value:          match,
			Threshold:      e.t.MatchScore,
			Recommendation: "Review technical specifications and vendor selection",
		}, 0.7, true)
	}

	win := 0.0
	if res.WinProbability != nil {
		win = float64(res.WinProbability.Probability) / 100
	}
	if win < e.t.WinProbability {
		sev := SeverityMedium
		if win < 0.5 {
			sev = SeverityHigh
		}
		flag(types.Issue{
			Type:           IssueLowWin,
			Severity:       sev,
			Message:        fmt.Sprintf("Win probability %s is below threshold of %s", pct(win), pct(e.t.WinProbability)),
			Value:          win,
			Threshold:      e.t.WinProbability,
			Recommendation: "Review pricing strategy and competitive positioning",
		}, 0.8, true)
	}

	rel := 0.0
	if res.Selection != nil && res.Selection.Recommended != nil {
		rel = res.Selection.Recommended.AvgReliability / 100
	}
	if rel < e.t.Reliability {
		flag(types.Issue{
			Type:           IssueLowReliability,
			Severity:       SeverityMedium,
			Message:        fmt.Sprintf("Vendor reliability %s is below threshold of %s", pct(rel), pct(e.t.Reliability)),
			Value:          rel,
			Threshold:      e.t.Reliability,
			Recommendation: "Consider alternative vendors or request quality guarantees",
		}, 0.85, true)
	}

	if v, ok := PriceVariance(res.VendorQuotes); ok && v > e.t.PriceVariance {
		flag(types.Issue{
			Type:           IssuePriceVariance,
			Severity:       SeverityMedium,
			Message:        fmt.Sprintf("Price variance %s exceeds threshold of %s", pct(v), pct(e.t.PriceVariance)),
			Value:          v,
			Threshold:      e.t.PriceVariance,
			Recommendation: "Verify pricing calculations and vendor quotes",
		}, 0.9, true)
	}

	if res.WinProbability != nil && res.WinProbability.Factors.Deadline <= tightDeadlineFactor {
		flag(types.Issue{
			Type:           IssueDeadlineRisk,
			Severity:       SeverityHigh,
			Message:        "Tight deadline poses high delivery risk",
			Recommendation: "Confirm vendor can meet deadline or negotiate extension",
		}, 0.85, true)
	}

	if res.RFP != nil {
		if lvl := res.RFP.Complexity.Level; lvl == "Complex" || lvl == "Very Complex" {
			flag(types.Issue{
				Type:           IssueHighComplexity,
				Severity:       SeverityMedium,
				Message:        "RFP complexity is " + lvl,
				Recommendation: "Review technical requirements with subject matter experts",
			}, 0.9, false)
		}
	}

	return types.Review{
		Required:        required,
		Priority:        Priority(issues),
		Confidence:      confidence,
		ConfidenceLevel: ConfidenceLevel(confidence),
		Summary:         summary(required, confidence, issues),
		Issues:          issues,
		Actions:         actionsFor(issues),
	}
}

// PriceVariance is the largest relative deviation from the mean quote
// price. It needs at least two quotes.
func PriceVariance(quotes map[string]*types.VendorQuote) (float64, bool) {
	if len(quotes) < 2 {
		return 0, false
	}
	sum := 0.0
	for _, q := range quotes {
		sum += q.FinalPrice
	}
	avg := sum / float64(len(quotes))
	if avg == 0 {
		return 0, false
	}
	worst := 0.0
	for _, q := range quotes {
		worst = math.Max(worst, math.Abs(q.FinalPrice-avg)/avg)
	}
	return worst, true
}

// Priority ranks issues by severity count.
func Priority(issues []types.Issue) string {
	high, medium := countSeverity(issues)
	switch {
	case high >= 2:
		return PriorityUrgent
	case high >= 1:
		return PriorityHigh
	case medium >= 2:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ConfidenceLevel labels an overall confidence.
func ConfidenceLevel(c float64) string {
	switch {
	case c >= 0.95:
		return "VERY_HIGH"
	case c >= 0.85:
		return "HIGH"
	case c >= 0.70:
		return "MEDIUM"
	case c >= 0.50:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

func countSeverity(issues []types.Issue) (high, medium int) {
	for _, is := range issues {
		switch is.Severity {
		case SeverityHigh:
			high++
		case SeverityMedium:
			medium++
		}
	}
	return high, medium
}

func summary(required bool, confidence float64, issues []types.Issue) string {
	if !required {
		return fmt.Sprintf("All confidence thresholds met. Automated response approved with %s confidence.", pct(confidence))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Human review required. Overall confidence: %s.", pct(confidence))
	high, medium := countSeverity(issues)
	if high > 0 {
		fmt.Fprintf(&sb, " %d high-severity %s detected.", high, plural(high, "issue"))
	}
	if medium > 0 {
		fmt.Fprintf(&sb, " %d medium-severity %s detected.", medium, plural(medium, "issue"))
	}
	return sb.String()
}

func actionsFor(issues []types.Issue) []string {
	seen := map[string]bool{}
	var out []string
	for _, is := range issues {
		for _, a := range actions[is.Type] {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

func pct(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
