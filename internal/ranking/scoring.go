// Package ranking scores vendor products against RFP requirements.
package ranking

import (
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/rfp-agent/internal/types"
)

// Rubric weights. They sum to 100.
const (
	finishWeight      = 30.0
	finishCompatible  = 20.0
	coverageWeight    = 25.0
	durabilityWeight  = 20.0
	applicationWeight = 15.0
	reliabilityWeight = 10.0

	// semanticBonusMax is added on top of the rubric before clamping.
	semanticBonusMax = 5.0

	coverageRatioCap = 1.5
)

// compatibleFinishes lists finishes that earn partial credit for a required finish.
var compatibleFinishes = map[string][]string{
	"matt":   {"smooth", "satin"},
	"silk":   {"satin", "semi-gloss"},
	"smooth": {"matt", "satin"},
	"satin":  {"silk", "smooth"},
}

// compatibleCategories lists product categories usable for each application type.
var compatibleCategories = map[types.ApplicationType][]string{
	types.ApplicationExterior: {"exterior", "all-purpose"},
	types.ApplicationInterior: {"interior", "all-purpose"},
}

func normalizeFinish(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// computeFinishScore returns 30 for an exact case-insensitive match, 20 for a compatible finish, else 0.
func computeFinishScore(required, offered string) (float64, string) {
	req, off := normalizeFinish(required), normalizeFinish(offered)
	if req == "" || off == "" {
		return 0, "Finish not specified"
	}
	if req == off {
		return finishWeight, fmt.Sprintf("Exact finish match: %s", offered)
	}
	for _, c := range compatibleFinishes[req] {
		if c == off {
			return finishCompatible, fmt.Sprintf("Compatible finish: %s for required %s", offered, required)
		}
	}
	return 0, fmt.Sprintf("Finish mismatch: %s vs required %s", offered, required)
}

// computeCoverageScore rewards supply rates at or above the requirement and
// penalises shortfall proportionally.
func computeCoverageScore(required *float64, offered float64) (float64, string) {
	if required == nil || *required <= 0 {
		return 0, "Coverage requirement not specified"
	}
	if offered >= *required {
		ratio := math.Min(offered / *required, coverageRatioCap)
		return math.Min(coverageWeight*ratio, coverageWeight),
			fmt.Sprintf("Coverage %.0f meets required %.0f", offered, *required)
	}
	shortfall := (*required - offered) / *required
	score := math.Max(0, coverageWeight*(1-shortfall))
	return score, fmt.Sprintf("Coverage %.0f below required %.0f (%.0f%% short)", offered, *required, shortfall*100)
}

func computeDurabilityScore(required *int, offered int) (float64, string) {
	if required == nil || *required <= 0 {
		return 0, "Durability requirement not specified"
	}
	if offered >= *required {
		return durabilityWeight, fmt.Sprintf("Durability %d years meets required %d", offered, *required)
	}
	score := durabilityWeight * float64(max(offered, 0)) / float64(*required)
	return score, fmt.Sprintf("Durability %d years below required %d", offered, *required)
}

func computeApplicationScore(app types.ApplicationType, category string) (float64, string) {
	cat := strings.ToLower(strings.TrimSpace(category))
	if app == types.ApplicationMixed || strings.Contains(cat, "all") {
		return applicationWeight, fmt.Sprintf("%s product suits %s application", category, app)
	}
	for _, c := range compatibleCategories[app] {
		if c == cat {
			return applicationWeight, fmt.Sprintf("%s product suits %s application", category, app)
		}
	}
	return 0, fmt.Sprintf("%s product not suited to %s application", category, app)
}

func computeReliabilityScore(reliability *float64) (float64, string) {
	if reliability == nil {
		return 0, "Vendor reliability unknown"
	}
	return reliabilityWeight * (*reliability / 100), fmt.Sprintf("Vendor reliability %.0f%%", *reliability)
}

// confidenceFor bands a match score into a confidence value.
func confidenceFor(score float64) float64 {
	switch {
	case score >= 90:
		return 0.95
	case score >= 80:
		return 0.90
	case score >= 70:
		return 0.85
	case score >= 60:
		return 0.75
	default:
		return 0.60
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// requirementText composes the description used for semantic similarity.
func requirementText(req types.Requirement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s finish %s paint", req.Finish, req.ApplicationType)
	if req.Coverage != nil {
		fmt.Fprintf(&b, " coverage %.0f sq ft per liter", *req.Coverage)
	}
	if req.MinDurability != nil {
		fmt.Fprintf(&b, " durability %d years", *req.MinDurability)
	}
	return b.String()
}

func productText(p types.Product) string {
	return fmt.Sprintf("%s %s finish %s paint coverage %.0f sq ft per liter durability %d years",
		p.Name, p.Finish, p.Category, p.Coverage, p.Durability)
}
