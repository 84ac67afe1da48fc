package ranking

import (
	"context"

	"github.com/jonathan/rfp-agent/internal/types"
)

// Engine evaluates every product of every vendor against each requirement.
type Engine struct {
	matcher *Matcher
}

// NewEngine returns an Engine backed by matcher.
func NewEngine(matcher *Matcher) *Engine {
	if matcher == nil {
		matcher = NewMatcher()
	}
	return &Engine{matcher: matcher}
}

// MatchAll keeps each vendor's best product per requirement. Ties keep the
// first product in catalog order. Vendors with no products get no entry for
// the requirement.
func (e *Engine) MatchAll(ctx context.Context, reqs []types.Requirement, catalog *types.Catalog) *types.MatchSet {
	set := &types.MatchSet{
		PerRequirement:    make(map[string][]types.MatchResult, len(reqs)),
		Best:              make(map[string]map[string]*types.MatchResult, len(reqs)),
		RequirementScores: make(map[string]float64, len(reqs)),
	}
	if catalog == nil {
		catalog = &types.Catalog{}
	}

	var vendorBestSum float64
	var vendorBestCount int
	var reqSum float64

	for _, req := range reqs {
		perVendor := make(map[string]*types.MatchResult)
		results := make([]types.MatchResult, 0, len(catalog.Vendors))
		bestAcross := 0.0

		for _, vendor := range catalog.Vendors {
			var best *types.MatchResult
			for _, product := range vendor.Products {
				if product.Vendor == "" {
					product.Vendor = vendor.Name
				}
				r := e.matcher.Score(ctx, req, product)
				if best == nil || r.Score > best.Score {
					best = &r
				}
			}
			if best == nil {
				continue
			}
			perVendor[vendor.Name] = best
			results = append(results, *best)
			vendorBestSum += best.Score
			vendorBestCount++
			if best.Score > bestAcross {
				bestAcross = best.Score
			}
		}

		set.Best[req.ID] = perVendor
		set.PerRequirement[req.ID] = results
		set.RequirementScores[req.ID] = bestAcross
		reqSum += bestAcross
	}

	if len(reqs) > 0 {
		set.OverallRequirementScore = reqSum / float64(len(reqs))
	}
	if vendorBestCount > 0 {
		set.OverallMatchScore = vendorBestSum / float64(vendorBestCount)
	}
	return set
}
