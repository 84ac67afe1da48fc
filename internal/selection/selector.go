package selection

import (
	"sort"

	"github.com/jonathan/rfp-agent/internal/types"
)

// Select ranks quotes by competitiveness and reports the cheapest, most
// reliable and fastest vendors alongside the recommendation.
//
// Ranking ties fall back to the lower final price, then vendor name.
func Select(quotes []*types.VendorQuote) (*types.Selection, error) {
	candidates := make([]*types.VendorQuote, 0, len(quotes))
	for _, q := range quotes {
		if q != nil {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		return nil, &Error{Message: "vendor selection failed", Cause: ErrNoCandidates}
	}

	ranked := make([]*types.VendorQuote, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.CompetitivenessScore != b.CompetitivenessScore {
			return a.CompetitivenessScore > b.CompetitivenessScore
		}
		if a.FinalPrice != b.FinalPrice {
			return a.FinalPrice < b.FinalPrice
		}
		return a.Vendor < b.Vendor
	})

	sel := &types.Selection{
		RecommendedVendor: ranked[0].Vendor,
		Recommended:       ranked[0],
		Ranking:           make([]string, 0, len(ranked)),
	}
	for _, q := range ranked {
		sel.Ranking = append(sel.Ranking, q.Vendor)
	}

	sel.Cheapest = pick(candidates, func(a, b *types.VendorQuote) bool { return a.FinalPrice < b.FinalPrice })
	sel.MostReliable = pick(candidates, func(a, b *types.VendorQuote) bool { return a.AvgReliability > b.AvgReliability })
	sel.Fastest = pick(candidates, func(a, b *types.VendorQuote) bool { return a.MaxLeadTime < b.MaxLeadTime })
	return sel, nil
}

// pick returns the vendor that wins under better, breaking ties by name.
func pick(quotes []*types.VendorQuote, better func(a, b *types.VendorQuote) bool) string {
	best := quotes[0]
	for _, q := range quotes[1:] {
		if better(q, best) || (!better(best, q) && q.Vendor < best.Vendor) {
			best = q
		}
	}
	return best.Vendor
}
