package pricing

import (
	"fmt"
	"math"

	"github.com/jonathan/rfp-agent/internal/types"
)

const rushOrderMultiplier = 1.15

// BuildStrategy summarises the market across quotes relative to the recommended one.
func BuildStrategy(quotes []*types.VendorQuote, recommended *types.VendorQuote) *types.Strategy {
	if len(quotes) == 0 {
		return nil
	}
	s := &types.Strategy{LowestPrice: math.Inf(1), HighestPrice: math.Inf(-1)}

	var sum float64
	cheapest, reliable, fastest := quotes[0], quotes[0], quotes[0]
	for _, q := range quotes {
		sum += q.FinalPrice
		s.LowestPrice = math.Min(s.LowestPrice, q.FinalPrice)
		s.HighestPrice = math.Max(s.HighestPrice, q.FinalPrice)
		if q.FinalPrice < cheapest.FinalPrice {
			cheapest = q
		}
		if q.AvgReliability > reliable.AvgReliability {
			reliable = q
		}
		if q.MaxLeadTime < fastest.MaxLeadTime {
			fastest = q
		}
	}
	s.AverageMarketPrice = round2(sum / float64(len(quotes)))
	if s.AverageMarketPrice > 0 {
		s.PriceAdvantagePct = round2((s.AverageMarketPrice - s.LowestPrice) / s.AverageMarketPrice * 100)
	}

	if recommended != nil {
		s.MarketPosition = marketPosition(recommended.CompetitivenessScore)
		s.RushPrice = round2(recommended.FinalPrice * rushOrderMultiplier)
	}

	s.Recommendations = []string{
		fmt.Sprintf("%s offers lowest cost at $%.2f", cheapest.Vendor, cheapest.FinalPrice),
		fmt.Sprintf("%s provides highest reliability at %.1f%%", reliable.Vendor, reliable.AvgReliability),
		fmt.Sprintf("%s offers fastest delivery in %d days", fastest.Vendor, fastest.MaxLeadTime),
	}
	return s
}

func marketPosition(score float64) types.MarketPosition {
	switch {
	case score > 80:
		return types.PositionStrong
	case score > 60:
		return types.PositionModerate
	default:
		return types.PositionWeak
	}
}
