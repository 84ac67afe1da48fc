package pricing

import (
	"testing"

	"github.com/jonathan/rfp-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStrategy(t *testing.T) {
	a := &types.VendorQuote{Vendor: "A", FinalPrice: 100000, AvgReliability: 95, MaxLeadTime: 8, CompetitivenessScore: 85}
	b := &types.VendorQuote{Vendor: "B", FinalPrice: 80000, AvgReliability: 90, MaxLeadTime: 5, CompetitivenessScore: 70}

	s := BuildStrategy([]*types.VendorQuote{a, b}, a)
	require.NotNil(t, s)
	assert.Equal(t, 90000.0, s.AverageMarketPrice)
	assert.Equal(t, 80000.0, s.LowestPrice)
	assert.Equal(t, 100000.0, s.HighestPrice)
	assert.Equal(t, types.PositionStrong, s.MarketPosition)
	assert.InDelta(t, 11.11, s.PriceAdvantagePct, 0.001)
	assert.Equal(t, 115000.0, s.RushPrice)
	require.Len(t, s.Recommendations, 3)
	assert.Contains(t, s.Recommendations[0], "B offers lowest cost")
	assert.Contains(t, s.Recommendations[1], "A provides highest reliability")
	assert.Contains(t, s.Recommendations[2], "B offers fastest delivery in 5 days")
}

func TestBuildStrategy_Empty(t *testing.T) {
	assert.Nil(t, BuildStrategy(nil, nil))
}

func TestMarketPosition(t *testing.T) {
	assert.Equal(t, types.PositionStrong, marketPosition(80.1))
	assert.Equal(t, types.PositionModerate, marketPosition(80))
	assert.Equal(t, types.PositionWeak, marketPosition(60))
}
