package ranking

import (
	"context"
	"testing"

	"github.com/jonathan/rfp-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *types.Catalog {
	return &types.Catalog{Vendors: []types.VendorCatalog{
		{Name: "Asian Paints", Products: []types.Product{
			exteriorProduct(),
			{ID: "AP002-B", Name: "Luxury Interior Silk", Category: "Interior", Finish: "Silk",
				Coverage: 120, Durability: 10, Cost: 320.75, Reliability: floatPtr(92), LeadTime: 5},
		}},
		{Name: "Empty Co"},
		{Name: "Nerolac", Products: []types.Product{
			{ID: "NP001-M", Name: "Excel Exterior", Category: "Exterior", Finish: "Sheen",
				Coverage: 130, Durability: 12, Cost: 275.90, Reliability: floatPtr(94), LeadTime: 8},
		}},
	}}
}

func TestEngineMatchAll_BestPerVendor(t *testing.T) {
	set := NewEngine(nil).MatchAll(context.Background(), []types.Requirement{exteriorRequirement()}, testCatalog())

	best, ok := set.BestFor("REQ_001", "Asian Paints")
	require.True(t, ok)
	assert.Equal(t, "AP001-A", best.ProductID)

	nerolac, ok := set.BestFor("REQ_001", "Nerolac")
	require.True(t, ok)
	assert.Equal(t, "Nerolac", nerolac.Vendor)

	_, ok = set.BestFor("REQ_001", "Empty Co")
	assert.False(t, ok)

	assert.Len(t, set.PerRequirement["REQ_001"], 2)
	assert.InDelta(t, best.Score, set.RequirementScores["REQ_001"], 1e-9)
	assert.InDelta(t, (best.Score+nerolac.Score)/2, set.OverallMatchScore, 1e-9)
	assert.InDelta(t, best.Score, set.OverallRequirementScore, 1e-9)
}

func TestEngineMatchAll_TieKeepsFirst(t *testing.T) {
	p1 := exteriorProduct()
	p2 := exteriorProduct()
	p2.ID = "AP001-B"
	catalog := &types.Catalog{Vendors: []types.VendorCatalog{{Name: "Asian Paints", Products: []types.Product{p1, p2}}}}

	set := NewEngine(nil).MatchAll(context.Background(), []types.Requirement{exteriorRequirement()}, catalog)
	best, ok := set.BestFor("REQ_001", "Asian Paints")
	require.True(t, ok)
	assert.Equal(t, "AP001-A", best.ProductID)
}

func TestEngineMatchAll_EmptyInputs(t *testing.T) {
	set := NewEngine(nil).MatchAll(context.Background(), nil, nil)
	assert.Equal(t, 0.0, set.OverallMatchScore)
	assert.Equal(t, 0.0, set.OverallRequirementScore)
}
