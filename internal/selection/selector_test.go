package selection

import (
	"errors"
	"testing"

	"github.com/jonathan/rfp-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quote(vendor string, score, price, rel float64, lead int) *types.VendorQuote {
	return &types.VendorQuote{
		Vendor:               vendor,
		CompetitivenessScore: score,
		FinalPrice:           price,
		AvgReliability:       rel,
		MaxLeadTime:          lead,
	}
}

func TestSelect_HighestCompetitivenessWins(t *testing.T) {
	sel, err := Select([]*types.VendorQuote{
		quote("Nerolac", 60, 90000, 94, 8),
		quote("Asian Paints", 70, 120000, 95, 7),
		quote("Berger", 50, 80000, 88, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, "Asian Paints", sel.RecommendedVendor)
	assert.Equal(t, []string{"Asian Paints", "Nerolac", "Berger"}, sel.Ranking)
	assert.Equal(t, "Berger", sel.Cheapest)
	assert.Equal(t, "Asian Paints", sel.MostReliable)
	assert.Equal(t, "Berger", sel.Fastest)
}

func TestSelect_TieBreakOnPriceThenName(t *testing.T) {
	sel, err := Select([]*types.VendorQuote{
		quote("Zeta", 70, 100000, 90, 5),
		quote("Alpha", 70, 100000, 90, 5),
		quote("Mid", 70, 90000, 90, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, "Mid", sel.RecommendedVendor)
	assert.Equal(t, []string{"Mid", "Alpha", "Zeta"}, sel.Ranking)
	assert.Equal(t, "Alpha", sel.MostReliable)
	assert.Equal(t, "Alpha", sel.Fastest)
}

func TestSelect_OrderIndependent(t *testing.T) {
	a := quote("A", 65, 100, 90, 5)
	b := quote("B", 65, 100, 90, 5)
	first, err := Select([]*types.VendorQuote{a, b})
	require.NoError(t, err)
	second, err := Select([]*types.VendorQuote{b, a})
	require.NoError(t, err)
	assert.Equal(t, first.RecommendedVendor, second.RecommendedVendor)
	assert.Equal(t, "A", first.RecommendedVendor)
}

func TestSelect_Empty(t *testing.T) {
	_, err := Select(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCandidates))

	_, err = Select([]*types.VendorQuote{nil})
	assert.ErrorIs(t, err, ErrNoCandidates)
}
