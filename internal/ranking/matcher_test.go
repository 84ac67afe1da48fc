package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/rfp-agent/internal/types"
	"github.com/stretchr/testify/assert"
)

type fixedSimilarity struct {
	value float64
	err   error
}

func (f fixedSimilarity) Similarity(_ context.Context, _, _ string) (float64, error) {
	return f.value, f.err
}

func exteriorRequirement() types.Requirement {
	return types.Requirement{
		ID:              "REQ_001",
		Area:            25000,
		Finish:          "Matt",
		Coverage:        floatPtr(130),
		MinDurability:   intPtr(10),
		ApplicationType: types.ApplicationExterior,
	}
}

func exteriorProduct() types.Product {
	return types.Product{
		ID: "AP001-A", Name: "Premium Exterior Emulsion", Vendor: "Asian Paints",
		Category: "Exterior", Finish: "Matt", Coverage: 140, Durability: 12,
		Cost: 285.50, Reliability: floatPtr(95), LeadTime: 7,
	}
}

func TestMatcherScore_ExteriorScenario(t *testing.T) {
	m := NewMatcher()
	res := m.Score(context.Background(), exteriorRequirement(), exteriorProduct())

	assert.Equal(t, 30.0, res.Details.Finish)
	assert.Equal(t, 25.0, res.Details.Coverage)
	assert.Equal(t, 20.0, res.Details.Durability)
	assert.Equal(t, 15.0, res.Details.Application)
	assert.InDelta(t, 9.5, res.Details.Reliability, 1e-9)
	assert.InDelta(t, 99.5, res.Score, 1e-9)
	assert.Equal(t, 0.95, res.Confidence)
	assert.Len(t, res.Reasons, 5)
	assert.Equal(t, "Asian Paints", res.Vendor)
}

func TestMatcherScore_WithoutApplication(t *testing.T) {
	p := exteriorProduct()
	p.Category = "Interior"
	res := NewMatcher().Score(context.Background(), exteriorRequirement(), p)
	assert.InDelta(t, 84.5, res.Score, 1e-9)
	assert.Equal(t, 0.90, res.Confidence)
}

func TestMatcherScore_SemanticBonusClamped(t *testing.T) {
	m := NewMatcher(WithSimilarity(fixedSimilarity{value: 1}))
	res := m.Score(context.Background(), exteriorRequirement(), exteriorProduct())
	assert.Equal(t, 5.0, res.Details.Semantic)
	assert.Equal(t, 100.0, res.Score)
}

func TestMatcherScore_SimilarityErrorIgnored(t *testing.T) {
	m := NewMatcher(WithSimilarity(fixedSimilarity{err: errors.New("timeout")}))
	res := m.Score(context.Background(), exteriorRequirement(), exteriorProduct())
	assert.Equal(t, 0.0, res.Details.Semantic)
	assert.InDelta(t, 99.5, res.Score, 1e-9)
}

func TestMatcherScore_Bounds(t *testing.T) {
	m := NewMatcher(WithSimilarity(fixedSimilarity{value: 7}))
	products := []types.Product{
		{},
		exteriorProduct(),
		{Finish: "Gloss", Coverage: -5, Durability: -1, Reliability: floatPtr(100)},
	}
	for _, p := range products {
		res := m.Score(context.Background(), exteriorRequirement(), p)
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 100.0)
	}
}

func TestMatcherScore_FinishDominance(t *testing.T) {
	req := exteriorRequirement()
	req.Finish = "SILK"
	p := exteriorProduct()
	p.Finish = "silk"
	res := NewMatcher().Score(context.Background(), req, p)
	assert.Equal(t, 30.0, res.Details.Finish)
}
