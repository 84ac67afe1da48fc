package ranking

import (
	"context"

	"github.com/jonathan/rfp-agent/internal/logger"
	"github.com/jonathan/rfp-agent/internal/types"
)

// Similarity scores two descriptions in [0,1].
type Similarity interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Matcher scores a requirement against a product using the five-factor rubric
// plus an optional semantic bonus.
type Matcher struct {
	similarity Similarity
	log        logger.Logger
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithSimilarity enables the semantic bonus.
func WithSimilarity(s Similarity) MatcherOption {
	return func(m *Matcher) { m.similarity = s }
}

// WithLogger sets the matcher logger.
func WithLogger(l logger.Logger) MatcherOption {
	return func(m *Matcher) { m.log = l }
}

// NewMatcher returns a Matcher. Without WithSimilarity no bonus is applied.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{log: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Score returns the match of product against req. It never fails; a failing
// similarity backend simply contributes no bonus.
func (m *Matcher) Score(ctx context.Context, req types.Requirement, product types.Product) types.MatchResult {
	var d types.MatchDetails
	reasons := make([]string, 0, 6)

	var reason string
	d.Finish, reason = computeFinishScore(req.Finish, product.Finish)
	reasons = append(reasons, reason)
	d.Coverage, reason = computeCoverageScore(req.Coverage, product.Coverage)
	reasons = append(reasons, reason)
	d.Durability, reason = computeDurabilityScore(req.MinDurability, product.Durability)
	reasons = append(reasons, reason)
	d.Application, reason = computeApplicationScore(req.ApplicationType, product.Category)
	reasons = append(reasons, reason)
	d.Reliability, reason = computeReliabilityScore(product.Reliability)
	reasons = append(reasons, reason)

	if m.similarity != nil {
		sim, err := m.similarity.Similarity(ctx, requirementText(req), productText(product))
		if err != nil {
			m.log.Debug("semantic similarity unavailable", map[string]interface{}{
				"requirement": req.ID,
				"product":     product.ID,
				"error":       err.Error(),
			})
		} else {
			d.Semantic = semanticBonusMax * clamp(sim, 0, 1)
			if d.Semantic > 0 {
				reasons = append(reasons, "Semantic description match bonus")
			}
		}
	}

	score := clamp(d.Finish+d.Coverage+d.Durability+d.Application+d.Reliability+d.Semantic, 0, 100)
	return types.MatchResult{
		RequirementID: req.ID,
		ProductID:     product.ID,
		ProductName:   product.Name,
		Vendor:        product.Vendor,
		Score:         score,
		Details:       d,
		Reasons:       reasons,
		Confidence:    confidenceFor(score),
	}
}
