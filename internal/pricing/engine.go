package pricing

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/rfp-agent/internal/types"
)

// Pricing constants.
const (
	overheadPerSqFt  = 0.50
	markupPercentage = 0.20

	// defaultReliability and defaultLeadTime fill gaps in sparse catalog entries.
	defaultReliability = 90.0
	defaultLeadTime    = 7

	defaultConcurrency = 4
)

// Config controls the pricing engine.
type Config struct {
	TestPolicy  TestPolicy
	Concurrency int
}

// Engine prices vendor quotes.
type Engine struct {
	cfg Config
}

// NewEngine returns an Engine with defaults filled in.
func NewEngine(cfg Config) *Engine {
	if cfg.TestPolicy == "" {
		cfg.TestPolicy = TestsRequiredOnly
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Engine{cfg: cfg}
}

// Price builds a vendor's quote for all requirements. It fails with an error
// wrapping ErrVendorInvalid when any requirement lacks a usable product.
func (e *Engine) Price(vendor string, reqs []types.Requirement, matches *types.MatchSet, catalog *types.Catalog) (*types.VendorQuote, error) {
	quote := &types.VendorQuote{Vendor: vendor, Items: make([]types.VendorQuoteItem, 0, len(reqs))}

	var reliabilitySum float64
	for _, req := range reqs {
		match, ok := matches.BestFor(req.ID, vendor)
		if !ok {
			return nil, &NoMatchError{Vendor: vendor, RequirementID: req.ID}
		}
		product, ok := catalog.Product(vendor, match.ProductID)
		if !ok {
			return nil, &NoMatchError{Vendor: vendor, RequirementID: req.ID}
		}
		if product.Coverage <= 0 || math.IsNaN(product.Coverage) {
			return nil, &ZeroCoverageError{Vendor: vendor, ProductID: product.ID}
		}

		units := req.Area / product.Coverage
		material := units * product.Cost
		testing, tests := testingCost(req, e.cfg.TestPolicy)

		quote.Items = append(quote.Items, types.VendorQuoteItem{
			RequirementID: req.ID,
			ProductID:     product.ID,
			ProductName:   product.Name,
			UnitsNeeded:   units,
			MaterialCost:  material,
			LaborCost:     req.LaborFee,
			TestingCost:   testing,
			Tests:         tests,
			MatchScore:    match.Score,
		})

		quote.MaterialCost += material
		quote.LaborCost += req.LaborFee
		quote.TestingCost += testing
		quote.TotalArea += req.Area

		rel := defaultReliability
		if product.Reliability != nil {
			rel = *product.Reliability
		}
		reliabilitySum += rel

		lead := product.LeadTime
		if lead <= 0 {
			lead = defaultLeadTime
		}
		quote.MaxLeadTime = max(quote.MaxLeadTime, lead)
	}

	if len(quote.Items) > 0 {
		quote.AvgReliability = reliabilitySum / float64(len(quote.Items))
	}
	quote.DiscountRate = DiscountRate(quote.TotalArea)
	quote.VolumeDiscount = quote.MaterialCost * quote.DiscountRate
	quote.OverheadCost = quote.TotalArea * overheadPerSqFt

	gross := quote.MaterialCost + quote.LaborCost + quote.TestingCost + quote.OverheadCost - quote.VolumeDiscount
	quote.FinalPrice = round2(math.Max(0, gross*(1+markupPercentage)))
	quote.CompetitivenessScore = Competitiveness(quote.FinalPrice, quote.AvgReliability, quote.MaxLeadTime)
	return quote, nil
}

// Competitiveness blends price, reliability and lead time into a 0-100 score.
func Competitiveness(finalPrice, avgReliability float64, maxLeadTime int) float64 {
	priceScore := math.Max(0, 100-finalPrice/1000)
	timeScore := math.Max(0, 100-float64(maxLeadTime)*2)
	return priceScore*0.4 + avgReliability*0.4 + timeScore*0.2
}

// Result holds the quotes of every vendor that could be priced.
type Result struct {
	Quotes map[string]*types.VendorQuote
	// Vendors lists quoted vendors sorted by name.
	Vendors []string
	Dropped map[string]error
}

// SortedQuotes returns the quotes ordered by vendor name.
func (r *Result) SortedQuotes() []*types.VendorQuote {
	out := make([]*types.VendorQuote, 0, len(r.Vendors))
	for _, v := range r.Vendors {
		out = append(out, r.Quotes[v])
	}
	return out
}

// PriceAll prices vendors concurrently. Invalid vendors are dropped and
// reported; ErrNoQuotesAvailable is returned when none remain.
func (e *Engine) PriceAll(ctx context.Context, vendors []string, reqs []types.Requirement, matches *types.MatchSet, catalog *types.Catalog) (*Result, error) {
	res := &Result{
		Quotes:  make(map[string]*types.VendorQuote, len(vendors)),
		Dropped: make(map[string]error),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for _, vendor := range vendors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			quote, err := e.Price(vendor, reqs, matches, catalog)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Dropped[vendor] = err
				return nil
			}
			res.Quotes[vendor] = quote
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for v := range res.Quotes {
		res.Vendors = append(res.Vendors, v)
	}
	sort.Strings(res.Vendors)

	if len(res.Vendors) == 0 {
		return res, ErrNoQuotesAvailable
	}
	return res, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
