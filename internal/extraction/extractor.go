// Package extraction turns free RFP text into structured paint requirements.
package extraction

import (
	"context"
	"time"

	"github.com/jonathan/rfp-agent/internal/logger"
	"github.com/jonathan/rfp-agent/internal/types"
	"github.com/jonathan/rfp-agent/internal/validation"
)

// Slot defaults used when the RFP does not state a figure.
const (
	DefaultExteriorArea     = 25000.0
	DefaultInteriorArea     = 20000.0
	DefaultExteriorCoverage = 130.0
	DefaultInteriorCoverage = 110.0
	DefaultInteriorLabor    = 3000.0
	DefaultTotalArea        = 50000.0
	DefaultFallbackDeadline = "2024-12-15"
	DefaultEntityTimeout    = 20 * time.Second

	exteriorDurability = 10
	interiorDurability = 8
)

// EntityExtractor is an upstream service that pulls entities out of RFP text.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) (*types.ExtractedEntities, error)
}

// Extractor builds RFPData from text and optional pre-extracted entities.
type Extractor struct {
	entities         EntityExtractor
	timeout          time.Duration
	fallbackDeadline string
	log              logger.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithEntityExtractor consults ex when the caller supplies no entities.
func WithEntityExtractor(ex EntityExtractor) Option {
	return func(x *Extractor) { x.entities = ex }
}

// WithTimeout bounds the entity extractor call.
func WithTimeout(d time.Duration) Option {
	return func(x *Extractor) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithFallbackDeadline sets the YYYY-MM-DD deadline used when none is found.
func WithFallbackDeadline(date string) Option {
	return func(x *Extractor) {
		if date != "" {
			x.fallbackDeadline = date
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(x *Extractor) {
		if l != nil {
			x.log = l
		}
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	x := &Extractor{
		timeout:          DefaultEntityTimeout,
		fallbackDeadline: DefaultFallbackDeadline,
		log:              logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract never fails. Missing figures fall back to patterns found in the
// text and then to fixed defaults.
func (x *Extractor) Extract(ctx context.Context, text string, entities *types.ExtractedEntities) types.RFPData {
	if entities.Empty() && x.entities != nil {
		entities = x.consult(ctx, text)
	}
	patterns := ExtractEntities(text)
	merged, source := merge(entities, patterns)

	reqs := []types.Requirement{
		{
			ID:              "REQ_001",
			Area:            pick(merged.Areas, 0, DefaultExteriorArea),
			Finish:          "Matt",
			Coverage:        floatPtr(pick(merged.Coverages, 0, DefaultExteriorCoverage)),
			MinDurability:   intPtr(exteriorDurability),
			ApplicationType: types.ApplicationExterior,
		},
		{
			ID:              "REQ_002",
			Area:            pick(merged.Areas, 1, DefaultInteriorArea),
			Finish:          "Silk",
			Coverage:        floatPtr(DefaultInteriorCoverage),
			MinDurability:   intPtr(interiorDurability),
			LaborFee:        pick(merged.Costs, 0, DefaultInteriorLabor),
			ApplicationType: types.ApplicationInterior,
		},
	}

	total := 0.0
	for _, a := range merged.Areas {
		total += a
	}
	if total == 0 {
		total = DefaultTotalArea
	}

	data := types.RFPData{
		TotalArea:      total,
		Requirements:   reqs,
		Materials:      merged.Materials,
		Certifications: merged.Certifications,
		Urgency:        DetectUrgency(text),
		Complexity:     AnalyzeComplexity(text, merged),
		Source:         source,
	}
	data.DeadlineRaw, data.Deadline = x.deadline(merged.Dates)
	return data
}

func (x *Extractor) consult(ctx context.Context, text string) *types.ExtractedEntities {
	cctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	guarded, _ := validation.Guard(text, "rfp", x.log)
	e, err := x.entities.Extract(cctx, guarded)
	if err != nil {
		x.log.WithError(err).Warn("entity extractor failed, using text patterns", nil)
		return nil
	}
	return e
}

func (x *Extractor) deadline(dates []string) (string, *time.Time) {
	for _, d := range dates {
		iso, t, err := NormalizeDate(d)
		if err == nil {
			return iso, &t
		}
		x.log.Debug("skipping unparseable deadline", map[string]interface{}{"value": d})
	}
	iso, t, err := NormalizeDate(x.fallbackDeadline)
	if err != nil {
		x.log.WithError(err).Warn("invalid fallback deadline", nil)
		return x.fallbackDeadline, nil
	}
	return iso, &t
}

// merge takes each list from the entities when non-empty, else from the
// text patterns.
func merge(entities, patterns *types.ExtractedEntities) (*types.ExtractedEntities, string) {
	if entities == nil {
		entities = &types.ExtractedEntities{}
	}
	fromEntities, fromPatterns := false, false
	floats := func(e, p []float64) []float64 {
		if len(e) > 0 {
			fromEntities = true
			return e
		}
		if len(p) > 0 {
			fromPatterns = true
		}
		return p
	}
	strs := func(e, p []string) []string {
		if len(e) > 0 {
			fromEntities = true
			return e
		}
		if len(p) > 0 {
			fromPatterns = true
		}
		return p
	}

	out := &types.ExtractedEntities{
		Areas:          floats(entities.Areas, patterns.Areas),
		Coverages:      floats(entities.Coverages, patterns.Coverages),
		Costs:          floats(entities.Costs, patterns.Costs),
		Dates:          strs(entities.Dates, patterns.Dates),
		Finishes:       entities.Finishes,
		Materials:      strs(entities.Materials, patterns.Materials),
		Certifications: strs(entities.Certifications, patterns.Certifications),
	}

	switch {
	case fromEntities:
		return out, types.SourceEntities
	case fromPatterns:
		return out, types.SourcePatterns
	default:
		return out, types.SourceDefaults
	}
}

func pick(vals []float64, i int, def float64) float64 {
	if i < len(vals) && vals[i] > 0 {
		return vals[i]
	}
	return def
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
