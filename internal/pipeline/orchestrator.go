// Package pipeline runs the RFP stages in order and records every decision.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/rfp-agent/internal/audit"
	"github.com/jonathan/rfp-agent/internal/db"
	"github.com/jonathan/rfp-agent/internal/escalation"
	"github.com/jonathan/rfp-agent/internal/extraction"
	"github.com/jonathan/rfp-agent/internal/history"
	"github.com/jonathan/rfp-agent/internal/logger"
	"github.com/jonathan/rfp-agent/internal/memory"
	"github.com/jonathan/rfp-agent/internal/metrics"
	"github.com/jonathan/rfp-agent/internal/observability"
	"github.com/jonathan/rfp-agent/internal/pricing"
	"github.com/jonathan/rfp-agent/internal/ranking"
	"github.com/jonathan/rfp-agent/internal/selection"
	"github.com/jonathan/rfp-agent/internal/types"
	"github.com/jonathan/rfp-agent/internal/winprob"
)

// Agents named in the audit trail.
const (
	AgentOrchestrator = "Orchestrator"
	AgentExtractor    = "RequirementExtractor"
	AgentMatcher      = "VendorMatchEngine"
	AgentPricing      = "PricingEngine"
	AgentSelector     = "VendorSelector"
	AgentEstimator    = "WinProbabilityEstimator"
	AgentEscalation   = "ConfidenceEscalation"
)

// Audit stages.
const (
	StageWorkflowStarted       = "Workflow Started"
	StageProcessingStarted     = "Processing Started"
	StageProcessingComplete    = "Processing Complete"
	StageMatchingStarted       = "Matching Started"
	StageMatchingComplete      = "Matching Complete"
	StagePricingStarted        = "Pricing Started"
	StagePricingComplete       = "Pricing Complete"
	StageSelectionComplete     = "Selection Complete"
	StageWinProbability        = "Win Probability Calculated"
	StageEscalationRequested   = "Escalation Requested"
	StageOrchestrationComplete = "Orchestration Complete"
	StageWorkflowFailed        = "Workflow Failed"
	StageWorkflowCancelled     = "Workflow Cancelled"
)

// Step names used for progress, run steps, spans and stage metrics.
const (
	StepExtraction = "extraction"
	StepMatching   = "matching"
	StepPricing    = "pricing"
	StepSelection  = "selection"
	StepEstimation = "estimation"
	StepEscalation = "escalation"
	StepMemory     = "memory"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds the input of one run.
type RunOptions struct {
	Title string
	Text  string
	// Entities, when set, are used instead of consulting the entity extractor.
	Entities   *types.ExtractedEntities
	OnProgress ProgressCallback
}

// Deps are the collaborators of an Orchestrator. Only Catalog is required;
// the rest fall back to in-process defaults or are skipped when nil.
type Deps struct {
	Catalog   *types.Catalog
	Extractor *extraction.Extractor
	Matcher   *ranking.Engine
	Pricing   *pricing.Engine
	Estimator *winprob.Estimator
	History   history.Provider
	Audit     audit.Sink

	Memory    *memory.LearningMemory
	Evaluator *escalation.Evaluator
	Notifier  escalation.Notifier
	Runs      RunStore
	Metrics   *metrics.Manager
	Tracer    *observability.Tracer
	Logger    logger.Logger

	NewID func() string
	Now   func() time.Time
}

// Orchestrator runs the extraction to win-probability pipeline.
type Orchestrator struct {
	d Deps
}

// New fills defaults into d and returns an Orchestrator.
func New(d Deps) *Orchestrator {
	if d.Extractor == nil {
		d.Extractor = extraction.New()
	}
	if d.Matcher == nil {
		d.Matcher = ranking.NewEngine(ranking.NewMatcher())
	}
	if d.Pricing == nil {
		d.Pricing = pricing.NewEngine(pricing.Config{})
	}
	if d.Estimator == nil {
		d.Estimator = winprob.New()
	}
	if d.History == nil {
		d.History = history.NewMemoryStore()
	}
	if d.Audit == nil {
		d.Audit = audit.NewMemoryLog()
	}
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Orchestrator{d: d}
}

// Catalog returns the catalog runs are priced against.
func (o *Orchestrator) Catalog() *types.Catalog {
	return o.d.Catalog
}

// Extractor returns the requirement extractor used by the first stage.
func (o *Orchestrator) Extractor() *extraction.Extractor {
	return o.d.Extractor
}

// Audit returns the sink runs write to.
func (o *Orchestrator) Audit() audit.Sink {
	return o.d.Audit
}

// Runs returns the run store, or nil when runs are not persisted.
func (o *Orchestrator) Runs() RunStore {
	return o.d.Runs
}

// Run executes every stage and never returns an error: failures, panics and
// cancellation are reported through the result status.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) *types.RunResult {
	r := &run{
		o:    o,
		opts: opts,
		log:  o.d.Logger,
		res: &types.RunResult{
			RunID:     o.d.NewID(),
			Title:     opts.Title,
			StartedAt: o.d.Now().UTC(),
		},
	}
	r.log = r.log.WithFields(map[string]interface{}{"run_id": r.res.RunID})

	ctx, span := o.d.Tracer.StartStage(ctx, "rfp.run", observability.RunAttrs(r.res.RunID, opts.Title)...)

	if o.d.Runs != nil {
		if err := o.d.Runs.CreateRun(context.WithoutCancel(ctx), r.res.RunID, opts.Title); err != nil {
			r.log.WithError(err).Warn("failed to persist run", nil)
		}
	}

	err := r.execute(ctx)
	r.finish(ctx, err)
	observability.EndStage(span, err)
	return r.res
}

// run holds the state of one orchestrator invocation.
type run struct {
	o    *Orchestrator
	opts RunOptions
	res  *types.RunResult
	log  logger.Logger
}

func (r *run) execute(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()

	if r.o.d.Catalog == nil {
		return ErrNoCatalog
	}

	r.audit(ctx, AgentOrchestrator, StageWorkflowStarted, "Starting RFP processing workflow", map[string]any{
		"title":       r.res.Title,
		"text_length": len(r.opts.Text),
		"vendors":     len(r.o.d.Catalog.Vendors),
	})

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StepExtraction, r.extract},
		{StepMatching, r.match},
		{StepPricing, r.price},
		{StepSelection, r.selectVendor},
		{StepEstimation, r.estimate},
	}
	for _, s := range stages {
		if err := r.stage(ctx, s.name, s.fn); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	r.res.Status = types.RunCompleted
	r.escalate(ctx)
	r.remember(ctx)
	r.recordBid(ctx)

	r.audit(ctx, AgentOrchestrator, StageOrchestrationComplete, "All agents completed successfully", map[string]any{
		"recommended_vendor":  r.res.Selection.RecommendedVendor,
		"final_price":         r.res.Selection.Recommended.FinalPrice,
		"win_probability":     r.res.WinProbability.Probability,
		"overall_match_score": r.res.OverallMatchScore,
		"review_required":     r.res.Review != nil && r.res.Review.Required,
	})
	return nil
}

// stage runs fn between cancellation checks, wrapped in a span, a run step
// and a duration metric. Panics inside fn become stage errors.
func (r *run) stage(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := r.o.d.Tracer.StartStage(ctx, name)
	start := time.Now()
	r.startStep(ctx, name)

	defer func() {
		if p := recover(); p != nil {
			err = &StageError{Stage: name, Cause: &PanicError{Value: p}}
		}
		if r.o.d.Metrics != nil {
			r.o.d.Metrics.ObserveStage(name, time.Since(start))
		}
		r.finishStep(ctx, name, err)
		observability.EndStage(span, err)
	}()

	if err := fn(ctx); err != nil {
		if isCancellation(err) {
			return err
		}
		return &StageError{Stage: name, Cause: err}
	}
	return ctx.Err()
}

func (r *run) extract(ctx context.Context) error {
	r.audit(ctx, AgentExtractor, StageProcessingStarted, "Extracting requirements from RFP text", map[string]any{
		"entities_supplied": !r.opts.Entities.Empty(),
	})

	rfp := r.o.d.Extractor.Extract(ctx, r.opts.Text, r.opts.Entities)
	r.res.RFP = &rfp
	if r.o.d.Metrics != nil {
		r.o.d.Metrics.RecordExtractionSource(rfp.Source)
	}

	r.audit(ctx, AgentExtractor, StageProcessingComplete,
		fmt.Sprintf("Extracted %d requirements from %s", len(rfp.Requirements), rfp.Source),
		map[string]any{
			"requirements": len(rfp.Requirements),
			"total_area":   rfp.TotalArea,
			"deadline":     rfp.DeadlineRaw,
			"source":       rfp.Source,
			"urgency":      rfp.Urgency.Level,
			"complexity":   rfp.Complexity.Level,
		})
	r.save(ctx, db.StepRFPData, r.res.RFP)
	r.progress(db.StepRFPData, fmt.Sprintf("Extracted %d requirements", len(rfp.Requirements)), r.res.RFP)
	return nil
}

func (r *run) match(ctx context.Context) error {
	reqs := r.res.RFP.Requirements
	r.audit(ctx, AgentMatcher, StageMatchingStarted, "Matching requirements to vendor products", map[string]any{
		"requirements": len(reqs),
		"vendors":      r.o.d.Catalog.VendorNames(),
	})

	matches := r.o.d.Matcher.MatchAll(ctx, reqs, r.o.d.Catalog)
	r.res.Matches = matches
	r.res.OverallMatchScore = matches.OverallMatchScore

	r.audit(ctx, AgentMatcher, StageMatchingComplete,
		fmt.Sprintf("Overall match score %.1f", matches.OverallMatchScore),
		map[string]any{
			"overall_match_score":       matches.OverallMatchScore,
			"overall_requirement_score": matches.OverallRequirementScore,
			"requirement_scores":        matches.RequirementScores,
		})
	r.save(ctx, db.StepMatches, matches)
	r.progress(db.StepMatches, fmt.Sprintf("Overall match score %.1f", matches.OverallMatchScore), matches)
	return nil
}

func (r *run) price(ctx context.Context) error {
	vendors := r.o.d.Catalog.VendorNames()
	r.audit(ctx, AgentPricing, StagePricingStarted, "Pricing vendor quotes", map[string]any{
		"vendors": vendors,
	})

	result, err := r.o.d.Pricing.PriceAll(ctx, vendors, r.res.RFP.Requirements, r.res.Matches, r.o.d.Catalog)
	if result != nil && len(result.Dropped) > 0 {
		r.res.DroppedVendors = make(map[string]string, len(result.Dropped))
		for vendor, dropErr := range result.Dropped {
			r.res.DroppedVendors[vendor] = dropErr.Error()
			r.log.Warn("vendor excluded from quoting", map[string]interface{}{"vendor": vendor, "reason": dropErr.Error()})
			if r.o.d.Metrics != nil {
				r.o.d.Metrics.RecordVendorDropped(dropReason(dropErr))
			}
		}
	}
	if err != nil {
		return err
	}

	r.res.VendorQuotes = result.Quotes
	prices := make(map[string]float64, len(result.Quotes))
	for v, q := range result.Quotes {
		prices[v] = q.FinalPrice
	}
	r.audit(ctx, AgentPricing, StagePricingComplete,
		fmt.Sprintf("Priced %d of %d vendors", len(result.Vendors), len(vendors)),
		map[string]any{
			"quoted":       result.Vendors,
			"final_prices": prices,
			"dropped":      r.res.DroppedVendors,
		})
	r.save(ctx, db.StepVendorQuotes, result.Quotes)
	r.progress(db.StepVendorQuotes, fmt.Sprintf("Priced %d vendors", len(result.Vendors)), result.Quotes)
	return nil
}

func (r *run) selectVendor(ctx context.Context) error {
	quotes := sortedQuotes(r.res.VendorQuotes)
	sel, err := selection.Select(quotes)
	if err != nil {
		return err
	}
	r.res.Selection = sel
	r.res.Strategy = pricing.BuildStrategy(quotes, sel.Recommended)

	r.audit(ctx, AgentSelector, StageSelectionComplete,
		fmt.Sprintf("Recommended %s at %.2f", sel.RecommendedVendor, sel.Recommended.FinalPrice),
		map[string]any{
			"recommended_vendor":    sel.RecommendedVendor,
			"final_price":           sel.Recommended.FinalPrice,
			"competitiveness_score": sel.Recommended.CompetitivenessScore,
			"cheapest":              sel.Cheapest,
			"most_reliable":         sel.MostReliable,
			"fastest":               sel.Fastest,
			"market_position":       r.res.Strategy.MarketPosition,
		})
	r.save(ctx, db.StepSelection, sel)
	r.save(ctx, db.StepStrategy, r.res.Strategy)
	r.progress(db.StepSelection, "Recommended "+sel.RecommendedVendor, sel)
	return nil
}

func (r *run) estimate(ctx context.Context) error {
	records, err := r.o.d.History.Records(ctx)
	if err != nil {
		if isCancellation(err) {
			return err
		}
		// History is advisory; the estimate falls back to its baseline.
		r.log.WithError(err).Warn("historical records unavailable", nil)
		records = nil
	}

	overall := r.res.OverallMatchScore
	est := r.o.d.Estimator.Estimate(winprob.Input{
		OverallMatchScore: &overall,
		Quote:             r.res.Selection.Recommended,
		Deadline:          r.res.RFP.Deadline,
		History:           records,
		Vendor:            r.res.Selection.RecommendedVendor,
	})
	r.res.WinProbability = &est
	if r.o.d.Metrics != nil {
		r.o.d.Metrics.ObserveWinProbability(est.Probability)
	}

	r.audit(ctx, AgentEstimator, StageWinProbability,
		fmt.Sprintf("Win probability %d%% (%s)", est.Probability, est.RecommendationBand),
		map[string]any{
			"probability": est.Probability,
			"band":        est.RecommendationBand,
			"confidence":  est.Confidence,
			"risk_level":  est.RiskLevel,
			"factors":     est.Factors,
		})
	r.save(ctx, db.StepWinProbability, est)
	r.progress(db.StepWinProbability, fmt.Sprintf("Win probability %d%%", est.Probability), est)
	return nil
}

// escalate reviews a completed run. Notification failures are logged only.
func (r *run) escalate(ctx context.Context) {
	if r.o.d.Evaluator == nil {
		return
	}
	review := r.o.d.Evaluator.Evaluate(r.res)
	r.res.Review = &review
	r.save(ctx, db.StepReview, review)
	r.progress(db.StepReview, review.Summary, review)

	if !review.Required {
		return
	}
	if r.o.d.Metrics != nil {
		r.o.d.Metrics.RecordEscalation(review.Priority)
	}
	r.audit(ctx, AgentEscalation, StageEscalationRequested, review.Summary, map[string]any{
		"priority":   review.Priority,
		"confidence": review.Confidence,
		"issues":     len(review.Issues),
	})
	r.log.Info("run escalated for human review", map[string]interface{}{
		"priority": review.Priority,
		"issues":   len(review.Issues),
	})
	if r.o.d.Notifier == nil {
		return
	}
	n := escalation.Notification{RunID: r.res.RunID, Title: r.res.Title, Review: review}
	if err := r.o.d.Notifier.Notify(context.WithoutCancel(ctx), n); err != nil {
		r.log.WithError(err).Warn("failed to send review notification", nil)
	}
}

// remember recalls similar past runs, then stores this one.
func (r *run) remember(ctx context.Context) {
	if r.o.d.Memory == nil {
		return
	}
	similar, err := r.o.d.Memory.Recall(ctx, r.res, memory.DefaultLimit)
	if err != nil {
		r.log.WithError(err).Warn("failed to recall similar runs", nil)
	} else {
		insights := memory.Summarize(similar)
		r.progress(StepMemory, fmt.Sprintf("Found %d similar past RFPs", insights.SimilarCount), insights)
	}
	if _, err := r.o.d.Memory.Remember(context.WithoutCancel(ctx), r.res); err != nil {
		r.log.WithError(err).Warn("failed to remember run", nil)
	}
}

// recordBid appends the recommended bid to the history as pending.
func (r *run) recordBid(ctx context.Context) {
	sel := r.res.Selection
	if sel == nil || sel.Recommended == nil {
		return
	}
	rec := types.HistoricalRecord{
		ID:          r.res.RunID,
		RFPTitle:    r.res.Title,
		Vendor:      sel.RecommendedVendor,
		FinalPrice:  sel.Recommended.FinalPrice,
		MatchScore:  r.res.OverallMatchScore,
		Status:      types.StatusPending,
		SubmittedAt: r.o.d.Now().UTC(),
	}
	if r.res.RFP != nil {
		rec.Area = r.res.RFP.TotalArea
	}
	if err := r.o.d.History.Append(context.WithoutCancel(ctx), rec); err != nil {
		r.log.WithError(err).Warn("failed to record bid in history", map[string]interface{}{
			"vendor": rec.Vendor,
		})
	}
}

func (r *run) finish(ctx context.Context, err error) {
	switch {
	case err == nil:
		r.res.Status = types.RunCompleted
	case isCancellation(err) || ctx.Err() != nil:
		r.res.Status = types.RunCancelled
		r.res.Error = err.Error()
		r.audit(ctx, AgentOrchestrator, StageWorkflowCancelled, "Workflow cancelled before completion", map[string]any{
			"error": err.Error(),
		})
	default:
		r.res.Status = types.RunFailed
		r.res.Error = err.Error()
		r.audit(ctx, AgentOrchestrator, StageWorkflowFailed, err.Error(), map[string]any{
			"error": err.Error(),
		})
	}
	r.res.CompletedAt = r.o.d.Now().UTC()

	if r.o.d.Metrics != nil {
		r.o.d.Metrics.RecordRun(r.res.Status)
	}
	if r.res.AuditTrail == nil {
		r.res.AuditTrail = []types.AuditEntry{}
	}

	fields := map[string]interface{}{
		"status":      r.res.Status,
		"duration_ms": r.res.CompletedAt.Sub(r.res.StartedAt).Milliseconds(),
	}
	if err != nil {
		r.log.WithError(err).Warn("run did not complete", fields)
	} else {
		r.log.Info("run completed", fields)
	}

	if r.o.d.Runs != nil {
		if err := r.o.d.Runs.FinishRun(context.WithoutCancel(ctx), r.res); err != nil {
			r.log.WithError(err).Warn("failed to persist run result", nil)
		}
	}
}

// audit appends to the sink and to the result's own trail. Sink failures
// never fail the run.
func (r *run) audit(ctx context.Context, agent, stage, reasoning string, payload map[string]any) {
	entry := audit.NewEntry(r.res.RunID, agent, stage, reasoning, payload)
	r.res.AuditTrail = append(r.res.AuditTrail, entry)
	if err := r.o.d.Audit.Append(context.WithoutCancel(ctx), entry); err != nil {
		r.log.WithError(err).Warn("failed to write audit entry", map[string]interface{}{"stage": stage})
	}
}

func (r *run) save(ctx context.Context, step string, content any) {
	if r.o.d.Runs == nil {
		return
	}
	if err := r.o.d.Runs.SaveArtifact(context.WithoutCancel(ctx), r.res.RunID, step, content); err != nil {
		r.log.WithError(err).Warn("failed to save artifact", map[string]interface{}{"step": step})
	}
}

func (r *run) startStep(ctx context.Context, name string) {
	if r.o.d.Runs == nil {
		return
	}
	if err := r.o.d.Runs.StartStep(context.WithoutCancel(ctx), r.res.RunID, name); err != nil {
		r.log.WithError(err).Warn("failed to record step start", map[string]interface{}{"step": name})
	}
}

func (r *run) finishStep(ctx context.Context, name string, stepErr error) {
	if r.o.d.Runs == nil {
		return
	}
	if err := r.o.d.Runs.FinishStep(context.WithoutCancel(ctx), r.res.RunID, name, stepErr); err != nil {
		r.log.WithError(err).Warn("failed to record step outcome", map[string]interface{}{"step": name})
	}
}

// progress calls the progress callback if configured
func (r *run) progress(step, message string, content any) {
	if r.opts.OnProgress == nil {
		return
	}
	r.opts.OnProgress(ProgressEvent{
		Step:     step,
		Category: db.CategoryFor(step),
		Message:  message,
		RunID:    r.res.RunID,
		Content:  content,
	})
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func dropReason(err error) string {
	var zero *pricing.ZeroCoverageError
	if errors.As(err, &zero) {
		return "zero_coverage"
	}
	var noMatch *pricing.NoMatchError
	if errors.As(err, &noMatch) {
		return "no_match"
	}
	return "invalid"
}

func sortedQuotes(quotes map[string]*types.VendorQuote) []*types.VendorQuote {
	res := pricing.Result{Quotes: quotes}
	for v := range quotes {
		res.Vendors = append(res.Vendors, v)
	}
	sort.Strings(res.Vendors)
	return res.SortedQuotes()
}
