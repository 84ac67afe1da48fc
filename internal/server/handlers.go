package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonathan/rfp-agent/internal/audit"
	"github.com/jonathan/rfp-agent/internal/catalog"
	"github.com/jonathan/rfp-agent/internal/history"
	"github.com/jonathan/rfp-agent/internal/ingestion"
	"github.com/jonathan/rfp-agent/internal/memory"
	"github.com/jonathan/rfp-agent/internal/pipeline"
	"github.com/jonathan/rfp-agent/internal/schemas"
	"github.com/jonathan/rfp-agent/internal/types"
)

// maxRequestBytes bounds request bodies; RFP text rarely exceeds a few hundred KB.
const maxRequestBytes = 1 << 20

// summarySentences is the length of the optional LLM summary on /extract.
const summarySentences = 3

// ProcessRequest is the body of the process and extract endpoints.
type ProcessRequest struct {
	Text       string                   `json:"text,omitempty"`
	URL        string                   `json:"url,omitempty"`
	Title      string                   `json:"title,omitempty"`
	UseBrowser bool                     `json:"use_browser,omitempty"`
	Entities   *types.ExtractedEntities `json:"entities,omitempty"`
}

// ExtractResponse is returned by /v1/rfp/extract.
type ExtractResponse struct {
	RFP      types.RFPData       `json:"rfp"`
	Source   *ingestion.Metadata `json:"source"`
	Summary  string              `json:"summary,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

// InsightsResponse is returned by /v1/history/insights.
type InsightsResponse struct {
	OverallWinRate float64                   `json:"overall_win_rate"`
	Insights       []history.Insight         `json:"insights"`
	Performance    []types.VendorPerformance `json:"performance"`
	Memory         *memory.Statistics        `json:"memory,omitempty"`
}

// AuditResponse is returned by /v1/runs/{id}/audit.
type AuditResponse struct {
	Summary audit.Summary      `json:"summary"`
	Trail   []types.AuditEntry `json:"trail"`
}

// GraphResponse is returned by /v1/vendors/graph.
type GraphResponse struct {
	Statistics catalog.GraphStatistics    `json:"statistics"`
	Clusters   map[string][]types.Product `json:"clusters"`
}

// RecommendationsResponse is returned by /v1/vendors/products/{id}/recommendations.
type RecommendationsResponse struct {
	Product         types.Product     `json:"product"`
	Compatible      []catalog.Related `json:"compatible"`
	Recommendations []catalog.Related `json:"recommendations"`
}

// decodeProcessRequest validates the body against the process_request
// schema before decoding it.
func decodeProcessRequest(w http.ResponseWriter, r *http.Request) (*ProcessRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &ErrValidation{Field: "body", Message: "request body too large"}
		}
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	if !json.Valid(body) {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	if err := schemas.Validate(schemas.ProcessRequest, body); err != nil {
		return nil, err
	}

	var req ProcessRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	return &req, nil
}

// resolve turns a request into cleaned RFP text. Text wins over URL.
func (s *Server) resolve(r *http.Request, req *ProcessRequest) (string, *ingestion.Metadata, error) {
	if strings.TrimSpace(req.Text) != "" || req.URL == "" {
		return ingestion.IngestText(req.Text)
	}
	opts := ingestion.URLOptions{
		UseBrowser: req.UseBrowser && s.cfg.AllowBrowser,
		Log:        s.log,
	}
	return s.d.Ingest(r.Context(), req.URL, opts)
}

func titleFor(req *ProcessRequest, meta *ingestion.Metadata) string {
	if req.Title != "" {
		return req.Title
	}
	if meta != nil {
		return meta.Title
	}
	return ""
}

// runStatusCode maps a run outcome onto the response status.
func runStatusCode(res *types.RunResult) int {
	switch res.Status {
	case types.RunCompleted:
		return http.StatusOK
	case types.RunCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusUnprocessableEntity
	}
}

// handleProcess runs the full pipeline and returns the RunResult.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProcessRequest(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	text, meta, err := s.resolve(r, req)
	if err != nil {
		s.fail(w, err)
		return
	}

	res := s.d.Orchestrator.Run(r.Context(), pipeline.RunOptions{
		Title:    titleFor(req, meta),
		Text:     text,
		Entities: req.Entities,
	})
	s.jsonResponse(w, runStatusCode(res), res)
}

// handleProcessStream runs the pipeline and streams progress as SSE.
// Events: "step" per stage, "result" with the RunResult, then "complete".
func (s *Server) handleProcessStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProcessRequest(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	text, meta, err := s.resolve(r, req)
	if err != nil {
		s.fail(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	res := s.d.Orchestrator.Run(r.Context(), pipeline.RunOptions{
		Title:    titleFor(req, meta),
		Text:     text,
		Entities: req.Entities,
		OnProgress: func(event pipeline.ProgressEvent) {
			if err := sse.WriteEvent("step", event); err != nil {
				s.log.WithError(err).Warn("failed to write SSE event", map[string]interface{}{"step": event.Step})
			}
		},
	})

	if res.Status != types.RunCompleted {
		sse.WriteError(res.Error)
	}
	if err := sse.WriteEvent("result", res); err != nil {
		s.log.WithError(err).Warn("failed to write SSE result", nil)
	}
	sse.WriteComplete(res.RunID, res.Status)
}

// handleExtract runs requirement extraction only.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProcessRequest(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	text, meta, err := s.resolve(r, req)
	if err != nil {
		s.fail(w, err)
		return
	}
	if meta != nil && req.Title != "" {
		meta.Title = req.Title
	}

	resp := ExtractResponse{
		RFP:    s.d.Orchestrator.Extractor().Extract(r.Context(), text, req.Entities),
		Source: meta,
	}
	if s.d.Summarizer != nil {
		summary, err := s.d.Summarizer.Summarize(r.Context(), text, summarySentences)
		if err != nil {
			resp.Warnings = append(resp.Warnings, "summary unavailable: "+err.Error())
		} else {
			resp.Summary = summary
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleGetRun returns a stored RunResult.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	runs := s.d.Orchestrator.Runs()
	if runs == nil {
		s.fail(w, &ErrNotFound{Resource: "run", ID: id})
		return
	}
	res, err := runs.LoadRun(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if res == nil {
		s.fail(w, &ErrNotFound{Resource: "run", ID: id})
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handleRunAudit returns a run's audit trail and summary.
func (s *Server) handleRunAudit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	trail, summary, err := audit.Report(r.Context(), s.d.Orchestrator.Audit(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if len(trail) == 0 {
		s.fail(w, &ErrNotFound{Resource: "audit trail", ID: id})
		return
	}
	if agent := r.URL.Query().Get("agent"); agent != "" {
		trail = audit.ByAgent(trail, agent)
	}
	s.jsonResponse(w, http.StatusOK, AuditResponse{Summary: summary, Trail: trail})
}

// handleVendors returns the product catalog.
func (s *Server) handleVendors(w http.ResponseWriter, _ *http.Request) {
	cat := s.d.Orchestrator.Catalog()
	if cat == nil {
		s.fail(w, &ErrNotFound{Resource: "catalog", ID: "default"})
		return
	}
	s.jsonResponse(w, http.StatusOK, cat)
}

// productGraph returns the catalog graph or fails with 404.
func (s *Server) productGraph(w http.ResponseWriter) (*catalog.Graph, bool) {
	if s.graph == nil {
		s.fail(w, &ErrNotFound{Resource: "catalog", ID: "default"})
		return nil, false
	}
	return s.graph, true
}

// handleVendorGraph returns graph statistics and category clusters.
func (s *Server) handleVendorGraph(w http.ResponseWriter, _ *http.Request) {
	g, ok := s.productGraph(w)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, GraphResponse{Statistics: g.Statistics(), Clusters: g.Clusters()})
}

// handleVendorSearch scores products against ?category=, ?finish=,
// ?vendor= and ?min_coverage=.
func (s *Server) handleVendorSearch(w http.ResponseWriter, r *http.Request) {
	g, ok := s.productGraph(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	criteria := catalog.SearchCriteria{
		Category: q.Get("category"),
		Finish:   q.Get("finish"),
		Vendor:   q.Get("vendor"),
	}
	if raw := q.Get("min_coverage"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			s.fail(w, &ErrValidation{Field: "min_coverage", Message: "must be a positive number"})
			return
		}
		criteria.MinCoverage = v
	}
	if criteria.Empty() {
		s.fail(w, &ErrValidation{Field: "query", Message: "at least one of category, finish, vendor or min_coverage is required"})
		return
	}
	hits := g.Search(criteria)
	if hits == nil {
		hits = []catalog.SearchHit{}
	}
	s.jsonResponse(w, http.StatusOK, hits)
}

// handleProductRecommendations lists products related to {id}, capped by ?limit=.
func (s *Server) handleProductRecommendations(w http.ResponseWriter, r *http.Request) {
	g, ok := s.productGraph(w)
	if !ok {
		return
	}
	id := r.PathValue("id")
	product, found := g.Product(id)
	if !found {
		s.fail(w, &ErrNotFound{Resource: "product", ID: id})
		return
	}
	limit := catalog.DefaultRecommendations
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.fail(w, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = n
	}
	resp := RecommendationsResponse{
		Product:         product,
		Compatible:      g.Compatible(id),
		Recommendations: g.Recommendations(id, limit),
	}
	if resp.Compatible == nil {
		resp.Compatible = []catalog.Related{}
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []catalog.Related{}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleHistoryInsights summarises past bids and remembered runs.
func (s *Server) handleHistoryInsights(w http.ResponseWriter, r *http.Request) {
	records, err := s.d.History.Records(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}

	resp := InsightsResponse{
		OverallWinRate: history.OverallWinRate(records),
		Insights:       history.Insights(records),
		Performance:    history.Performance(records),
	}
	if s.d.Memory != nil {
		stats, err := s.d.Memory.Statistics(r.Context())
		if err != nil {
			s.log.WithError(err).Warn("memory statistics unavailable", nil)
		} else {
			resp.Memory = &stats
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleHistoryForecast projects a price for ?area= and optional ?vendor=.
func (s *Server) handleHistoryForecast(w http.ResponseWriter, r *http.Request) {
	area, err := strconv.ParseFloat(r.URL.Query().Get("area"), 64)
	if err != nil || area <= 0 {
		s.fail(w, &ErrValidation{Field: "area", Message: "must be a positive number"})
		return
	}
	records, err := s.d.History.Records(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, history.PriceForecast(records, area, r.URL.Query().Get("vendor")))
}
