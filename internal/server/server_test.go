package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/rfp-agent/internal/catalog"
	"github.com/jonathan/rfp-agent/internal/history"
	"github.com/jonathan/rfp-agent/internal/ingestion"
	"github.com/jonathan/rfp-agent/internal/logger"
	"github.com/jonathan/rfp-agent/internal/memory"
	"github.com/jonathan/rfp-agent/internal/metrics"
	"github.com/jonathan/rfp-agent/internal/pipeline"
	"github.com/jonathan/rfp-agent/internal/schemas"
	"github.com/jonathan/rfp-agent/internal/types"
)

const sampleRFP = `Metro Station Repaint. Exterior walls of 30,000 sq ft need weather resistant
emulsion with coverage of 120 sq ft per liter. Interior concourse of 18,000 sq ft
in silk finish. ISO 9001 certification required. Submissions due by December 15, 2024.`

type stubSummarizer struct {
	summary string
	err     error
}

func (s stubSummarizer) Summarize(context.Context, string, int) (string, error) {
	return s.summary, s.err
}

type fixture struct {
	srv     *Server
	handler http.Handler
	metrics *metrics.Manager
	memory  *memory.LearningMemory
}

func newFixture(t *testing.T, cfg Config, mutate ...func(*Deps)) *fixture {
	t.Helper()
	seq := 0
	hist := history.NewMemoryStore(history.SeedRecords()...)
	mem := memory.New(memory.NewMemoryKV())
	orch := pipeline.New(pipeline.Deps{
		Catalog: catalog.Default(),
		History: hist,
		Memory:  mem,
		Runs:    pipeline.NewMemoryRunStore(),
		Logger:  logger.NewTestLogger(t),
		NewID: func() string {
			seq++
			return fmt.Sprintf("run-%d", seq)
		},
		Now: func() time.Time { return time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC) },
	})

	mgr := metrics.NewManager()
	d := Deps{
		Orchestrator: orch,
		History:      hist,
		Memory:       mem,
		Metrics:      mgr,
		Logger:       logger.NewTestLogger(t),
	}
	for _, m := range mutate {
		m(&d)
	}
	srv, err := New(cfg, d)
	require.NoError(t, err)
	t.Cleanup(srv.rateLimiter.Stop)
	return &fixture{srv: srv, handler: srv.Handler(), metrics: mgr, memory: mem}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func processBody(t *testing.T, req ProcessRequest) string {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	return string(b)
}

func TestNew_RequiresOrchestrator(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Config{})
	w := f.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealth_Degraded(t *testing.T) {
	f := newFixture(t, Config{}, func(d *Deps) {
		d.Ping = func(context.Context) error { return errors.New("db down") }
	})
	w := f.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db down")
}

func TestProcess_TextCompletesAndIsRetrievable(t *testing.T) {
	f := newFixture(t, Config{})

	w := f.do(http.MethodPost, "/v1/rfp/process", processBody(t, ProcessRequest{Text: sampleRFP, Title: "Metro Station"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res types.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, types.RunCompleted, res.Status)
	assert.Equal(t, "Metro Station", res.Title)
	require.NotNil(t, res.Selection)
	assert.NotEmpty(t, res.Selection.RecommendedVendor)

	w = f.do(http.MethodGet, "/v1/runs/run-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var loaded types.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loaded))
	assert.Equal(t, res.Selection.RecommendedVendor, loaded.Selection.RecommendedVendor)

	w = f.do(http.MethodGet, "/v1/runs/run-1/audit", "")
	require.Equal(t, http.StatusOK, w.Code)
	var report AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.Summary.RunID)
	assert.Equal(t, len(res.AuditTrail), report.Summary.TotalSteps)
	assert.Equal(t, pipeline.StageWorkflowStarted, report.Trail[0].Stage)
}

func TestProcess_FailedRunIsUnprocessable(t *testing.T) {
	f := newFixture(t, Config{}, func(d *Deps) {
		d.Orchestrator = pipeline.New(pipeline.Deps{Logger: logger.NewTestLogger(t)})
	})

	w := f.do(http.MethodPost, "/v1/rfp/process", processBody(t, ProcessRequest{Text: sampleRFP}))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), pipeline.ErrNoCatalog.Error())
}

func TestProcess_RequestValidation(t *testing.T) {
	f := newFixture(t, Config{})

	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"malformed JSON", `{"text":`},
		{"unknown field", `{"text":"paint","test_policy":"all"}`},
		{"wrong type", `{"text":"paint","title":7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/v1/rfp/process", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestProcess_BodyTooLarge(t *testing.T) {
	f := newFixture(t, Config{})
	huge := `{"text":"` + strings.Repeat("a", maxRequestBytes) + `"}`

	w := f.do(http.MethodPost, "/v1/rfp/process", huge)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too large")
}

func TestProcess_WhitespaceTextIsRejected(t *testing.T) {
	f := newFixture(t, Config{})

	w := f.do(http.MethodPost, "/v1/rfp/process", `{"text":"   "}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestProcess_FromURL(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, "<html><head><title>Metro Tender</title></head><body><main><p>%s</p></main></body></html>", sampleRFP)
	}))
	defer page.Close()

	f := newFixture(t, Config{})
	w := f.do(http.MethodPost, "/v1/rfp/process", processBody(t, ProcessRequest{URL: page.URL}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res types.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Metro Tender", res.Title)
	assert.Equal(t, types.RunCompleted, res.Status)
}

func TestProcess_URLFetchFailure(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer page.Close()

	f := newFixture(t, Config{})
	w := f.do(http.MethodPost, "/v1/rfp/process", processBody(t, ProcessRequest{URL: page.URL}))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestProcess_BrowserOnlyWhenAllowed(t *testing.T) {
	var got []bool
	ingest := func(_ context.Context, _ string, opts ingestion.URLOptions) (string, *ingestion.Metadata, error) {
		got = append(got, opts.UseBrowser)
		return sampleRFP, ingestion.NewMetadata(sampleRFP, ingestion.SourceURL), nil
	}
	body := processBody(t, ProcessRequest{URL: "https://tenders.example.com/1", UseBrowser: true})

	denied := newFixture(t, Config{}, func(d *Deps) { d.Ingest = ingest })
	denied.do(http.MethodPost, "/v1/rfp/extract", body)
	allowed := newFixture(t, Config{AllowBrowser: true}, func(d *Deps) { d.Ingest = ingest })
	allowed.do(http.MethodPost, "/v1/rfp/extract", body)

	assert.Equal(t, []bool{false, true}, got)
}

func TestProcessStream(t *testing.T) {
	f := newFixture(t, Config{})

	w := f.do(http.MethodPost, "/v1/rfp/process/stream", processBody(t, ProcessRequest{Text: sampleRFP}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Equal(t, 6, strings.Count(body, "event: step\n"), "five stages plus memory recall")
	assert.Contains(t, body, `"step":"rfp_data"`)
	assert.Contains(t, body, `"step":"memory"`)
	assert.Contains(t, body, "event: result\n")
	assert.NotContains(t, body, "event: error\n")
	assert.True(t, strings.HasSuffix(body, "event: complete\ndata: {\"run_id\":\"run-1\",\"status\":\"completed\"}\n\n"))
}

func TestProcessStream_ValidationBeforeStreaming(t *testing.T) {
	f := newFixture(t, Config{})

	w := f.do(http.MethodPost, "/v1/rfp/process/stream", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestExtract(t *testing.T) {
	f := newFixture(t, Config{}, func(d *Deps) {
		d.Summarizer = stubSummarizer{summary: "Repaint of a metro station."}
	})

	w := f.do(http.MethodPost, "/v1/rfp/extract", processBody(t, ProcessRequest{Text: sampleRFP, Title: "Metro"}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ExtractResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.RFP.Requirements, 2)
	assert.Equal(t, "Repaint of a metro station.", resp.Summary)
	assert.Empty(t, resp.Warnings)
	require.NotNil(t, resp.Source)
	assert.Equal(t, ingestion.SourceText, resp.Source.Source)
	assert.Equal(t, "Metro", resp.Source.Title)
}

func TestExtract_SummaryFailureIsAWarning(t *testing.T) {
	f := newFixture(t, Config{}, func(d *Deps) {
		d.Summarizer = stubSummarizer{err: errors.New("quota exceeded")}
	})

	w := f.do(http.MethodPost, "/v1/rfp/extract", processBody(t, ProcessRequest{Text: sampleRFP}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ExtractResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Summary)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "quota exceeded")
}

func TestGetRun_NotFound(t *testing.T) {
	f := newFixture(t, Config{})

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/runs/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/runs/missing/audit", "").Code)
}

func TestVendors(t *testing.T) {
	f := newFixture(t, Config{})

	w := f.do(http.MethodGet, "/v1/vendors", "")
	require.Equal(t, http.StatusOK, w.Code)

	var cat types.Catalog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cat))
	assert.Len(t, cat.Vendors, len(catalog.Default().Vendors))
}

func TestRunAudit_FilterByAgent(t *testing.T) {
	f := newFixture(t, Config{})
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/rfp/process", processBody(t, ProcessRequest{Text: sampleRFP})).Code)

	w := f.do(http.MethodGet, "/v1/runs/run-1/audit?agent="+pipeline.AgentPricing, "")
	require.Equal(t, http.StatusOK, w.Code)
	var report AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Trail, 2)
	for _, e := range report.Trail {
		assert.Equal(t, pipeline.AgentPricing, e.Agent)
	}
	assert.Greater(t, report.Summary.TotalSteps, len(report.Trail))

	w = f.do(http.MethodGet, "/v1/runs/run-1/audit?agent=Nobody", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Empty(t, report.Trail)
}

func TestVendorGraph(t *testing.T) {
	f := newFixture(t, Config{})

	w := f.do(http.MethodGet, "/v1/vendors/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp GraphResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Statistics.TotalProducts)
	assert.Equal(t, 11, resp.Statistics.TotalRelationships)
	assert.Len(t, resp.Clusters["Exterior"], 3)
	assert.Len(t, resp.Clusters["Interior"], 3)
}

func TestVendorGraph_NoCatalog(t *testing.T) {
	f := newFixture(t, Config{}, func(d *Deps) {
		d.Orchestrator = pipeline.New(pipeline.Deps{Logger: logger.NewTestLogger(t)})
	})

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/vendors/graph", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/vendors/search?finish=matt", "").Code)
}

func TestVendorSearch(t *testing.T) {
	f := newFixture(t, Config{})

	w := f.do(http.MethodGet, "/v1/vendors/search?category=exterior&min_coverage=135", "")
	require.Equal(t, http.StatusOK, w.Code)
	var hits []catalog.SearchHit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hits))
	require.Len(t, hits, 3)
	assert.Equal(t, "AP001-A", hits[0].Product.ID)
	assert.Equal(t, 40, hits[0].Score)

	w = f.do(http.MethodGet, "/v1/vendors/search?finish=gloss", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/vendors/search", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/vendors/search?min_coverage=abc", "").Code)
}

func TestProductRecommendations(t *testing.T) {
	f := newFixture(t, Config{})

	w := f.do(http.MethodGet, "/v1/vendors/products/AP002-B/recommendations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp RecommendationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Royale Luxury Emulsion", resp.Product.Name)
	assert.Len(t, resp.Compatible, 3)
	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "BP002-Y", resp.Recommendations[0].Product.ID)
	assert.Equal(t, catalog.AlternativeTo, resp.Recommendations[0].Relationship)

	w = f.do(http.MethodGet, "/v1/vendors/products/AP002-B/recommendations?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Recommendations, 1)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/vendors/products/NOPE/recommendations", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/vendors/products/AP002-B/recommendations?limit=0", "").Code)
}

func TestHistoryInsights(t *testing.T) {
	f := newFixture(t, Config{})
	f.do(http.MethodPost, "/v1/rfp/process", processBody(t, ProcessRequest{Text: sampleRFP, Title: "Metro"}))

	w := f.do(http.MethodGet, "/v1/history/insights", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp InsightsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Performance)
	assert.NotEmpty(t, resp.Insights)
	assert.Greater(t, resp.OverallWinRate, 0.0)
	require.NotNil(t, resp.Memory)
	assert.Equal(t, 1, resp.Memory.TotalRFPs)
}

func TestHistoryForecast(t *testing.T) {
	f := newFixture(t, Config{})

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/history/forecast", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/history/forecast?area=-5", "").Code)

	w := f.do(http.MethodGet, "/v1/history/forecast?area=20000", "")
	require.Equal(t, http.StatusOK, w.Code)
	var fc history.Forecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.True(t, fc.Available)
	assert.Greater(t, fc.Forecast, 0.0)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, Config{RateLimit: 1, RateBurst: 1})

	first := f.do(http.MethodGet, "/v1/vendors", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := f.do(http.MethodGet, "/v1/vendors", "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "").Code, "health is never limited")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Config{})
	f.do(http.MethodGet, "/v1/vendors", "")

	w := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rfp_agent_http_requests_total{endpoint="GET /v1/vendors",method="GET",status_code="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, Config{})

	w := f.do(http.MethodOptions, "/v1/rfp/process", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ErrNotFound{Resource: "run", ID: "x"}, http.StatusNotFound},
		{&ErrValidation{Field: "area"}, http.StatusBadRequest},
		{&schemas.ValidationError{Schema: "process_request"}, http.StatusBadRequest},
		{fmt.Errorf("%w: boom", ingestion.ErrHTTPRequestFailed), http.StatusBadGateway},
		{ingestion.ErrEmptyDocument, http.StatusUnprocessableEntity},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	f := newFixture(t, Config{Port: 0})
	f.srv.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
