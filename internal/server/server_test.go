package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"atsmatch/internal/ai"
	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/pipeline"
	"atsmatch/internal/types"
)

const (
	jobJSON = `{
  "jobTitle": "Senior Go Engineer",
  "qualifications": {"required": ["Go", "Kubernetes"]},
  "keyResponsibilities": ["Build Go services"],
  "extractedKeywords": ["go", "kubernetes"]
}`
	resumeJSON = `{
  "Experiences": [{"jobTitle": "Backend Engineer", "company": "Acme", "description": ["Built Go services"]}],
  "Skills": [{"category": "Languages", "skillName": "Go"}],
  "Extracted Keywords": ["go"]
}`
	portfolioJSON = `{
  "name": "Jane Doe",
  "workExperiences": [{"id": "w-1", "jobTitle": "Backend Engineer", "company": "Acme", "startDate": "2021-03-01", "isCurrent": true, "bulletPoints": ["Built Go services"]}],
  "skills": [{"id": "s-1", "name": "Go", "category": "Languages"}]
}`
)

type fakeGenerator struct {
	mu        sync.Mutex
	responses map[string]string
}

func (g *fakeGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.responses[req.Operation], nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 1, 0}, nil
}

func newTestServer(t *testing.T, cfg ServerConfig, responses map[string]string) *Server {
	t.Helper()
	gen := &fakeGenerator{responses: map[string]string{
		"extract_job":       jobJSON,
		"extract_resume":    resumeJSON,
		"optimize_markdown": "# Jane Doe\n\nBackend Engineer at Acme building Go services",
		"select_portfolio":  `{"workExperienceIds": ["w-1"], "educationIds": [], "projectIds": [], "achievementIds": [], "skillIds": ["s-1", "s-9"], "reasoning": "Go backend work"}`,
	}}
	for op, resp := range responses {
		gen.responses[op] = resp
	}

	appCfg := &config.Config{Pipeline: config.PipelineConfig{Timeout: 5 * time.Second}}
	analyzer := pipeline.New(appCfg, pipeline.Components{
		Extractor: gen,
		Embedder:  fakeEmbedder{},
		Optimizer: gen,
		Selector:  gen,
	}, nil, nil)

	s := NewServer(appCfg, cfg, analyzer, nil, errors.NewNop())
	t.Cleanup(func() {
		if s.RateLimiter != nil {
			s.RateLimiter.Close()
		}
	})
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func analyzeBody(t *testing.T) string {
	t.Helper()
	var p types.Portfolio
	if err := json.Unmarshal([]byte(portfolioJSON), &p); err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(types.AnalyzeRequest{JobDescription: "Senior Go Engineer", Portfolio: &p})
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestHealthAndStats(t *testing.T) {
	h := newTestServer(t, ServerConfig{Version: "test", MaxRequestSize: 1024}, nil).Handler()

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, body %s", rec.Code, rec.Body.String())
	}
	health := decode[map[string]any](t, rec)
	if health["status"] != "healthy" || health["version"] != "test" {
		t.Errorf("unexpected health body: %v", health)
	}

	rec = do(t, h, http.MethodGet, "/stats", "", nil)
	stats := decode[map[string]any](t, rec)
	server, _ := stats["server"].(map[string]any)
	if server["max_request_size_bytes"] != float64(1024) {
		t.Errorf("unexpected stats body: %v", stats)
	}

	rec = do(t, h, http.MethodPost, "/health", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health status = %d, want 405", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestServer(t, ServerConfig{APIKeys: []string{"secret-key-123", ""}}, nil).Handler()

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret-key-123"}, http.StatusNotFound},
		{"bearer token", map[string]string{"Authorization": "Bearer secret-key-123"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/v1/portfolios/unknown", "", tt.headers)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if rec := do(t, h, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Errorf("health must not require a key, got %d", rec.Code)
	}
}

func TestPortfolioEndpoints(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/portfolios", portfolioJSON, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	id := decode[map[string]string](t, rec)["id"]
	if id == "" {
		t.Fatal("expected an id")
	}

	rec = do(t, h, http.MethodGet, "/api/v1/portfolios/"+id, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decode[types.Portfolio](t, rec); got.Name != "Jane Doe" || got.ID != id {
		t.Errorf("unexpected portfolio: %+v", got)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/portfolios/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing portfolio status = %d, want 404", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/portfolios", `{"skills": []}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid portfolio status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeAndFetch(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/analyze", analyzeBody(t), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	analysis := decode[types.Analysis](t, rec)
	if analysis.ID == "" || analysis.Job.JobTitle != "Senior Go Engineer" {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/analyses/"+analysis.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decode[types.Analysis](t, rec); got.ID != analysis.ID {
		t.Errorf("fetched analysis %q, want %q", got.ID, analysis.ID)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/analyses/does-not-exist", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing analysis status = %d, want 404", rec.Code)
	}
}

func TestAnalyzeRejectsBadRequests(t *testing.T) {
	h := newTestServer(t, ServerConfig{MaxRequestSize: 4096}, nil).Handler()

	tests := []struct {
		name string
		body string
		ct   string
		want int
		code string
	}{
		{"missing job", `{"portfolioId": "p-1"}`, "application/json", http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"not json", `{`, "application/json", http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"wrong content type", `{}`, "text/plain", http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"too large", `{"jobDescription": "` + strings.Repeat("x", 5000) + `"}`, "application/json; charset=utf-8", http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.ct)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if got := decode[ErrorResponse](t, rec); got.Code != tt.code {
				t.Errorf("code = %q, want %q", got.Code, tt.code)
			}
		})
	}
}

func TestAnalyzeStream(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/analyze", analyzeBody(t), map[string]string{"Accept": "text/event-stream"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	if n := strings.Count(body, "event: progress\n"); n != 5 {
		t.Errorf("got %d progress events, want 5:\n%s", n, body)
	}
	if !strings.Contains(body, "event: complete\n") || strings.Contains(body, "event: error\n") {
		t.Errorf("expected one complete event:\n%s", body)
	}
	if !strings.Contains(body, `"message":"`+pipeline.ProgressExtractJob+`"`) {
		t.Errorf("missing first progress message:\n%s", body)
	}
}

func TestAnalyzeStreamError(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, map[string]string{"extract_job": "not json at all"}).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/analyze", analyzeBody(t), map[string]string{"Accept": "text/event-stream"})
	body := rec.Body.String()
	if !strings.Contains(body, "event: error\n") || strings.Contains(body, "event: complete\n") {
		t.Fatalf("expected a terminal error event:\n%s", body)
	}
	if !strings.Contains(body, `"code":"`+errors.ErrCodeStructuredExtraction+`"`) {
		t.Errorf("error event missing code:\n%s", body)
	}
}

func TestOptimizeAndSelect(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/portfolios", portfolioJSON, nil)
	id := decode[map[string]string](t, rec)["id"]

	rec = do(t, h, http.MethodPost, "/api/v1/optimize", `{"portfolioId": "`+id+`", "jobDescription": "Senior Go Engineer"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("optimize status = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decode[types.OptimizationResult](t, rec)
	if result.Mode != types.ModeMarkdown || !strings.HasPrefix(result.Markdown, "# Jane Doe") {
		t.Errorf("unexpected optimization: %+v", result)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/optimize", `{"portfolioId": "`+id+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("optimize from stored analysis status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/v1/select", `{"portfolioId": "`+id+`", "jobDescription": "Senior Go Engineer"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("select status = %d, body %s", rec.Code, rec.Body.String())
	}
	sel := decode[types.PortfolioSelection](t, rec)
	if strings.Join(sel.SkillIDs, ",") != "s-1" || strings.Join(sel.WorkExperienceIDs, ",") != "w-1" {
		t.Errorf("unexpected selection: %+v", sel)
	}
}

func TestOptimizeWithoutAnalysisOrJob(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/portfolios", portfolioJSON, nil)
	id := decode[map[string]string](t, rec)["id"]

	rec = do(t, h, http.MethodPost, "/api/v1/optimize", `{"portfolioId": "`+id+`"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (body %s)", rec.Code, rec.Body.String())
	}
	if got := decode[ErrorResponse](t, rec); got.Code != errors.ErrCodeMissingPrerequisite {
		t.Errorf("code = %q", got.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, ServerConfig{
		RateLimit: &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByIP: true},
	}, nil)
	h := s.Handler()

	first := do(t, h, http.MethodGet, "/api/v1/portfolios/x", "", nil)
	second := do(t, h, http.MethodGet, "/api/v1/portfolios/x", "", nil)

	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first request should not be limited")
	}
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
	if stats := s.RateLimiter.GetStats(); stats["active_limiters"] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestWantsEventStream(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"text/event-stream", true},
		{"application/json, text/event-stream;q=0.9", true},
		{"application/json", false},
		{"", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(nil))
		req.Header.Set("Accept", tt.accept)
		if got := wantsEventStream(req); got != tt.want {
			t.Errorf("wantsEventStream(%q) = %v, want %v", tt.accept, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := getClientIP(req); got != "10.0.0.1" {
		t.Errorf("RemoteAddr: got %q", got)
	}

	req.Header.Set("X-Real-IP", "192.168.1.9")
	if got := getClientIP(req); got != "192.168.1.9" {
		t.Errorf("X-Real-IP: got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "garbage, 203.0.113.7, 10.0.0.2")
	if got := getClientIP(req); got != "203.0.113.7" {
		t.Errorf("X-Forwarded-For: got %q", got)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "****" {
		t.Errorf("got %q", got)
	}
	if got := maskAPIKey("abcdefghijkl"); got != "abcdefgh****" {
		t.Errorf("got %q", got)
	}
	if got := maskRateLimitKey("api:abcdefghijkl"); got != "api:abcdefgh****" {
		t.Errorf("got %q", got)
	}
}

func TestWriteServerInfo(t *testing.T) {
	s := newTestServer(t, ServerConfig{
		APIKeys:   []string{"k1", "k2"},
		RateLimit: &config.RateLimitConfig{Enabled: true, RequestsPerMin: 30, BurstCapacity: 5, ByIP: true},
	}, nil)

	var buf bytes.Buffer
	s.writeServerInfo(&buf)
	out := buf.String()

	for _, want := range []string{
		"/api/v1/analyses/{id}",
		"API authentication: ENABLED (2 keys configured)",
		"Request size limit: DISABLED",
		"Rate limiting: ENABLED (30 requests/min, burst: 5, per IP: true, per API key: false)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestOptimizationHistoryEndpoints(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/portfolios", portfolioJSON, nil)
	id := decode[map[string]string](t, rec)["id"]

	rec = do(t, h, http.MethodPost, "/api/v1/optimize", `{"portfolioId": "`+id+`", "jobDescription": "Senior Go Engineer"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("optimize status = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decode[types.OptimizationResult](t, rec)
	if result.ID == "" || result.ResumeID != id {
		t.Fatalf("optimization not stored with ids: %+v", result)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/optimizations?resumeId="+id, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body.String())
	}
	history := decode[[]types.OptimizationResult](t, rec)
	if len(history) != 1 || history[0].ID != result.ID {
		t.Errorf("unexpected history: %+v", history)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/optimizations/"+result.ID, "", nil)
	if got := decode[types.OptimizationResult](t, rec); got.Markdown != result.Markdown {
		t.Errorf("fetched optimization markdown = %q", got.Markdown)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/optimizations/"+result.ID+"/compare", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("compare status = %d, body %s", rec.Code, rec.Body.String())
	}
	cmp := decode[types.OptimizationComparison](t, rec)
	if cmp.Original == nil || cmp.Modified == nil {
		t.Fatalf("incomplete comparison: %s", rec.Body.String())
	}
	if cmp.Original.ID != result.AnalysisID || cmp.Modified.ID != result.ID {
		t.Errorf("comparison ids = %q/%q, want %q/%q", cmp.Original.ID, cmp.Modified.ID, result.AnalysisID, result.ID)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/optimizations", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("list without resumeId status = %d, want 400", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/optimizations/missing/compare", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("compare missing status = %d, want 404", rec.Code)
	}
}

func TestOptimizeStream(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/portfolios", portfolioJSON, nil)
	id := decode[map[string]string](t, rec)["id"]

	rec = do(t, h, http.MethodPost, "/api/v1/optimize", `{"portfolioId": "`+id+`", "jobDescription": "Senior Go Engineer"}`,
		map[string]string{"Accept": "text/event-stream"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	// Five analysis steps, then the rewrite and its save.
	if n := strings.Count(body, "event: progress\n"); n != 7 {
		t.Errorf("got %d progress events, want 7:\n%s", n, body)
	}
	for _, msg := range []string{pipeline.ProgressOptimizing, pipeline.ProgressSavingOptimizing} {
		if !strings.Contains(body, `"message":"`+msg+`"`) {
			t.Errorf("missing progress message %q:\n%s", msg, body)
		}
	}
	if strings.Count(body, "event: complete\n") != 1 || !strings.Contains(body, `"optimization":{`) {
		t.Errorf("expected one complete event carrying the optimization:\n%s", body)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/optimize", `{"portfolioId": "`+id+`", "analysisId": "not-a-uuid"}`,
		map[string]string{"Accept": "text/event-stream"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid request status = %d, want a JSON 400 before streaming", rec.Code)
	}
}
