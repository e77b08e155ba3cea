package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"atsmatch/internal/config"
	atsmatchErrors "atsmatch/internal/errors"
)

type fakeProvider struct {
	mu        sync.Mutex
	responses []error
	calls     int
	lastReq   Request
	lastModel string
	embedText string
}

func (f *fakeProvider) next() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.responses) == 0 {
		return nil
	}
	err := f.responses[0]
	f.responses = f.responses[1:]
	return err
}

func (f *fakeProvider) Generate(_ context.Context, model string, req Request, _ float64) (string, *TokenUsage, error) {
	f.lastReq = req
	f.lastModel = model
	if err := f.next(); err != nil {
		return "", nil, err
	}
	return `{"ok":true}`, &TokenUsage{InputTokens: 3, OutputTokens: 2, TotalTokens: 5}, nil
}

func (f *fakeProvider) Embed(_ context.Context, _ string, text string) ([]float32, error) {
	f.embedText = text
	if err := f.next(); err != nil {
		return nil, err
	}
	return []float32{0.1, 0.2}, nil
}

func (f *fakeProvider) GetModelInfo(_ context.Context, model string) *ModelInfo {
	return &ModelInfo{Name: model, Provider: "fake", Available: true}
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Close() error { return nil }

func testOperationConfig(maxRetries int, useSystem bool) config.OperationAIConfig {
	timeout := 5 * time.Second
	temperature := 0.2
	return config.OperationAIConfig{
		Provider:         config.ProviderGemini,
		Model:            "test-model",
		Timeout:          &timeout,
		MaxRetries:       &maxRetries,
		Temperature:      &temperature,
		UseSystemPrompts: &useSystem,
	}
}

func newTestService(p Provider, maxRetries int, useSystem bool) *Service {
	s := NewServiceWithProvider(p, testOperationConfig(maxRetries, useSystem), config.OpExtract, nil, nil)
	s.retryBaseDelay = time.Millisecond
	return s
}

func TestGenerateRetriesTransientErrors(t *testing.T) {
	p := &fakeProvider{responses: []error{
		genai.APIError{Code: http.StatusServiceUnavailable},
		genai.APIError{Code: http.StatusTooManyRequests},
	}}
	s := newTestService(p, 3, true)

	text, err := s.Generate(context.Background(), Request{Operation: "extract_job", System: "sys", Prompt: "user"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != `{"ok":true}` {
		t.Errorf("unexpected text %q", text)
	}
	if p.calls != 3 {
		t.Errorf("expected 3 provider calls, got %d", p.calls)
	}
	if p.lastModel != "test-model" {
		t.Errorf("expected model test-model, got %s", p.lastModel)
	}
}

func TestGenerateDoesNotRetryPermanentErrors(t *testing.T) {
	p := &fakeProvider{responses: []error{
		genai.APIError{Code: http.StatusBadRequest},
	}}
	s := newTestService(p, 3, true)

	_, err := s.Generate(context.Background(), Request{Prompt: "user"})
	if err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 1 {
		t.Errorf("expected a single call, got %d", p.calls)
	}
	if !atsmatchErrors.HasCode(err, atsmatchErrors.ErrCodeAIServiceFailed) {
		t.Errorf("expected AI_SERVICE_FAILED, got %v", err)
	}
}

func TestGenerateFoldsSystemPromptWhenDisabled(t *testing.T) {
	p := &fakeProvider{}
	s := newTestService(p, 0, false)

	if _, err := s.Generate(context.Background(), Request{System: "rules", Prompt: "task"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if p.lastReq.System != "" {
		t.Errorf("expected empty system prompt, got %q", p.lastReq.System)
	}
	if !strings.HasPrefix(p.lastReq.Prompt, "rules") || !strings.HasSuffix(p.lastReq.Prompt, "task") {
		t.Errorf("unexpected merged prompt %q", p.lastReq.Prompt)
	}
}

func TestEmbedReplacesEmptyInput(t *testing.T) {
	p := &fakeProvider{}
	s := newTestService(p, 0, true)

	vec, err := s.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("expected 2 dimensions, got %d", len(vec))
	}
	if p.embedText != "empty" {
		t.Errorf("expected placeholder text, got %q", p.embedText)
	}
}

func TestEmbedWrapsFailures(t *testing.T) {
	p := &fakeProvider{responses: []error{errors.New("invalid key")}}
	s := newTestService(p, 2, true)

	_, err := s.Embed(context.Background(), "hello")
	if !atsmatchErrors.HasCode(err, atsmatchErrors.ErrCodeEmbeddingService) {
		t.Fatalf("expected EMBEDDING_SERVICE_FAILED, got %v", err)
	}
}

func TestServiceHealthAndModelInfo(t *testing.T) {
	s := newTestService(&fakeProvider{}, 0, true)

	if !s.IsHealthy() {
		t.Error("expected healthy service")
	}
	info := s.GetModelInfo(context.Background())
	if !info.Available || info.Name != "test-model" {
		t.Errorf("unexpected model info %+v", info)
	}
	stats := s.CircuitBreakerStats()
	if _, ok := stats["generate"]; !ok {
		t.Error("missing generate breaker stats")
	}
}

func TestNewServiceRequiresAPIKey(t *testing.T) {
	cfg := testOperationConfig(0, true)
	cfg.Provider = config.ProviderOpenAI

	_, err := NewService(context.Background(), cfg, config.OpExtract, nil, nil)
	if !atsmatchErrors.HasCode(err, atsmatchErrors.ErrCodeMissingAPIKey) {
		t.Fatalf("expected MISSING_API_KEY, got %v", err)
	}

	cfg.Provider = "unknown"
	_, err = NewService(context.Background(), cfg, config.OpExtract, nil, nil)
	if !atsmatchErrors.HasCode(err, atsmatchErrors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("bad json"), false},
		{"genai 429", genai.APIError{Code: http.StatusTooManyRequests}, true},
		{"genai 400", genai.APIError{Code: http.StatusBadRequest}, false},
		{"openai 502", &openai.Error{StatusCode: http.StatusBadGateway}, true},
		{"openai 401", &openai.Error{StatusCode: http.StatusUnauthorized}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackoffIsCapped(t *testing.T) {
	if d := backoff(1, time.Second); d < time.Second || d > 1100*time.Millisecond {
		t.Errorf("first backoff out of range: %v", d)
	}
	if d := backoff(20, time.Second); d != maxBackoff {
		t.Errorf("expected cap %v, got %v", maxBackoff, d)
	}
}
