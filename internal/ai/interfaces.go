package ai

import (
	"context"
)

// Request is a single text generation call.
type Request struct {
	// Operation names the call in spans, metrics and logs.
	Operation string
	System    string
	Prompt    string
	// JSON asks the model for a bare JSON object.
	JSON bool
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Provider is one model backend. Each method makes exactly one attempt;
// retries and circuit breaking are layered on by Service.
type Provider interface {
	Generate(ctx context.Context, model string, req Request, temperature float64) (string, *TokenUsage, error)
	Embed(ctx context.Context, model, text string) ([]float32, error)
	GetModelInfo(ctx context.Context, model string) *ModelInfo
	Name() string
	Close() error
}
