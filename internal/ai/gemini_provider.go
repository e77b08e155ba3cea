package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"atsmatch/internal/config"
	atsmatchErrors "atsmatch/internal/errors"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client *genai.Client
	logger *atsmatchErrors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini client authenticated with apiKey.
func NewGeminiProvider(ctx context.Context, apiKey string, logger *atsmatchErrors.Logger) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, atsmatchErrors.NewConfigError(atsmatchErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured (set ai.apiKey or GEMINI_API_KEY)", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, atsmatchErrors.NewAIError(atsmatchErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{client: client, logger: logger}, nil
}

// Name returns the provider name.
func (g *GeminiProvider) Name() string {
	return config.ProviderGemini
}

// Generate makes one GenerateContent call.
func (g *GeminiProvider) Generate(ctx context.Context, model string, req Request, temperature float64) (string, *TokenUsage, error) {
	genCfg := &genai.GenerateContentConfig{}
	if req.JSON {
		genCfg.ResponseMIMEType = "application/json"
	}
	if temperature > 0 {
		t := float32(temperature)
		genCfg.Temperature = &t
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		return "", nil, err
	}

	text := result.Text()
	if text == "" {
		return "", nil, fmt.Errorf("gemini returned an empty response")
	}
	return text, extractGeminiTokenUsage(result), nil
}

// Embed makes one EmbedContent call.
func (g *GeminiProvider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	result, err := g.client.Models.EmbedContent(ctx, model, genai.Text(text), nil)
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini returned no embedding")
	}
	return result.Embeddings[0].Values, nil
}

// GetModelInfo checks the readiness and availability of model
func (g *GeminiProvider) GetModelInfo(ctx context.Context, model string) *ModelInfo {
	info := &ModelInfo{Name: model, Provider: g.Name()}

	m, err := g.client.Models.Get(ctx, model, &genai.GetModelConfig{})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", model,
			"provider", g.Name(),
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = m.DisplayName
	info.Version = m.Version
	return info
}

// Close implements Provider. The Gemini client holds no resources.
func (g *GeminiProvider) Close() error {
	return nil
}

func extractGeminiTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
