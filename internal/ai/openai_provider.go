package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"

	"atsmatch/internal/config"
	atsmatchErrors "atsmatch/internal/errors"
)

// OpenAIProvider implements Provider for the OpenAI API
type OpenAIProvider struct {
	client *openai.Client
	logger *atsmatchErrors.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates an OpenAI client. Retries are handled by
// Service, so the SDK's own retry loop is disabled.
func NewOpenAIProvider(apiKey string, logger *atsmatchErrors.Logger, opts ...option.RequestOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, atsmatchErrors.NewConfigError(atsmatchErrors.ErrCodeMissingAPIKey,
			"OpenAI API key is not configured (set ai.apiKey or OPENAI_API_KEY)", nil)
	}

	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := openai.NewClient(opts...)

	return &OpenAIProvider{client: &client, logger: logger}, nil
}

// Name returns the provider name.
func (o *OpenAIProvider) Name() string {
	return config.ProviderOpenAI
}

// Generate makes one chat completion call.
func (o *OpenAIProvider) Generate(ctx context.Context, model string, req Request, temperature float64) (string, *TokenUsage, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(model),
		Temperature: openai.Float(temperature),
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: constant.JSONObject("json_object"),
			},
		}
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", nil, err
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", nil, fmt.Errorf("openai returned an empty response")
	}

	usage := &TokenUsage{
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
		TotalTokens:  completion.Usage.TotalTokens,
	}
	return completion.Choices[0].Message.Content, usage, nil
}

// Embed makes one embeddings call.
func (o *OpenAIProvider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai returned no embedding")
	}

	embedding := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// GetModelInfo checks that model is visible to the configured key.
func (o *OpenAIProvider) GetModelInfo(ctx context.Context, model string) *ModelInfo {
	info := &ModelInfo{Name: model, Provider: o.Name()}

	m, err := o.client.Models.Get(ctx, model)
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		o.logger.Warn("Model availability check failed",
			"model", model,
			"provider", o.Name(),
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = m.ID
	info.Version = m.OwnedBy
	return info
}

// Close implements Provider.
func (o *OpenAIProvider) Close() error {
	return nil
}
