package config

import "time"

// Supported AI providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// AI operations. Each one can override the global AI settings.
const (
	OpExtract  = "extract"
	OpEmbed    = "embed"
	OpOptimize = "optimize"
	OpSelect   = "select"
)

// AIConfig holds global AI settings and per-operation overrides.
type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	MaxRetries       int           `mapstructure:"maxRetries"`
	Temperature      float64       `mapstructure:"temperature"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`

	Prompts PromptsConfig `mapstructure:"prompts"`

	Extract  OperationAIConfig `mapstructure:"extract"`
	Embed    OperationAIConfig `mapstructure:"embed"`
	Optimize OperationAIConfig `mapstructure:"optimize"`
	Select   OperationAIConfig `mapstructure:"select"`
}

// OperationAIConfig holds AI settings for one operation. Pointer fields
// distinguish "unset" from a zero value so the global default applies.
type OperationAIConfig struct {
	Provider         string         `mapstructure:"provider"`
	Model            string         `mapstructure:"model"`
	Timeout          *time.Duration `mapstructure:"timeout"`
	APIKey           string         `mapstructure:"apiKey"`
	MaxRetries       *int           `mapstructure:"maxRetries"`
	Temperature      *float64       `mapstructure:"temperature"`
	UseSystemPrompts *bool          `mapstructure:"useSystemPrompts"`

	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig configures the breaker around one operation.
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"minRequests"`
	FailureThreshold float64       `mapstructure:"failureThreshold"`
}

// PromptConfig is one overridable prompt. File paths win over inline text.
type PromptConfig struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
	User       string `mapstructure:"user"`
	UserFile   string `mapstructure:"userFile"`
}

// PromptsConfig lists every prompt the application sends.
type PromptsConfig struct {
	JobExtraction          PromptConfig `mapstructure:"jobExtraction"`
	ResumeExtraction       PromptConfig `mapstructure:"resumeExtraction"`
	Optimization           PromptConfig `mapstructure:"optimization"`
	StructuredOptimization PromptConfig `mapstructure:"structuredOptimization"`
	Selection              PromptConfig `mapstructure:"selection"`
	Suggestions            PromptConfig `mapstructure:"suggestions"`
}

// Prompt names used by the loaded-prompt store.
const (
	PromptJobExtraction          = "jobExtraction"
	PromptResumeExtraction       = "resumeExtraction"
	PromptOptimization           = "optimization"
	PromptStructuredOptimization = "structuredOptimization"
	PromptSelection              = "selection"
	PromptSuggestions            = "suggestions"
)

// byName maps prompt names to their configuration.
func (p *PromptsConfig) byName() map[string]*PromptConfig {
	return map[string]*PromptConfig{
		PromptJobExtraction:          &p.JobExtraction,
		PromptResumeExtraction:       &p.ResumeExtraction,
		PromptOptimization:           &p.Optimization,
		PromptStructuredOptimization: &p.StructuredOptimization,
		PromptSelection:              &p.Selection,
		PromptSuggestions:            &p.Suggestions,
	}
}

// Prompt returns the effective prompt pair for name. Content loaded from a
// file takes precedence over inline configuration. Empty fields mean the
// caller's built-in default applies.
func (c *Config) Prompt(name string) LoadedPrompt {
	loaded := GetLoadedPrompt(name)
	if pc, ok := c.AI.Prompts.byName()[name]; ok {
		if loaded.System == "" {
			loaded.System = pc.System
		}
		if loaded.User == "" {
			loaded.User = pc.User
		}
	}
	return loaded
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = providerKeyFromEnv(opCfg.Provider)
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// OperationConfig returns the effective AI configuration for op.
func (c *Config) OperationConfig(op string) OperationAIConfig {
	var cfg OperationAIConfig
	switch op {
	case OpExtract:
		cfg = c.AI.Extract
	case OpEmbed:
		cfg = c.AI.Embed
	case OpOptimize:
		cfg = c.AI.Optimize
	case OpSelect:
		cfg = c.AI.Select
	}

	// Embedding models are distinct from chat models, so the global model
	// never applies to the embed operation.
	if op == OpEmbed && cfg.Model == "" {
		provider := cfg.Provider
		if provider == "" {
			provider = c.AI.Provider
		}
		cfg.Model = DefaultEmbeddingModel(provider)
	}

	c.applyOperationDefaults(&cfg)
	return cfg
}

// DefaultEmbeddingModel returns the embedding model used when none is configured.
func DefaultEmbeddingModel(provider string) string {
	if provider == ProviderOpenAI {
		return "text-embedding-3-small"
	}
	return "text-embedding-004"
}
