package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		AI:       AIConfig{Provider: ProviderGemini, Model: "gemini-2.0-flash", Timeout: time.Minute, MaxRetries: 3, Temperature: 0.7, UseSystemPrompts: true},
		Pipeline: PipelineConfig{Timeout: 90 * time.Second},
		Store:    StoreConfig{Backend: StoreMemory},
		Server:   ServerConfig{Port: "8080", TLS: TLSConfig{Mode: TLSDisabled}},
		App:      AppConfig{DefaultFormat: "json", SupportedFormats: []string{"json", "text", "markdown"}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no api key is still valid", mutate: func(c *Config) { c.AI.APIKey = "" }},
		{name: "openai provider", mutate: func(c *Config) { c.AI.Provider = ProviderOpenAI }},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.Provider = "anthropic" }, wantErr: true},
		{name: "zero ai timeout", mutate: func(c *Config) { c.AI.Timeout = 0 }, wantErr: true},
		{name: "zero pipeline timeout", mutate: func(c *Config) { c.Pipeline.Timeout = 0 }, wantErr: true},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: true},
		{name: "unsupported format", mutate: func(c *Config) { c.App.DefaultFormat = "xml" }, wantErr: true},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store.Backend = StoreSQLite }, wantErr: true},
		{name: "sqlite with path", mutate: func(c *Config) { c.Store.Backend = StoreSQLite; c.Store.SQLitePath = "x.db" }},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Backend = StorePostgres }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "mongo" }, wantErr: true},
		{name: "cache without addr", mutate: func(c *Config) { c.Cache.Enabled = true }, wantErr: true},
		{name: "bad tls", mutate: func(c *Config) { c.Server.TLS.Mode = "server" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestOperationConfigFallsBackToGlobal(t *testing.T) {
	cfg := validConfig()
	cfg.AI.APIKey = "global-key"
	temp := 0.1
	cfg.AI.Optimize = OperationAIConfig{Model: "gemini-2.5-pro", Temperature: &temp}

	opt := cfg.OperationConfig(OpOptimize)
	if opt.Provider != ProviderGemini {
		t.Errorf("Expected inherited provider, got %s", opt.Provider)
	}
	if opt.Model != "gemini-2.5-pro" {
		t.Errorf("Expected operation model, got %s", opt.Model)
	}
	if *opt.Temperature != 0.1 {
		t.Errorf("Expected operation temperature 0.1, got %v", *opt.Temperature)
	}
	if *opt.Timeout != time.Minute || *opt.MaxRetries != 3 || !*opt.UseSystemPrompts {
		t.Error("Expected global timeout, retries and system prompt setting")
	}
	if opt.APIKey != "global-key" {
		t.Errorf("Expected global API key, got %s", opt.APIKey)
	}

	// The global config must not be modified through the returned pointers.
	if cfg.AI.Optimize.Timeout != nil {
		t.Error("OperationConfig must not mutate the stored operation config")
	}
}

func TestOperationConfigEmbedModel(t *testing.T) {
	cfg := validConfig()
	if got := cfg.OperationConfig(OpEmbed).Model; got != "text-embedding-004" {
		t.Errorf("Expected gemini embedding model, got %s", got)
	}

	cfg.AI.Embed.Provider = ProviderOpenAI
	if got := cfg.OperationConfig(OpEmbed).Model; got != "text-embedding-3-small" {
		t.Errorf("Expected openai embedding model, got %s", got)
	}

	cfg.AI.Embed.Model = "custom-embed"
	if got := cfg.OperationConfig(OpEmbed).Model; got != "custom-embed" {
		t.Errorf("Expected configured embedding model, got %s", got)
	}
}

func TestProviderKeyFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("OPENAI_API_KEY", "o")

	cfg := validConfig()
	cfg.AI.Select.Provider = ProviderOpenAI
	if got := cfg.OperationConfig(OpSelect).APIKey; got != "o" {
		t.Errorf("Expected OPENAI_API_KEY, got %q", got)
	}

	cfg.applyFallbacks()
	if cfg.AI.APIKey != "g" {
		t.Errorf("Expected GEMINI_API_KEY fallback, got %q", cfg.AI.APIKey)
	}
}

func TestServerAPIKeysFromEnv(t *testing.T) {
	t.Setenv("ATSMATCH_SERVER_APIKEYS", " a , b,, c ")

	cfg := validConfig()
	cfg.applyServerAPIKeyFallbacks()

	want := []string{"a", "b", "c"}
	if len(cfg.Server.APIKeys) != len(want) {
		t.Fatalf("Expected %v, got %v", want, cfg.Server.APIKeys)
	}
	for i := range want {
		if cfg.Server.APIKeys[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, cfg.Server.APIKeys)
		}
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ATSMATCH_AI_PROVIDER", "openai")
	t.Setenv("ATSMATCH_STORE_BACKEND", "sqlite")
	t.Setenv("ATSMATCH_PIPELINE_TIMEOUT", "45s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.AI.Provider != ProviderOpenAI {
		t.Errorf("Expected provider from env, got %s", cfg.AI.Provider)
	}
	if cfg.Store.Backend != StoreSQLite || cfg.Store.SQLitePath != "atsmatch.db" {
		t.Errorf("Unexpected store config: %+v", cfg.Store)
	}
	if cfg.Pipeline.Timeout != 45*time.Second {
		t.Errorf("Expected 45s pipeline timeout, got %v", cfg.Pipeline.Timeout)
	}
	if cfg.Observability.ServiceInstance == "" {
		t.Error("Expected generated service instance")
	}
}
