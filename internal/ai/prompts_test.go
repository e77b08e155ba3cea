package ai

import (
	"strings"
	"testing"

	"atsmatch/internal/config"
)

func TestEveryPromptNameHasDefault(t *testing.T) {
	names := []string{
		config.PromptJobExtraction,
		config.PromptResumeExtraction,
		config.PromptOptimization,
		config.PromptStructuredOptimization,
		config.PromptSelection,
		config.PromptSuggestions,
	}
	for _, name := range names {
		tmpl, ok := DefaultPrompts[name]
		if !ok || tmpl.System == "" || tmpl.User == "" {
			t.Errorf("missing default prompt for %s", name)
		}
	}
}

func TestRenderOptimizationPrompt(t *testing.T) {
	_, user, err := RenderPrompt(nil, config.PromptOptimization, OptimizationPromptData{
		CosineScore:     0.123456,
		Recommendations: "1. [HIGH] Add Go",
		JobDescription:  "Go developer",
		Resume:          "# Jane",
	})
	if err != nil {
		t.Fatalf("RenderPrompt failed: %v", err)
	}
	if !strings.Contains(user, "0.1235") {
		t.Errorf("expected 4-decimal cosine score in prompt:\n%s", user)
	}
	if !strings.Contains(user, "1. [HIGH] Add Go") {
		t.Error("expected recommendations in prompt")
	}
}

func TestRenderPromptUsesConfigOverride(t *testing.T) {
	cfg := &config.Config{}
	cfg.AI.Prompts.Selection.User = "Pick for {{.JobDescription}}"

	system, user, err := RenderPrompt(cfg, config.PromptSelection, SelectionPromptData{JobDescription: "SRE"})
	if err != nil {
		t.Fatalf("RenderPrompt failed: %v", err)
	}
	if user != "Pick for SRE" {
		t.Errorf("override not applied: %q", user)
	}
	if system != strings.TrimSpace(DefaultPrompts[config.PromptSelection].System) {
		t.Error("system prompt should fall back to the default")
	}
}

func TestRenderPromptErrors(t *testing.T) {
	if _, _, err := RenderPrompt(nil, "nope", nil); err == nil {
		t.Error("expected error for unknown prompt")
	}

	cfg := &config.Config{}
	cfg.AI.Prompts.Suggestions.User = "{{.Missing}}"
	if _, _, err := RenderPrompt(cfg, config.PromptSuggestions, SuggestionsPromptData{}); err == nil {
		t.Error("expected error for unknown template field")
	}
}
