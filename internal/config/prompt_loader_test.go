package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"atsmatch/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestLoadPromptsFromFiles(t *testing.T) {
	resetLoadedPrompts()
	t.Cleanup(resetLoadedPrompts)

	tempDir := t.TempDir()
	systemFile := filepath.Join(tempDir, "system.optimize.md")
	userFile := filepath.Join(tempDir, "user.optimize.md")
	writeFile(t, systemFile, "  Custom optimization system prompt\n")
	writeFile(t, userFile, "Rewrite {{.Resume}} for {{.JobDescription}}")

	config := &Config{AI: AIConfig{Prompts: PromptsConfig{
		Optimization: PromptConfig{SystemFile: systemFile, UserFile: userFile},
	}}}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	loaded := GetLoadedPrompt(PromptOptimization)
	if loaded.System != "Custom optimization system prompt" {
		t.Errorf("Expected trimmed system prompt, got %q", loaded.System)
	}
	if loaded.User != "Rewrite {{.Resume}} for {{.JobDescription}}" {
		t.Errorf("Unexpected user prompt %q", loaded.User)
	}

	if got := GetLoadedPrompt(PromptSelection); got != (LoadedPrompt{}) {
		t.Errorf("Expected no selection prompt, got %+v", got)
	}
}

func TestPromptPrefersFileOverInline(t *testing.T) {
	resetLoadedPrompts()
	t.Cleanup(resetLoadedPrompts)

	tempDir := t.TempDir()
	systemFile := filepath.Join(tempDir, "system.md")
	writeFile(t, systemFile, "from file")

	config := &Config{AI: AIConfig{Prompts: PromptsConfig{
		JobExtraction: PromptConfig{System: "inline system", SystemFile: systemFile, User: "inline user"},
	}}}
	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts: %v", err)
	}

	p := config.Prompt(PromptJobExtraction)
	if p.System != "from file" {
		t.Errorf("Expected file system prompt, got %q", p.System)
	}
	if p.User != "inline user" {
		t.Errorf("Expected inline user prompt, got %q", p.User)
	}

	if p := config.Prompt(PromptSuggestions); p != (LoadedPrompt{}) {
		t.Errorf("Expected empty prompt for unconfigured name, got %+v", p)
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := filepath.Join(tempDir, "valid.md")
	writeFile(t, validFile, "Valid content")

	config := &Config{AI: AIConfig{Prompts: PromptsConfig{
		Selection: PromptConfig{SystemFile: validFile},
	}}}
	if err := config.validatePromptFiles(); err != nil {
		t.Errorf("Expected validation to pass for valid file, got error: %v", err)
	}

	config.AI.Prompts.Selection.UserFile = filepath.Join(tempDir, "nonexistent.md")
	if err := config.validatePromptFiles(); err == nil {
		t.Error("Expected validation to fail for non-existent file")
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()

	testFile := filepath.Join(tempDir, "test.md")
	writeFile(t, testFile, "Test prompt content")
	content, err := loadPromptFromFile(testFile, "system", PromptSelection)
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}
	if content != "Test prompt content" {
		t.Errorf("Expected content 'Test prompt content', got %q", content)
	}

	emptyFile := filepath.Join(tempDir, "empty.md")
	writeFile(t, emptyFile, "   \n")
	if _, err := loadPromptFromFile(emptyFile, "system", PromptSelection); err == nil {
		t.Error("Expected error for empty file")
	}

	if _, err := loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system", PromptSelection); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestPromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	a := filepath.Join(tempDir, "a.md")
	b := filepath.Join(tempDir, "b.md")

	config := &Config{AI: AIConfig{Prompts: PromptsConfig{
		Optimization: PromptConfig{SystemFile: a},
		Suggestions:  PromptConfig{UserFile: b},
	}}}

	files := config.PromptFiles()
	if len(files) != 2 {
		t.Fatalf("Expected 2 prompt files, got %d", len(files))
	}
	if files[a] != PromptOptimization || files[b] != PromptSuggestions {
		t.Errorf("Unexpected file mapping: %v", files)
	}
}

func TestPromptWatcherReloadsChangedFile(t *testing.T) {
	resetLoadedPrompts()
	t.Cleanup(resetLoadedPrompts)

	tempDir := t.TempDir()
	systemFile := filepath.Join(tempDir, "system.md")
	writeFile(t, systemFile, "version one")

	config := &Config{AI: AIConfig{Prompts: PromptsConfig{
		Selection: PromptConfig{SystemFile: systemFile},
	}}}
	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts: %v", err)
	}

	reloaded := make(chan string, 1)
	watcher := NewPromptWatcher(config, 10*time.Millisecond, func(name string) {
		select {
		case reloaded <- name:
		default:
		}
	}, errors.NewNop())
	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	t.Cleanup(func() { _ = watcher.Stop() })

	if !watcher.IsRunning() {
		t.Fatal("Expected watcher to be running")
	}

	// Make sure the new mtime is strictly after the recorded one.
	future := time.Now().Add(2 * time.Second)
	writeFile(t, systemFile, "version two")
	if err := os.Chtimes(systemFile, future, future); err != nil {
		t.Fatalf("Failed to set mtime: %v", err)
	}

	select {
	case name := <-reloaded:
		if name != PromptSelection {
			t.Errorf("Expected %s reload, got %s", PromptSelection, name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for prompt reload")
	}

	if got := GetLoadedPrompt(PromptSelection).System; got != "version two" {
		t.Errorf("Expected reloaded prompt, got %q", got)
	}
}

func TestPromptWatcherWithoutFilesIsNoop(t *testing.T) {
	watcher := NewPromptWatcher(&Config{}, 0, nil, nil)
	if err := watcher.Start(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if watcher.IsRunning() {
		t.Error("Expected watcher to stay idle without prompt files")
	}
	if err := watcher.Stop(); err != nil {
		t.Errorf("Unexpected stop error: %v", err)
	}
}
