package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	for _, name := range c.promptNames() {
		if err := c.reloadPrompt(name); err != nil {
			return err
		}
	}

	c.logPromptLoadingSummary()
	return nil
}

// reloadPrompt reads the files configured for name into the prompt store.
func (c *Config) reloadPrompt(name string) error {
	pc, ok := c.AI.Prompts.byName()[name]
	if !ok {
		return fmt.Errorf("unknown prompt: %s", name)
	}

	var loaded LoadedPrompt
	if pc.SystemFile != "" {
		content, err := loadPromptFromFile(pc.SystemFile, "system", name)
		if err != nil {
			return err
		}
		loaded.System = content
	}
	if pc.UserFile != "" {
		content, err := loadPromptFromFile(pc.UserFile, "user", name)
		if err != nil {
			return err
		}
		loaded.User = content
	}

	setLoadedPrompt(name, loaded)
	return nil
}

// promptNames returns prompt names in a stable order.
func (c *Config) promptNames() []string {
	names := make([]string, 0, 6)
	for name := range c.AI.Prompts.byName() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PromptFiles maps every configured prompt file to the prompt that uses it.
func (c *Config) PromptFiles() map[string]string {
	files := make(map[string]string)
	for name, pc := range c.AI.Prompts.byName() {
		for _, path := range []string{pc.SystemFile, pc.UserFile} {
			if path == "" {
				continue
			}
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			files[path] = name
		}
	}
	return files
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, name string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, name, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, name, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, name, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, name, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, name, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType, name string) {
		if filePath == "" {
			return
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, name, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, name, absPath))
		}
	}

	prompts := c.AI.Prompts.byName()
	for _, name := range c.promptNames() {
		validateFile(prompts[name].SystemFile, "system", name)
		validateFile(prompts[name].UserFile, "user", name)
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func (c *Config) logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	for _, name := range c.promptNames() {
		p := GetLoadedPrompt(name)
		if p.System != "" {
			log.Printf("[CONFIG] %s system prompt: loaded from file", name)
		}
		if p.User != "" {
			log.Printf("[CONFIG] %s user prompt: loaded from file", name)
		}
	}

	if count := loadedPromptCount(); count == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", count)
	}

	log.Println("[CONFIG] ==========================================")
}
