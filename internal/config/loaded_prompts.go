package config

import "sync"

// LoadedPrompt holds prompt text read from files.
type LoadedPrompt struct {
	System string
	User   string
}

// promptStore is shared between config loading and the prompt watcher.
var promptStore = struct {
	sync.RWMutex
	prompts map[string]LoadedPrompt
}{prompts: make(map[string]LoadedPrompt)}

// GetLoadedPrompt returns a copy of the prompt loaded for name.
func GetLoadedPrompt(name string) LoadedPrompt {
	promptStore.RLock()
	defer promptStore.RUnlock()
	return promptStore.prompts[name]
}

func setLoadedPrompt(name string, p LoadedPrompt) {
	promptStore.Lock()
	defer promptStore.Unlock()
	if p == (LoadedPrompt{}) {
		delete(promptStore.prompts, name)
		return
	}
	promptStore.prompts[name] = p
}

func loadedPromptCount() int {
	promptStore.RLock()
	defer promptStore.RUnlock()
	count := 0
	for _, p := range promptStore.prompts {
		if p.System != "" {
			count++
		}
		if p.User != "" {
			count++
		}
	}
	return count
}

// resetLoadedPrompts clears the store. Used by tests.
func resetLoadedPrompts() {
	promptStore.Lock()
	defer promptStore.Unlock()
	promptStore.prompts = make(map[string]LoadedPrompt)
}
