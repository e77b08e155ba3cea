package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"atsmatch/internal/errors"
)

// PromptWatcher reloads prompt files into the prompt store when they change.
type PromptWatcher struct {
	mu sync.RWMutex

	cfg *Config

	// Absolute file path to prompt name
	files       map[string]string
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onReload func(name string)
	logger   *errors.Logger

	running bool
}

// NewPromptWatcher creates a watcher for every prompt file in cfg.
// onReload may be nil.
func NewPromptWatcher(cfg *Config, debounceDelay time.Duration, onReload func(name string), logger *errors.Logger) *PromptWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	if logger == nil {
		logger = errors.NewNop()
	}

	return &PromptWatcher{
		cfg:           cfg,
		files:         cfg.PromptFiles(),
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onReload:      onReload,
		logger:        logger,
	}
}

// Start begins watching prompt files. It is a no-op when none are configured.
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("prompt watcher is already running")
	}
	if len(pw.files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	pw.fsWatcher = watcher
	pw.updateModTimes()

	// Directories are watched so atomic replaces (rename over) are seen.
	dirs := make(map[string]bool)
	for file := range pw.files {
		dirs[filepath.Dir(file)] = true
	}
	for dir := range dirs {
		if err := pw.fsWatcher.Add(dir); err != nil {
			pw.logger.Warn("Failed to watch prompt directory", "directory", dir, "error", err)
		}
	}

	pw.running = true
	go pw.watchLoop()

	pw.logger.Info("Prompt file watcher started",
		"files", pw.WatchedFiles(),
		"debounce_delay", pw.debounceDelay)
	return nil
}

// Stop stops the watcher.
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return nil
	}

	close(pw.stopChan)
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.running = false

	if err := pw.fsWatcher.Close(); err != nil {
		pw.logger.LogError(err, "Failed to close prompt file watcher")
		return err
	}

	pw.logger.Info("Prompt file watcher stopped")
	return nil
}

// IsRunning reports whether the watcher is active.
func (pw *PromptWatcher) IsRunning() bool {
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.running
}

// WatchedFiles returns the watched prompt files, sorted.
func (pw *PromptWatcher) WatchedFiles() []string {
	files := make([]string, 0, len(pw.files))
	for file := range pw.files {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

func (pw *PromptWatcher) updateModTimes() {
	for file := range pw.files {
		if stat, err := os.Stat(file); err == nil {
			pw.lastModTime[file] = stat.ModTime()
		}
	}
}

// changedPrompts returns the names whose files changed since the last check.
func (pw *PromptWatcher) changedPrompts() []string {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	seen := make(map[string]bool)
	var names []string
	for file, name := range pw.files {
		stat, err := os.Stat(file)
		if err != nil {
			continue
		}
		if last, ok := pw.lastModTime[file]; ok && !stat.ModTime().After(last) {
			continue
		}
		pw.lastModTime[file] = stat.ModTime()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (pw *PromptWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if pw.shouldProcessEvent(event) {
				pw.scheduleReload()
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			pw.logger.LogError(err, "Prompt file watcher error")

		case <-pw.reloadChan:
			pw.reload()

		case <-pw.stopChan:
			return
		}
	}
}

// reload re-reads every changed prompt. A failed read keeps the previous
// prompt in place.
func (pw *PromptWatcher) reload() {
	for _, name := range pw.changedPrompts() {
		if err := pw.cfg.reloadPrompt(name); err != nil {
			pw.logger.LogError(err, "Failed to reload prompt", "prompt", name)
			continue
		}
		pw.logger.Info("Prompt reloaded", "prompt", name)
		if pw.onReload != nil {
			pw.onReload(name)
		}
	}
}

func (pw *PromptWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	name := event.Name
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}
	if _, ok := pw.files[name]; !ok {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (pw *PromptWatcher) scheduleReload() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, func() {
		select {
		case pw.reloadChan <- struct{}{}:
		default:
		}
	})
}
