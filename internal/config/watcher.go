package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KilimcininKorOglu/automember/internal/logging"
)

// DefaultDebounce is how long writes must settle before a reload.
const DefaultDebounce = 200 * time.Millisecond

// ConfigWatcher watches a config file for changes and triggers reload.
type ConfigWatcher struct {
	filePath string
	debounce time.Duration
	onChange func(oldCfg, newCfg *Config)
	logger   logging.Logger

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	mu         sync.Mutex
	lastConfig *Config
	running    bool
}

// WatcherConfig holds config watcher configuration.
type WatcherConfig struct {
	FilePath string
	Debounce time.Duration // Default: 200ms
	OnChange func(oldCfg, newCfg *Config)
	Logger   logging.Logger
}

// NewConfigWatcher loads the file once and prepares a watcher for it.
func NewConfigWatcher(cfg *WatcherConfig) (*ConfigWatcher, error) {
	if cfg.FilePath == "" {
		return nil, ErrMissingConfigFile
	}
	if cfg.OnChange == nil {
		return nil, ErrMissingOnChange
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	path, err := filepath.Abs(cfg.FilePath)
	if err != nil {
		return nil, err
	}

	initial, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	return &ConfigWatcher{
		filePath:   path,
		debounce:   debounce,
		onChange:   cfg.OnChange,
		logger:     logger.WithFields("component", "config-watcher", "file", path),
		lastConfig: initial,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}, nil
}

// Start begins watching. The file's directory is watched so editors that
// replace the file by rename are followed.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.filePath)); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw
	w.running = true

	go w.watchLoop(ctx)
	return nil
}

// Stop stops watching and waits for the loop to exit.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return
	}

	w.stopOnce.Do(func() {
		close(w.done)
		<-w.stopped
		w.watcher.Close()

		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	})
}

func (w *ConfigWatcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.filePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err.Error())

		case <-fire:
			timer, fire = nil, nil
			w.triggerReload()
		}
	}
}

// triggerReload loads the new config and calls onChange. An unreadable or
// invalid file keeps the previous configuration.
func (w *ConfigWatcher) triggerReload() {
	newConfig, err := LoadConfig(w.filePath)
	if err != nil {
		w.logger.Error("reload failed", "error", err.Error())
		return
	}
	if errs := ValidateConfig(newConfig); len(errs) > 0 {
		for _, e := range errs {
			w.logger.Error("reload rejected", "error", e.Error())
		}
		return
	}

	w.mu.Lock()
	oldConfig := w.lastConfig
	w.lastConfig = newConfig
	w.mu.Unlock()

	w.logger.Info("configuration reloaded")
	w.onChange(oldConfig, newConfig)
}

// IsRunning returns true if the watcher is running.
func (w *ConfigWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// GetCurrentConfig returns the last loaded config.
func (w *ConfigWatcher) GetCurrentConfig() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastConfig
}
