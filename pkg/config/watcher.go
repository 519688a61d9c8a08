package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/todusapp/mailshell/pkg/logging"
)

// Watcher watches the configuration file and invokes a callback after each
// successful reload that actually changed the configuration.
type Watcher struct {
	loader       Loader
	configPath   string
	lastHash     string
	onChange     func(*Config)
	logger       logging.Logger
	reloadNotify chan struct{} // Optional channel for testing
}

// WatcherConfig contains the configuration for creating a Watcher
type WatcherConfig struct {
	Loader       Loader
	ConfigPath   string
	Current      *Config       // Currently applied configuration
	OnChange     func(*Config) // Called with the new configuration
	Logger       logging.Logger
	ReloadNotify chan struct{} // Optional: notified after each reload attempt
}

// NewWatcher creates a new Watcher with the given configuration.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("onChange callback is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.ConfigPath == "" {
		return nil, fmt.Errorf("config path is required")
	}

	absPath, err := filepath.Abs(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	hash, err := calculateConfigHash(cfg.Current)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate initial config hash: %w", err)
	}

	return &Watcher{
		loader:       cfg.Loader,
		configPath:   absPath,
		lastHash:     hash,
		onChange:     cfg.OnChange,
		logger:       cfg.Logger.WithModule("config"),
		reloadNotify: cfg.ReloadNotify,
	}, nil
}

// Watch blocks until the context is cancelled, reloading the configuration
// on file changes. Run it in a goroutine.
func (w *Watcher) Watch(ctx context.Context) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("Failed to create fsnotify watcher", "error", err)
		return
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.configPath); err != nil {
		w.logger.Error("Failed to watch config file", "error", err, "path", w.configPath)
		return
	}

	w.logger.Info("Watching configuration file", "path", w.configPath)

	// Debounce timer to absorb editors writing in several events
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDuration, func() {
				w.reload()
				// Some editors replace the file; re-add the watch.
				_ = fsWatcher.Add(w.configPath)
			})

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err)
		}
	}
}

// reload loads the configuration and invokes the callback when it changed.
func (w *Watcher) reload() {
	defer func() {
		if w.reloadNotify != nil {
			select {
			case w.reloadNotify <- struct{}{}:
			default:
			}
		}
	}()

	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Warn("Configuration reload failed, keeping previous", "error", err)
		return
	}

	hash, err := calculateConfigHash(cfg)
	if err != nil {
		w.logger.Warn("Failed to hash configuration", "error", err)
		return
	}

	if hash == w.lastHash {
		w.logger.Debug("Configuration unchanged")
		return
	}

	w.lastHash = hash
	w.logger.Info("Configuration reloaded")
	w.onChange(cfg)
}

// calculateConfigHash returns a stable hash of a configuration.
func calculateConfigHash(cfg *Config) (string, error) {
	if cfg == nil {
		return "", nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
