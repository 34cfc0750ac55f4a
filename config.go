package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/toddllm/face-controls/internal/sim"
)

// Config is the service configuration. Defaults come from DefaultConfig, a
// YAML file overlays them and command-line flags override both.
type Config struct {
	Addr      string `yaml:"addr"`
	ClientDir string `yaml:"client_dir"`
	DBPath    string `yaml:"db_path"`
	LogLevel  string `yaml:"log_level"`
	// PublicURL is the base URL printed into join QR codes. When empty the
	// request's own host is used.
	PublicURL string `yaml:"public_url"`

	TickRate           int           `yaml:"tick_rate"`
	BroadcastRate      int           `yaml:"broadcast_rate"`
	MaxSessions        int           `yaml:"max_sessions"`
	MaxFacesPerSession int           `yaml:"max_faces_per_session"`
	SessionIdle        time.Duration `yaml:"session_idle"`

	Sim sim.Tuning `yaml:"sim"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Addr:               ":8080",
		ClientDir:          "web",
		DBPath:             "face-controls.db",
		LogLevel:           "info",
		TickRate:           60,
		BroadcastRate:      30,
		MaxSessions:        100,
		MaxFacesPerSession: 4,
		SessionIdle:        5 * time.Minute,
		Sim:                sim.DefaultTuning(),
	}
}

// LoadConfig reads path over the defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the service settings and the simulation tuning.
func (c *Config) Validate() error {
	if c.TickRate <= 0 {
		return errors.New("config: tick_rate must be positive")
	}
	if c.BroadcastRate <= 0 || c.BroadcastRate > c.TickRate {
		return fmt.Errorf("config: broadcast_rate must be in 1..%d", c.TickRate)
	}
	if c.MaxSessions <= 0 {
		return errors.New("config: max_sessions must be positive")
	}
	if c.MaxFacesPerSession > 0 {
		c.Sim.MaxFaces = c.MaxFacesPerSession
	}
	if err := c.Sim.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

const reloadDebounce = 100 * time.Millisecond

// WatchConfig reloads path whenever it changes and passes every config that
// loads cleanly to onChange. A broken edit is logged and skipped. It returns
// when ctx is done.
func WatchConfig(ctx context.Context, path string, log *slog.Logger, onChange func(Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer w.Close()

	// Editors replace files on save, so watch the directory.
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}

	// Saves arrive as bursts of events; reload once the burst settles.
	var timer *time.Timer
	var reload <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			reload = timer.C
		case <-reload:
			reload = nil
			cfg, err := LoadConfig(path)
			if err != nil {
				log.Warn("config reload failed", "path", path, "err", err)
				continue
			}
			log.Info("config reloaded", "path", path)
			onChange(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", "err", err)
		}
	}
}
