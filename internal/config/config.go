// Package config loads the YAML service configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/delloop-lab/homes-sub001/internal/storage/models"
)

// SyncConfig tunes the calendar sync engine.
type SyncConfig struct {
	// FetchTimeoutSec bounds a single feed request.
	FetchTimeoutSec int `yaml:"fetch_timeout_sec"`
	// DeadlineSec bounds a whole multi-source run.
	DeadlineSec int `yaml:"deadline_sec"`
	// MaxConcurrentSources caps parallel source pipelines.
	MaxConcurrentSources int `yaml:"max_concurrent_sources"`
	// MaxFeedBytes is the response size ceiling per feed.
	MaxFeedBytes int64 `yaml:"max_feed_bytes"`
	// Cron, when set, schedules background syncs (e.g. "@every 15m").
	Cron string `yaml:"cron"`
	// PropertyIDs lists the properties the background schedule syncs.
	PropertyIDs []string `yaml:"property_ids"`
}

// Config is the top-level service configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// DatabasePath is the SQLite file location.
	DatabasePath string `yaml:"database_path"`

	// DefaultSources is the platform → feed URL mapping used when a
	// sync request does not name sources explicitly.
	DefaultSources []models.CalendarSource `yaml:"default_sources"`

	Sync SyncConfig `yaml:"sync"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       ":8099",
		DatabasePath: "/data/homes.db",
		Sync: SyncConfig{
			FetchTimeoutSec:      10,
			DeadlineSec:          30,
			MaxConcurrentSources: 4,
			MaxFeedBytes:         5 << 20,
		},
	}
}

// Normalize fills missing or zero values with defaults so partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = ":8099"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "/data/homes.db"
	}
	if c.Sync.FetchTimeoutSec <= 0 {
		c.Sync.FetchTimeoutSec = 10
	}
	if c.Sync.DeadlineSec <= 0 {
		c.Sync.DeadlineSec = 30
	}
	if c.Sync.MaxConcurrentSources <= 0 {
		c.Sync.MaxConcurrentSources = 4
	}
	if c.Sync.MaxFeedBytes <= 0 {
		c.Sync.MaxFeedBytes = 5 << 20
	}
	for i := range c.DefaultSources {
		if !models.KnownPlatform(c.DefaultSources[i].Platform) {
			c.DefaultSources[i].Platform = models.PlatformOther
		}
		if c.DefaultSources[i].Name == "" {
			c.DefaultSources[i].Name = c.DefaultSources[i].Platform
		}
	}
}

// Validate reports configuration problems that should refuse startup.
func (c *Config) Validate() error {
	for _, src := range c.DefaultSources {
		if src.URL == "" {
			return fmt.Errorf("default source %q has no url", src.Name)
		}
	}
	if c.Sync.Cron != "" && len(c.Sync.PropertyIDs) == 0 {
		return errors.New("sync.cron is set but sync.property_ids is empty")
	}
	return nil
}

// Load loads configuration from the given YAML path. A missing file
// yields the defaults rather than an error, so the service can start
// from flags alone.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
