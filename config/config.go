// Package config carries the catalog engine's own operational
// configuration (which catalog root to scan, logging, storage backend,
// scan pacing) — not to be confused with catalog.InstanceConfig, which the
// core only ever consumes as an external collaborator (spec.md §6).
package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/sethvargo/go-envconfig"
	"sigs.k8s.io/yaml"
)

var (
	once   sync.Once
	config *Config
)

// Config is the engine's operational configuration: file values are
// layered first, then PGCATALOG_* environment variables (or their defaults)
// fill only the fields the file left at their zero value; a value set in the
// file is not overridden by the environment. This matches the teacher's own
// file-then-env precedence in config/config.go.
type Config struct {
	CatalogRoot     string  `json:"catalogRoot"     env:"PGCATALOG_CATALOG_ROOT,required"`
	DefaultWalDepth int     `json:"defaultWalDepth" env:"PGCATALOG_WAL_DEPTH,default=0"`
	StorageBackend  string  `json:"storageBackend"  env:"PGCATALOG_STORAGE_BACKEND,default=local"`
	RateLimitPerSec float64 `json:"rateLimitPerSec" env:"PGCATALOG_RATE_LIMIT_PER_SEC,default=0"`
	Log             LogConfig `json:"log"`
}

// LogConfig mirrors catalog.SlogLoggerOpts, kept as plain strings here since
// this package must not import catalog just to shape its own config.
type LogConfig struct {
	Level     string `json:"level"     env:"PGCATALOG_LOG_LEVEL,default=info"`
	Format    string `json:"format"    env:"PGCATALOG_LOG_FORMAT,default=json"`
	AddSource bool   `json:"addSource" env:"PGCATALOG_LOG_ADD_SOURCE,default=false"`
}

// Cfg returns the process-wide configuration loaded by MustLoad/MustEnvconfig.
// It terminates the process (via log.Fatal) if called before one of those has run, matching
// the teacher's own Cfg().
func Cfg() *Config {
	if config == nil {
		log.Fatal("config was not loaded in main")
	}
	return config
}

// MustLoad reads path (if non-empty) as YAML, then fills fields the file left
// unset from PGCATALOG_* environment variables, and terminates the process
// on failure.
// Safe to call more than once; only the first call's result is kept.
func MustLoad(path string) *Config {
	once.Do(func() {
		c, err := loadCfg(path)
		if err != nil {
			log.Fatal(err)
		}
		config = c
	})
	return config
}

// MustEnvconfig loads configuration purely from the environment, for
// invocations given no config file path.
func MustEnvconfig() *Config {
	return MustLoad("")
}

func loadCfg(path string) (*Config, error) {
	var c Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := envconfig.Process(context.Background(), &c); err != nil {
		return nil, fmt.Errorf("config: env overlay: %w", err)
	}
	return &c, nil
}
