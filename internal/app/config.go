package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // hcl file or directory of hcl files

	LogFormat   string
	LogLevel    string
	WorkerCount int

	// CacheBackend selects result caching: "none", "memory", or "sqlite".
	CacheBackend string
	// CacheDir is the directory holding the sqlite cache database.
	CacheDir string

	// GraphPath, when set, makes the app write the dependency graph in DOT
	// format to this path instead of executing.
	GraphPath string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("WorkerCount must be at least 1, got %d", cfg.WorkerCount)
	}
	switch cfg.CacheBackend {
	case "", "none", "memory", "sqlite":
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
	if cfg.CacheBackend == "sqlite" && cfg.CacheDir == "" {
		return nil, errors.New("CacheDir is required when the sqlite cache backend is selected")
	}

	return &cfg, nil
}
