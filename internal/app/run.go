package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/stepflow/internal/cache"
	"github.com/vk/stepflow/internal/ctxlog"
	"github.com/vk/stepflow/internal/executor"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context, appConfig *Config) (*executor.Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if appConfig.GraphPath != "" {
		f, err := os.Create(appConfig.GraphPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create graph output file: %w", err)
		}
		defer f.Close()
		a.logger.Info("Writing dependency graph.", "path", appConfig.GraphPath)
		return nil, a.graph.WriteDOT(f)
	}

	if a.graph.Len() == 0 {
		a.logger.Warn("No steps found in document, execution not required.")
		return &executor.Summary{}, nil
	}

	resultCache, err := a.openCache(ctx, appConfig)
	if err != nil {
		return nil, err
	}
	if closer, ok := resultCache.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	a.logger.Info("Starting concurrent execution.", "workers", appConfig.WorkerCount)
	exec := executor.New(a.graph, a.registry, executor.Options{
		Workers:      appConfig.WorkerCount,
		Cache:        resultCache,
		Fingerprints: a.fingerprints,
	})
	summary, err := exec.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("Execution finished.")

	if err := summary.Write(a.outW); err != nil {
		return nil, err
	}

	a.logger.Debug("App.Run method finished.")
	return summary, nil
}

// openCache creates the result cache selected by the configuration. A nil
// cache disables result reuse entirely.
func (a *App) openCache(ctx context.Context, appConfig *Config) (cache.Cache, error) {
	switch appConfig.CacheBackend {
	case "", "none":
		return nil, nil
	case "memory":
		return cache.NewMemory(), nil
	case "sqlite":
		if err := os.MkdirAll(appConfig.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		path := filepath.Join(appConfig.CacheDir, "stepflow.db")
		c, err := cache.OpenSQLite(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", appConfig.CacheBackend)
	}
}
