package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/stepflow/internal/ctxlog"
	"github.com/vk/stepflow/internal/dag"
	"github.com/vk/stepflow/internal/fingerprint"
	"github.com/vk/stepflow/internal/loader"
	"github.com/vk/stepflow/internal/registry"
	"github.com/vk/stepflow/internal/resolve"
	"github.com/vk/stepflow/internal/spec"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW         io.Writer
	logger       *slog.Logger
	registry     *registry.Registry
	document     *spec.Document
	graph        *dag.Graph
	fingerprints map[string]string
}

// NewApp is the constructor for the main application. It loads and validates
// the step document, builds the dependency graph, and computes step
// fingerprints, returning a fully initialized App instance with its own
// isolated logger and registry.
func NewApp(outW io.Writer, appConfig *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Create and populate the registry with Go handlers.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All kind modules registered.", "count", len(modules), "kinds", reg.KindNames())

	// A definition/handler mismatch is a programmer error, so we panic.
	if err := reg.ValidateHandlers(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	doc, err := loader.New().Load(ctx, appConfig.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded.", "steps", len(doc.Steps))

	if err := reg.ValidateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("document validation failed: %w", err)
	}

	refs, err := resolve.References(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("reference resolution failed: %w", err)
	}

	graph, err := dag.Build(ctx, doc, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	logger.Debug("Dependency graph built.", "node_count", graph.Len())

	fps, err := fingerprint.Compute(graph, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to compute step fingerprints: %w", err)
	}

	return &App{
		outW:         outW,
		logger:       logger,
		registry:     reg,
		document:     doc,
		graph:        graph,
		fingerprints: fps,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Graph returns the application's dependency graph.
func (a *App) Graph() *dag.Graph {
	return a.graph
}

// Fingerprints returns the computed fingerprint for every step, keyed by
// step name.
func (a *App) Fingerprints() map[string]string {
	return a.fingerprints
}

// WriteGraph writes the dependency graph in DOT format.
func (a *App) WriteGraph(w io.Writer) error {
	return a.graph.WriteDOT(w)
}
