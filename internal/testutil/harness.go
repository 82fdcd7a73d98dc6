package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/stepflow/internal/app"
	"github.com/vk/stepflow/internal/executor"
	"github.com/vk/stepflow/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Summary   *executor.Summary
}

// HarnessOption mutates the app config the harness builds.
type HarnessOption func(*app.Config)

// WithCache selects a result cache backend for the run.
func WithCache(backend, dir string) HarnessOption {
	return func(cfg *app.Config) {
		cfg.CacheBackend = backend
		cfg.CacheDir = dir
	}
}

// WithWorkers sets the executor's worker count.
func WithWorkers(n int) HarnessOption {
	return func(cfg *app.Config) {
		cfg.WorkerCount = n
	}
}

// RunIntegrationTest provides a standardized harness for running integration
// tests using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, modules []registry.Module, opts ...HarnessOption) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, modules, opts...)
}

// RunIntegrationTestWithContext provides a standardized harness for running
// integration tests with a specific context provided by the caller. It
// writes the given HCL files into a temporary directory, builds an app over
// them with the provided kind modules, and runs it end to end.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules []registry.Module, opts ...HarnessOption) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	docDir := filepath.Join(tmpDir, "doc")
	require.NoError(t, os.Mkdir(docDir, 0o755))

	for name, content := range files {
		filePath := filepath.Join(docDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	appConfig := &app.Config{
		ConfigPath:  docDir,
		LogLevel:    "debug",
		LogFormat:   "text",
		WorkerCount: 4,
	}
	for _, opt := range opts {
		opt(appConfig)
	}

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var appErr error
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp, appErr = app.NewApp(logBuffer, appConfig, modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}
	if appErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       appErr,
		}
	}

	summary, runErr := testApp.Run(ctx, appConfig)

	if os.Getenv("STEPFLOW_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Summary:   summary,
	}
}
