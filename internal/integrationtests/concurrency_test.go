package integrationtests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/stepflow/internal/registry"
	"github.com/vk/stepflow/internal/testutil"
)

// TestConcurrency_IndependentStepsOverlap runs two steps with no edge
// between them under two workers and checks that their execution windows
// overlapped.
func TestConcurrency_IndependentStepsOverlap(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			step "first" {
				type = "sleeper"
				arguments { id = "first" }
			}
			step "second" {
				type = "sleeper"
				arguments { id = "second" }
			}
		`,
	}
	sleeper := testutil.NewMockSleeperModule(nil, 150*time.Millisecond)

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, []registry.Module{sleeper}, testutil.WithWorkers(2))

	// --- Assert ---
	require.NoError(t, result.Err)
	require.True(t, result.Summary.OK())

	first := sleeper.Record("first")
	second := sleeper.Record("second")
	require.NotNil(t, first)
	require.NotNil(t, second)
	require.True(t, first.Start.Before(second.End) && second.Start.Before(first.End),
		"independent steps should have run concurrently")
}

// TestConcurrency_DependentStepsSerialize checks the opposite: an edge
// forces strictly sequential execution windows even with spare workers.
func TestConcurrency_DependentStepsSerialize(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			step "upstream" {
				type = "sleeper"
				arguments { id = "upstream" }
			}
			step "downstream" {
				type = "sleeper"
				arguments {
					id    = "downstream"
					after = {type = "ref", ref = "upstream"}
				}
			}
		`,
	}
	sleeper := testutil.NewMockSleeperModule(nil, 50*time.Millisecond)

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, []registry.Module{sleeper}, testutil.WithWorkers(4))

	// --- Assert ---
	require.NoError(t, result.Err)
	require.True(t, result.Summary.OK())

	up := sleeper.Record("upstream")
	down := sleeper.Record("downstream")
	require.NotNil(t, up)
	require.NotNil(t, down)
	require.False(t, down.Start.Before(up.End),
		"dependent step must not start before its dependency finished")
}
