package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/stepflow/internal/executor"
)

// AssertStepState checks the final state of a step within a HarnessResult.
func AssertStepState(t *testing.T, result *HarnessResult, stepName string, want executor.State) {
	t.Helper()

	require.NotNil(t, result.Summary, "run produced no summary")
	got, ok := result.Summary.States[stepName]
	require.True(t, ok, "step %q not present in run summary", stepName)
	require.Equal(t, want, got, "step %q finished in state %s, want %s", stepName, got, want)
}
