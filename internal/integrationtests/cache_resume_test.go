package integrationtests

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/stepflow/internal/executor"
	"github.com/vk/stepflow/internal/testutil"
)

const resumableDoc = `
	step "base" {
		type = "const"
		arguments { value = 10 }
	}
	step "left" {
		type = "add"
		arguments {
			x = {type = "ref", ref = "base"}
			y = 1
		}
	}
	step "total" {
		type = "add"
		arguments {
			x = {type = "ref", ref = "left"}
			y = 2
		}
	}
`

// TestCacheResume_SecondRunServesEverythingFromDisk runs the same document
// twice against one sqlite cache directory. The second run must not execute
// a single step.
func TestCacheResume_SecondRunServesEverythingFromDisk(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{"main.hcl": resumableDoc}
	cacheDir := t.TempDir()

	// --- Act ---
	first := testutil.RunIntegrationTest(t, files, nil, testutil.WithCache("sqlite", cacheDir))
	second := testutil.RunIntegrationTest(t, files, nil, testutil.WithCache("sqlite", cacheDir))

	// --- Assert ---
	require.NoError(t, first.Err)
	require.Equal(t, []string{"base", "left", "total"}, first.Summary.Succeeded)

	require.NoError(t, second.Err)
	require.True(t, second.Summary.OK())
	require.Empty(t, second.Summary.Succeeded)
	require.Equal(t, []string{"base", "left", "total"}, second.Summary.Cached)
}

// TestCacheResume_ArgumentChangeInvalidatesDownstream changes one step's
// argument between runs and checks that only that step and its dependents
// re-execute.
func TestCacheResume_ArgumentChangeInvalidatesDownstream(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	cacheDir := t.TempDir()
	changedDoc := map[string]string{
		"main.hcl": `
			step "base" {
				type = "const"
				arguments { value = 10 }
			}
			step "left" {
				type = "add"
				arguments {
					x = {type = "ref", ref = "base"}
					y = 99
				}
			}
			step "total" {
				type = "add"
				arguments {
					x = {type = "ref", ref = "left"}
					y = 2
				}
			}
		`,
	}

	// --- Act ---
	first := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": resumableDoc}, nil, testutil.WithCache("sqlite", cacheDir))
	second := testutil.RunIntegrationTest(t, changedDoc, nil, testutil.WithCache("sqlite", cacheDir))

	// --- Assert ---
	require.NoError(t, first.Err)
	require.NoError(t, second.Err)
	testutil.AssertStepState(t, second, "base", executor.Cached)
	testutil.AssertStepState(t, second, "left", executor.Succeeded)
	testutil.AssertStepState(t, second, "total", executor.Succeeded)
}

// TestCacheResume_MemoryCacheDoesNotPersist sanity checks the backend
// boundary: a fresh app run with a memory cache starts cold.
func TestCacheResume_MemoryCacheDoesNotPersist(t *testing.T) {
	t.Parallel()

	files := map[string]string{"main.hcl": resumableDoc}

	first := testutil.RunIntegrationTest(t, files, nil, testutil.WithCache("memory", ""))
	second := testutil.RunIntegrationTest(t, files, nil, testutil.WithCache("memory", ""))

	require.NoError(t, first.Err)
	require.NoError(t, second.Err)
	require.Empty(t, second.Summary.Cached)
	require.Equal(t, []string{"base", "left", "total"}, second.Summary.Succeeded)
}
