package integrationtests

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stepflow/internal/testutil"
)

// TestEnvVars_FlowIntoScript captures the environment and picks one variable
// out of it in a downstream script step.
func TestEnvVars_FlowIntoScript(t *testing.T) {
	t.Setenv("STEPFLOW_TEST_MARKER", "present")

	files := map[string]string{
		"main.hcl": `
			step "environment" {
				type      = "env_vars"
				cacheable = false
				arguments {}
			}
			step "marker" {
				type = "script"
				arguments {
					source = "inputs.all.STEPFLOW_TEST_MARKER"
					inputs = {type = "ref", ref = "environment"}
				}
			}
		`,
	}

	result := testutil.RunIntegrationTest(t, files, nil)

	require.NoError(t, result.Err)
	require.True(t, result.Summary.OK())

	marker, ok := resultValue(result, "marker")
	require.True(t, ok)
	require.True(t, marker.RawEquals(cty.StringVal("present")))
}
