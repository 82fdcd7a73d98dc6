// Package env_vars provides a step kind that captures the process
// environment.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stepflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// RunEnvVars returns an object with an 'all' attribute mapping every
// environment variable to its value.
func RunEnvVars(ctx context.Context, args cty.Value) (cty.Value, error) {
	envMap := make(map[string]cty.Value)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = cty.StringVal(pair[1])
		}
	}

	all := cty.MapValEmpty(cty.String)
	if len(envMap) > 0 {
		all = cty.MapVal(envMap)
	}
	return cty.ObjectVal(map[string]cty.Value{"all": all}), nil
}

// Register registers the env_vars kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.KindDefinition{
		Name:        "env_vars",
		Description: "Captures the process environment as a map.",
		Version:     "1",
		Inputs:      map[string]*registry.InputDefinition{},
	}, &registry.RegisteredKind{Fn: RunEnvVars})
}
