package testutil

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stepflow/internal/registry"
)

// NoOpModule registers a single "noop" kind that takes no arguments and does
// nothing. It's useful for tests that should fail before execution begins
// but still need a document that can pass registry validation.
type NoOpModule struct{}

// Register registers the "noop" kind.
func (m *NoOpModule) Register(r *registry.Registry) {
	r.RegisterKind(&registry.KindDefinition{
		Name:    "noop",
		Version: "1",
		Inputs:  map[string]*registry.InputDefinition{},
	}, &registry.RegisteredKind{
		Fn: func(ctx context.Context, args cty.Value) (cty.Value, error) {
			// No operation
			return cty.NullVal(cty.DynamicPseudoType), nil
		},
	})
}
