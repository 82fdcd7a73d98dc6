package testutil

import "github.com/vk/stepflow/internal/registry"

// SimpleModule is a test helper for easily creating a mock module that
// registers a single kind.
type SimpleModule struct {
	Definition *registry.KindDefinition
	Handler    *registry.RegisteredKind
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.Definition != nil && m.Handler != nil {
		r.RegisterKind(m.Definition, m.Handler)
	}
}
