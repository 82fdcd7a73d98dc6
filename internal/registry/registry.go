// Package registry maps kind names to their field schemas and executable Go
// handlers. A registry is an explicit object injected into the loader-side
// validation and the executor; there is no module-level shared state.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Module is the interface implemented by packages that contribute kinds to a
// registry.
type Module interface {
	Register(r *Registry)
}

// InputDefinition describes a single field accepted by a kind.
type InputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Required    bool
	// Default is applied when an optional field is omitted. Required fields
	// must not carry defaults.
	Default *cty.Value
}

// KindDefinition is the schema half of a kind: its name, its fields, and a
// version string that participates in result fingerprints so that changing a
// kind's implementation can invalidate cached results.
type KindDefinition struct {
	Name        string
	Description string
	Version     string
	Inputs      map[string]*InputDefinition
}

// RegisteredKind is the executable half of a kind.
//
// NewInput returns a pointer to a struct with `cty:` field tags; the executor
// decodes the step's materialized arguments into it and Fn must have the
// shape func(context.Context, *X) (cty.Value, error). When NewInput is nil
// the handler receives the raw argument object and Fn must have the shape
// func(context.Context, cty.Value) (cty.Value, error).
type RegisteredKind struct {
	NewInput func() any
	Fn       any
}

// Kind pairs a definition with its handler.
type Kind struct {
	Definition *KindDefinition
	Handler    *RegisteredKind
}

// Registry holds all kinds known to a single application instance.
type Registry struct {
	kinds map[string]*Kind
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// RegisterKind adds a kind to the registry. Registration problems are
// programmer errors, so they panic: duplicate names, a nil definition or
// handler, or a handler function of the wrong shape.
func (r *Registry) RegisterKind(def *KindDefinition, handler *RegisteredKind) {
	if def == nil || handler == nil {
		panic("registry: kind definition and handler must both be non-nil")
	}
	if _, exists := r.kinds[def.Name]; exists {
		panic(fmt.Sprintf("kind %q already registered", def.Name))
	}
	if err := validateHandlerShape(handler); err != nil {
		panic(fmt.Sprintf("kind %q: %v", def.Name, err))
	}
	for name, in := range def.Inputs {
		if in.Name == "" {
			in.Name = name
		}
		if in.Required && in.Default != nil {
			panic(fmt.Sprintf("kind %q: input %q is required but has a default", def.Name, name))
		}
	}
	slog.Debug("Registering kind.", "name", def.Name, "version", def.Version)
	r.kinds[def.Name] = &Kind{Definition: def, Handler: handler}
}

// Kind returns the registered kind for a name, or nil.
func (r *Registry) Kind(name string) *Kind {
	return r.kinds[name]
}

// KindNames returns all registered kind names, sorted.
func (r *Registry) KindNames() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	ctxType      = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType      = reflect.TypeOf((*error)(nil)).Elem()
	ctyValueType = reflect.TypeOf(cty.Value{})
)

// validateHandlerShape checks Fn against the contract documented on
// RegisteredKind.
func validateHandlerShape(h *RegisteredKind) error {
	if h.Fn == nil {
		return fmt.Errorf("handler function is nil")
	}
	fnType := reflect.TypeOf(h.Fn)
	if fnType.Kind() != reflect.Func || fnType.NumIn() != 2 || fnType.NumOut() != 2 {
		return fmt.Errorf("handler must be a func(ctx, input) (cty.Value, error), got %s", fnType)
	}
	if !fnType.In(0).Implements(ctxType) && fnType.In(0) != ctxType {
		return fmt.Errorf("handler's first parameter must be context.Context, got %s", fnType.In(0))
	}
	if fnType.Out(0) != ctyValueType || !fnType.Out(1).Implements(errType) {
		return fmt.Errorf("handler must return (cty.Value, error), got (%s, %s)", fnType.Out(0), fnType.Out(1))
	}
	if h.NewInput == nil {
		if fnType.In(1) != ctyValueType {
			return fmt.Errorf("handler without an input struct must take cty.Value, got %s", fnType.In(1))
		}
		return nil
	}
	inputPtr := reflect.TypeOf(h.NewInput())
	if inputPtr == nil || inputPtr.Kind() != reflect.Ptr || inputPtr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("NewInput must return a pointer to a struct, got %s", inputPtr)
	}
	if fnType.In(1) != inputPtr {
		return fmt.Errorf("handler input parameter %s does not match NewInput type %s", fnType.In(1), inputPtr)
	}
	return nil
}
