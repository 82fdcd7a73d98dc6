// Package script provides a step kind that evaluates a JavaScript expression
// over its inputs.
package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stepflow/internal/ctyconv"
	"github.com/vk/stepflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// RunScript evaluates the 'source' JavaScript program with the 'inputs'
// argument bound as the global 'inputs'. The value of the final expression
// becomes the step's result.
func RunScript(ctx context.Context, args cty.Value) (cty.Value, error) {
	source := args.GetAttr("source").AsString()

	vm := goja.New()
	if inputs := args.GetAttr("inputs"); !inputs.IsNull() {
		converted, err := ctyconv.ToInterface(inputs)
		if err != nil {
			return cty.NilVal, fmt.Errorf("converting script inputs: %w", err)
		}
		if err := vm.Set("inputs", converted); err != nil {
			return cty.NilVal, fmt.Errorf("binding script inputs: %w", err)
		}
	}

	// Interrupt the VM if the step's context ends mid-evaluation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	result, err := vm.RunString(source)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return cty.NilVal, ctx.Err()
		}
		return cty.NilVal, fmt.Errorf("script evaluation failed: %w", err)
	}

	return ctyconv.FromInterface(result.Export())
}

// Register registers the script kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.KindDefinition{
		Name:        "script",
		Description: "Evaluates a JavaScript expression over its inputs.",
		Version:     "1",
		Inputs: map[string]*registry.InputDefinition{
			"source": {Type: cty.String, Description: "JavaScript source to evaluate.", Required: true},
			"inputs": {Type: cty.DynamicPseudoType, Description: "Value bound as the global 'inputs'."},
		},
	}, &registry.RegisteredKind{Fn: RunScript})
}
