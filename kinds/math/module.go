// Package math provides arithmetic step kinds: constant values, pairwise
// addition, and list summation.
package math

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stepflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// AddInput defines the arguments for the 'add' kind.
type AddInput struct {
	X float64 `cty:"x"`
	Y float64 `cty:"y"`
}

// SumInput defines the arguments for the 'sum' kind.
type SumInput struct {
	Values []float64 `cty:"values"`
}

// RunConst returns its 'value' argument unchanged. It exists so a document
// can name a literal and let other steps reference it.
func RunConst(ctx context.Context, args cty.Value) (cty.Value, error) {
	return args.GetAttr("value"), nil
}

// RunAdd returns x + y.
func RunAdd(ctx context.Context, input *AddInput) (cty.Value, error) {
	return cty.NumberFloatVal(input.X + input.Y), nil
}

// RunSum returns the sum of all values.
func RunSum(ctx context.Context, input *SumInput) (cty.Value, error) {
	var total float64
	for _, v := range input.Values {
		total += v
	}
	return cty.NumberFloatVal(total), nil
}

// Register registers the arithmetic kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.KindDefinition{
		Name:        "const",
		Description: "Produces a literal value for other steps to reference.",
		Version:     "1",
		Inputs: map[string]*registry.InputDefinition{
			"value": {Type: cty.DynamicPseudoType, Description: "The value to produce.", Required: true},
		},
	}, &registry.RegisteredKind{Fn: RunConst})

	r.RegisterKind(&registry.KindDefinition{
		Name:        "add",
		Description: "Adds two numbers.",
		Version:     "1",
		Inputs: map[string]*registry.InputDefinition{
			"x": {Type: cty.Number, Description: "First addend.", Required: true},
			"y": {Type: cty.Number, Description: "Second addend.", Required: true},
		},
	}, &registry.RegisteredKind{
		NewInput: func() any { return new(AddInput) },
		Fn:       RunAdd,
	})

	r.RegisterKind(&registry.KindDefinition{
		Name:        "sum",
		Description: "Sums a list of numbers.",
		Version:     "1",
		Inputs: map[string]*registry.InputDefinition{
			"values": {Type: cty.List(cty.Number), Description: "Numbers to sum.", Required: true},
		},
	}, &registry.RegisteredKind{
		NewInput: func() any { return new(SumInput) },
		Fn:       RunSum,
	})
}
