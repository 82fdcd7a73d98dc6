// Package strings provides text assembly step kinds.
package strings

import (
	"context"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stepflow/internal/ctyconv"
	"github.com/vk/stepflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// ConcatInput defines the arguments for the 'concat' kind.
type ConcatInput struct {
	Parts []string `cty:"parts"`
	Sep   string   `cty:"sep"`
}

// RunConcat joins parts with the separator.
func RunConcat(ctx context.Context, input *ConcatInput) (cty.Value, error) {
	return cty.StringVal(strings.Join(input.Parts, input.Sep)), nil
}

// RunFormat renders a fmt-style format string against its args. The args
// field is dynamically typed because references may flow into it, so the
// handler takes the raw argument object.
func RunFormat(ctx context.Context, args cty.Value) (cty.Value, error) {
	format := args.GetAttr("format").AsString()

	fmtArgs := []any{}
	if rest := args.GetAttr("args"); !rest.IsNull() {
		for it := rest.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := ctyconv.ToInterface(v)
			if err != nil {
				return cty.NilVal, fmt.Errorf("converting format arg: %w", err)
			}
			fmtArgs = append(fmtArgs, converted)
		}
	}

	return cty.StringVal(fmt.Sprintf(format, fmtArgs...)), nil
}

// Register registers the string kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	emptySep := cty.StringVal("")

	r.RegisterKind(&registry.KindDefinition{
		Name:        "concat",
		Description: "Joins a list of strings with a separator.",
		Version:     "1",
		Inputs: map[string]*registry.InputDefinition{
			"parts": {Type: cty.List(cty.String), Description: "Strings to join.", Required: true},
			"sep":   {Type: cty.String, Description: "Separator between parts.", Default: &emptySep},
		},
	}, &registry.RegisteredKind{
		NewInput: func() any { return new(ConcatInput) },
		Fn:       RunConcat,
	})

	r.RegisterKind(&registry.KindDefinition{
		Name:        "format",
		Description: "Renders a fmt-style format string.",
		Version:     "1",
		Inputs: map[string]*registry.InputDefinition{
			"format": {Type: cty.String, Description: "Format string.", Required: true},
			"args":   {Type: cty.DynamicPseudoType, Description: "Values interpolated into the format string."},
		},
	}, &registry.RegisteredKind{Fn: RunFormat})
}
