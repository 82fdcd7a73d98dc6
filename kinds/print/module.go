// Package print provides a step kind that writes its input to stdout.
package print

import (
	"context"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stepflow/internal/ctxlog"
	"github.com/vk/stepflow/internal/ctyconv"
	"github.com/vk/stepflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// RunPrint writes the 'value' argument to stdout and passes it through
// unchanged, so print steps can sit in the middle of a chain.
func RunPrint(ctx context.Context, args cty.Value) (cty.Value, error) {
	ctxlog.FromContext(ctx).Info("Printing step input.")

	value := args.GetAttr("value")
	converted, err := ctyconv.ToInterface(value)
	if err != nil {
		return cty.NilVal, err
	}
	printValue("      ", converted)

	return value, nil
}

func printValue(indent string, v any) {
	switch tv := v.(type) {
	case nil:
		fmt.Printf("%s(null)\n", indent)
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s%s:\n", indent, k)
			printValue(indent+"  ", tv[k])
		}
	case []any:
		for i, e := range tv {
			fmt.Printf("%s[%d]:\n", indent, i)
			printValue(indent+"  ", e)
		}
	case string:
		fmt.Printf("%s%q\n", indent, tv)
	default:
		fmt.Printf("%s%v\n", indent, tv)
	}
}

// Register registers the print kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.KindDefinition{
		Name:        "print",
		Description: "Writes its input to stdout and passes it through.",
		Version:     "1",
		Inputs: map[string]*registry.InputDefinition{
			"value": {Type: cty.DynamicPseudoType, Description: "The value to print.", Required: true},
		},
	}, &registry.RegisteredKind{Fn: RunPrint})
}
