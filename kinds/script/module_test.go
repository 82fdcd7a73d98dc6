package script

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stepflow/internal/registry"
)

func args(source string, inputs cty.Value) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"source": cty.StringVal(source),
		"inputs": inputs,
	})
}

func TestRegisterPassesParityCheck(t *testing.T) {
	t.Parallel()

	r := registry.New()
	(&Module{}).Register(r)
	require.NoError(t, r.ValidateHandlers(context.Background()))
}

func TestRunScriptExpression(t *testing.T) {
	t.Parallel()

	got, err := RunScript(context.Background(), args("2 + 3", cty.NullVal(cty.DynamicPseudoType)))
	require.NoError(t, err)
	require.True(t, got.RawEquals(cty.NumberIntVal(5)))
}

func TestRunScriptUsesInputs(t *testing.T) {
	t.Parallel()

	inputs := cty.ObjectVal(map[string]cty.Value{
		"rates": cty.TupleVal([]cty.Value{cty.NumberFloatVal(0.1), cty.NumberFloatVal(0.3)}),
	})
	got, err := RunScript(context.Background(), args("inputs.rates.reduce((a, b) => a + b, 0)", inputs))
	require.NoError(t, err)
	require.True(t, got.RawEquals(cty.NumberFloatVal(0.4)))
}

func TestRunScriptSyntaxError(t *testing.T) {
	t.Parallel()

	_, err := RunScript(context.Background(), args("this is not javascript", cty.NullVal(cty.DynamicPseudoType)))
	require.Error(t, err)
	require.Contains(t, err.Error(), "script evaluation failed")
}

func TestRunScriptCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := RunScript(ctx, args("while (true) {}", cty.NullVal(cty.DynamicPseudoType)))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
