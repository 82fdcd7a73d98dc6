package spec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func refVal(target string) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"type": cty.StringVal("ref"),
		"ref":  cty.StringVal(target),
	})
}

func TestIsReference(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		val  cty.Value
		want bool
	}{
		{"exact shape", refVal("a"), true},
		{"wrong type value", cty.ObjectVal(map[string]cty.Value{
			"type": cty.StringVal("reference"),
			"ref":  cty.StringVal("a"),
		}), false},
		{"extra attribute", cty.ObjectVal(map[string]cty.Value{
			"type":  cty.StringVal("ref"),
			"ref":   cty.StringVal("a"),
			"extra": cty.StringVal("x"),
		}), false},
		{"missing ref attribute", cty.ObjectVal(map[string]cty.Value{
			"type": cty.StringVal("ref"),
			"name": cty.StringVal("a"),
		}), false},
		{"non-string ref", cty.ObjectVal(map[string]cty.Value{
			"type": cty.StringVal("ref"),
			"ref":  cty.NumberIntVal(1),
		}), false},
		{"null ref attribute", cty.ObjectVal(map[string]cty.Value{
			"type": cty.StringVal("ref"),
			"ref":  cty.NullVal(cty.String),
		}), false},
		{"plain string", cty.StringVal("ref"), false},
		{"null", cty.NullVal(cty.DynamicPseudoType), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsReference(tc.val))
		})
	}
}

func TestReferenceTarget(t *testing.T) {
	t.Parallel()
	require.Equal(t, "upstream", ReferenceTarget(refVal("upstream")))
}

func TestContainsReference(t *testing.T) {
	t.Parallel()

	nested := cty.ObjectVal(map[string]cty.Value{
		"params": cty.TupleVal([]cty.Value{
			cty.NumberIntVal(1),
			cty.ObjectVal(map[string]cty.Value{"inner": refVal("a")}),
		}),
	})
	require.True(t, ContainsReference(nested))
	require.True(t, ContainsReference(refVal("a")))
	require.False(t, ContainsReference(cty.ObjectVal(map[string]cty.Value{
		"params": cty.TupleVal([]cty.Value{cty.NumberIntVal(1)}),
	})))
	require.False(t, ContainsReference(cty.StringVal("ref")))
}

func TestDocumentIndexing(t *testing.T) {
	t.Parallel()

	steps := []*StepSpec{
		{Name: "a", Kind: "const"},
		{Name: "b", Kind: "const"},
		{Name: "c", Kind: "add"},
	}
	doc := NewDocument(steps)

	require.Equal(t, steps[1], doc.Step("b"))
	require.Nil(t, doc.Step("missing"))
	require.Equal(t, 0, doc.Step("a").DeclIndex())
	require.Equal(t, 2, doc.Step("c").DeclIndex())
}

func TestStepField(t *testing.T) {
	t.Parallel()

	step := &StepSpec{Name: "a", Fields: []Field{
		{Name: "x", Value: cty.NumberIntVal(1)},
		{Name: "y", Value: cty.NumberIntVal(2)},
	}}

	f, ok := step.Field("y")
	require.True(t, ok)
	require.True(t, f.Value.RawEquals(cty.NumberIntVal(2)))

	_, ok = step.Field("z")
	require.False(t, ok)
}
