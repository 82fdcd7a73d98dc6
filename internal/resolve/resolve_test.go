package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/stepflow/internal/loader"
	"github.com/vk/stepflow/internal/spec"
)

func loadDoc(t *testing.T, src string) *spec.Document {
	t.Helper()
	doc, err := loader.New().LoadSource(context.Background(), "test.hcl", []byte(src))
	require.NoError(t, err)
	return doc
}

func TestReferencesSimple(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, `
		step "a" {
			type = "const"
			arguments { value = 1 }
		}
		step "b" {
			type = "add"
			arguments {
				x = {type = "ref", ref = "a"}
				y = 2
			}
		}
	`)

	refs, err := References(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "b", refs[0].Referrer)
	require.Equal(t, "x", refs[0].FieldPath)
	require.Equal(t, "a", refs[0].Target)
}

func TestReferencesNestedPaths(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, `
		step "a" {
			type = "const"
			arguments { value = 1 }
		}
		step "b" {
			type = "const"
			arguments { value = 2 }
		}
		step "c" {
			type = "const"
			arguments {
				value = {
					optimizer = {
						params = [0, {type = "ref", ref = "a"}]
					}
					head = {type = "ref", ref = "b"}
				}
			}
		}
	`)

	refs, err := References(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	byPath := map[string]string{}
	for _, r := range refs {
		require.Equal(t, "c", r.Referrer)
		byPath[r.FieldPath] = r.Target
	}
	require.Equal(t, "b", byPath["value.head"])
	require.Equal(t, "a", byPath["value.optimizer.params[1]"])
}

func TestReferencesDangling(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, `
		step "b" {
			type = "add"
			arguments {
				x = {type = "ref", ref = "ghost"}
				y = 2
			}
		}
	`)

	_, err := References(context.Background(), doc)
	var dangling *DanglingReferenceError
	require.ErrorAs(t, err, &dangling)
	require.Equal(t, "b", dangling.Step)
	require.Equal(t, "ghost", dangling.Target)
	require.Equal(t, "x", dangling.FieldPath)
}

func TestReferencesDeterministicOrder(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, `
		step "a" {
			type = "const"
			arguments { value = 1 }
		}
		step "b" {
			type = "const"
			arguments { value = 2 }
		}
		step "c" {
			type = "sum"
			arguments {
				values = [
					{type = "ref", ref = "a"},
					{type = "ref", ref = "b"},
				]
			}
		}
	`)

	for i := 0; i < 5; i++ {
		refs, err := References(context.Background(), doc)
		require.NoError(t, err)
		require.Len(t, refs, 2)
		require.Equal(t, "values[0]", refs[0].FieldPath)
		require.Equal(t, "a", refs[0].Target)
		require.Equal(t, "values[1]", refs[1].FieldPath)
		require.Equal(t, "b", refs[1].Target)
	}
}

func TestReferencesSelfReferenceResolves(t *testing.T) {
	t.Parallel()

	// Self references resolve fine here; the graph builder rejects them as
	// cycles.
	doc := loadDoc(t, `
		step "a" {
			type = "const"
			arguments { value = {type = "ref", ref = "a"} }
		}
	`)

	refs, err := References(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "a", refs[0].Referrer)
	require.Equal(t, "a", refs[0].Target)
}

func TestReferencesIgnoresLookalikes(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, `
		step "a" {
			type = "const"
			arguments {
				value = {type = "ref", ref = "a", note = "extra key makes this a plain object"}
			}
		}
	`)

	refs, err := References(context.Background(), doc)
	require.NoError(t, err)
	require.Empty(t, refs)
}
