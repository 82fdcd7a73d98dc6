package dag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/stepflow/internal/loader"
	"github.com/vk/stepflow/internal/resolve"
	"github.com/vk/stepflow/internal/spec"
)

func buildFromSource(t *testing.T, src string) (*Graph, error) {
	t.Helper()
	ctx := context.Background()
	doc, err := loader.New().LoadSource(ctx, "test.hcl", []byte(src))
	require.NoError(t, err)
	refs, err := resolve.References(ctx, doc)
	require.NoError(t, err)
	return Build(ctx, doc, refs)
}

const diamondSource = `
	step "base" {
		type = "const"
		arguments { value = 1 }
	}
	step "left" {
		type = "add"
		arguments {
			x = {type = "ref", ref = "base"}
			y = 1
		}
	}
	step "right" {
		type = "add"
		arguments {
			x = {type = "ref", ref = "base"}
			y = 2
		}
	}
	step "join" {
		type = "sum"
		arguments {
			values = [
				{type = "ref", ref = "left"},
				{type = "ref", ref = "right"},
			]
		}
	}
`

func TestBuildLinksEdges(t *testing.T) {
	t.Parallel()

	graph, err := buildFromSource(t, diamondSource)
	require.NoError(t, err)
	require.Equal(t, 4, graph.Len())

	require.Empty(t, graph.DependenciesOf("base"))
	require.Equal(t, []string{"base"}, graph.DependenciesOf("left"))
	require.Equal(t, []string{"base"}, graph.DependenciesOf("right"))
	require.Equal(t, []string{"left", "right"}, graph.DependenciesOf("join"))

	require.Equal(t, []string{"left", "right"}, graph.DependentsOf("base"))
	require.Equal(t, []string{"join"}, graph.DependentsOf("left"))
	require.Empty(t, graph.DependentsOf("join"))
}

func TestBuildDeduplicatesEdges(t *testing.T) {
	t.Parallel()

	graph, err := buildFromSource(t, `
		step "a" {
			type = "const"
			arguments { value = 1 }
		}
		step "b" {
			type = "add"
			arguments {
				x = {type = "ref", ref = "a"}
				y = {type = "ref", ref = "a"}
			}
		}
	`)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, graph.DependenciesOf("b"))
	require.Len(t, graph.Step("b").Deps, 1)
}

func TestBuildTransitiveDependents(t *testing.T) {
	t.Parallel()

	graph, err := buildFromSource(t, diamondSource)
	require.NoError(t, err)

	require.Equal(t, []string{"join", "left", "right"}, graph.TransitiveDependentsOf("base"))
	require.Equal(t, []string{"join"}, graph.TransitiveDependentsOf("left"))
	require.Empty(t, graph.TransitiveDependentsOf("join"))
}

func TestBuildCycleNamesAllParticipants(t *testing.T) {
	t.Parallel()

	_, err := buildFromSource(t, `
		step "a" {
			type = "const"
			arguments { value = {type = "ref", ref = "b"} }
		}
		step "b" {
			type = "const"
			arguments { value = {type = "ref", ref = "a"} }
		}
	`)

	var cycleErr *CyclicDependencyError
	require.ErrorAs(t, err, &cycleErr)
	require.Contains(t, cycleErr.Cycle, "a")
	require.Contains(t, cycleErr.Cycle, "b")
	require.Equal(t, cycleErr.Cycle[0], cycleErr.Cycle[len(cycleErr.Cycle)-1])
}

func TestBuildSelfReferenceIsCycle(t *testing.T) {
	t.Parallel()

	_, err := buildFromSource(t, `
		step "a" {
			type = "const"
			arguments { value = {type = "ref", ref = "a"} }
		}
	`)

	var cycleErr *CyclicDependencyError
	require.ErrorAs(t, err, &cycleErr)
	require.Equal(t, []string{"a", "a"}, cycleErr.Cycle)
}

func TestBuildEmptyDocument(t *testing.T) {
	t.Parallel()

	graph, err := Build(context.Background(), spec.NewDocument(nil), nil)
	require.NoError(t, err)
	require.Equal(t, 0, graph.Len())
}
