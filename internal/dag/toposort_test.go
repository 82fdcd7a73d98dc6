package dag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopoOrderDependenciesFirst(t *testing.T) {
	t.Parallel()

	graph, err := buildFromSource(t, diamondSource)
	require.NoError(t, err)

	order := graph.TopoOrder()
	require.Len(t, order, 4)

	pos := make(map[string]int)
	for i, s := range order {
		pos[s.Name] = i
	}
	require.Less(t, pos["base"], pos["left"])
	require.Less(t, pos["base"], pos["right"])
	require.Less(t, pos["left"], pos["join"])
	require.Less(t, pos["right"], pos["join"])
}

func TestTopoOrderBreaksTiesByDeclaration(t *testing.T) {
	t.Parallel()

	// Three independent steps declared out of alphabetical order: the sort
	// must follow the document, not the names.
	graph, err := buildFromSource(t, `
		step "zebra" {
			type = "const"
			arguments { value = 1 }
		}
		step "alpha" {
			type = "const"
			arguments { value = 2 }
		}
		step "mango" {
			type = "const"
			arguments { value = 3 }
		}
	`)
	require.NoError(t, err)

	var names []string
	for _, s := range graph.TopoOrder() {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{"zebra", "alpha", "mango"}, names)
}

func TestTopoOrderInterleavedTies(t *testing.T) {
	t.Parallel()

	graph, err := buildFromSource(t, diamondSource)
	require.NoError(t, err)

	// left and right become ready together once base is emitted; left is
	// declared first and must win the tie.
	var names []string
	for _, s := range graph.TopoOrder() {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{"base", "left", "right", "join"}, names)
}
