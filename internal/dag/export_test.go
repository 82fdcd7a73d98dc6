package dag

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func TestWriteDOT(t *testing.T) {
	t.Parallel()

	graph, err := buildFromSource(t, diamondSource)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, graph.WriteDOT(&buf))

	g := goldie.New(t)
	g.Assert(t, "diamond", buf.Bytes())
}

func TestWriteDOTStable(t *testing.T) {
	t.Parallel()

	graph, err := buildFromSource(t, diamondSource)
	require.NoError(t, err)

	var first, second bytes.Buffer
	require.NoError(t, graph.WriteDOT(&first))
	require.NoError(t, graph.WriteDOT(&second))
	require.Equal(t, first.String(), second.String())
}
