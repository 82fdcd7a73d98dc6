package dag

import (
	"fmt"
	"io"
)

// WriteDOT renders the graph in Graphviz DOT form, with one node per step
// labeled by name and kind, and one edge per reference. Output order follows
// declaration order so the rendering is stable.
func (g *Graph) WriteDOT(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph steps {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "  rankdir=LR;"); err != nil {
		return err
	}
	for _, node := range g.order {
		if _, err := fmt.Fprintf(w, "  %q [label=%q];\n", node.Name, node.Name+"\n"+node.Spec.Kind); err != nil {
			return err
		}
	}
	for _, node := range g.order {
		for _, depName := range sortedKeys(node.Deps) {
			if _, err := fmt.Fprintf(w, "  %q -> %q;\n", depName, node.Name); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
