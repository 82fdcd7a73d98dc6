package dag

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/stepflow/internal/ctxlog"
	"github.com/vk/stepflow/internal/spec"
)

// CyclicDependencyError reports a reference cycle. Cycle lists the step
// sequence, starting and ending at the same step.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Cycle, " -> "))
}

// Build constructs a validated graph from a document and its resolved
// references. It fails with CyclicDependencyError if the references form a
// cycle; a self-reference is a cycle of length one.
func Build(ctx context.Context, doc *spec.Document, refs []spec.Reference) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.")

	graph := &Graph{Nodes: make(map[string]*Node, len(doc.Steps))}

	// First pass: one node per step, in declaration order.
	for _, s := range doc.Steps {
		node := &Node{
			Name:       s.Name,
			Spec:       s,
			Deps:       make(map[string]*Node),
			Dependents: make(map[string]*Node),
		}
		graph.Nodes[s.Name] = node
		graph.order = append(graph.order, node)
	}
	logger.Debug("Build: node creation complete.", "node_count", len(graph.Nodes))

	// Second pass: link reference edges. The resolver has already checked
	// that every target exists.
	for _, ref := range refs {
		from := graph.Nodes[ref.Referrer]
		to := graph.Nodes[ref.Target]
		if from == nil || to == nil {
			return nil, fmt.Errorf("internal error: reference %s names an unknown step", ref)
		}
		if _, exists := from.Deps[to.Name]; !exists {
			logger.Debug("Build: linking dependency.", "from", from.Name, "to", to.Name)
			from.Deps[to.Name] = to
			to.Dependents[from.Name] = from
		}
	}
	logger.Debug("Build: node linking complete.")

	if err := graph.detectCycles(); err != nil {
		return nil, err
	}
	logger.Debug("Build: cycle detection passed.")

	return graph, nil
}

// detectCycles runs a depth-first search with a recursion-stack marker. On
// finding a back edge it reconstructs the full cycle path for the error.
func (g *Graph) detectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	var stack []string

	var visit func(node *Node) error
	visit = func(node *Node) error {
		visiting[node.Name] = true
		stack = append(stack, node.Name)

		for _, depName := range sortedKeys(node.Deps) {
			dep := node.Deps[depName]
			if visiting[dep.Name] {
				return &CyclicDependencyError{Cycle: cycleFrom(stack, dep.Name)}
			}
			if !visited[dep.Name] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		delete(visiting, node.Name)
		visited[node.Name] = true
		return nil
	}

	for _, node := range g.order {
		if !visited[node.Name] {
			if err := visit(node); err != nil {
				return err
			}
		}
	}
	return nil
}

// cycleFrom slices the recursion stack from the first occurrence of start and
// closes the loop by repeating it.
func cycleFrom(stack []string, start string) []string {
	for i, name := range stack {
		if name == start {
			cycle := append([]string{}, stack[i:]...)
			return append(cycle, start)
		}
	}
	// Unreachable: start is always on the stack when a back edge is found.
	return []string{start, start}
}
