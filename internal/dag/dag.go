// Package dag builds and queries the directed acyclic graph of steps implied
// by a document's references.
package dag

import (
	"sort"

	"github.com/vk/stepflow/internal/spec"
)

// Graph is the validated dependency graph of one document. It is built once
// and read-only afterwards.
type Graph struct {
	// Nodes keyed by step name.
	Nodes map[string]*Node
	// order holds nodes in document declaration order.
	order []*Node
}

// Node is a single step vertex with its dependency links.
type Node struct {
	Name string
	Spec *spec.StepSpec
	// Deps holds the steps this node references (predecessors).
	Deps map[string]*Node
	// Dependents holds the steps that reference this node (successors).
	Dependents map[string]*Node
}

// Step returns the node for a step name, or nil.
func (g *Graph) Step(name string) *Node {
	return g.Nodes[name]
}

// Len returns the number of steps in the graph.
func (g *Graph) Len() int { return len(g.order) }

// Ordered returns the graph's nodes in document declaration order.
func (g *Graph) Ordered() []*Node { return g.order }

// DependenciesOf returns the sorted names of the steps a step references.
func (g *Graph) DependenciesOf(name string) []string {
	n, ok := g.Nodes[name]
	if !ok {
		return nil
	}
	return sortedKeys(n.Deps)
}

// DependentsOf returns the sorted names of the steps that reference a step.
func (g *Graph) DependentsOf(name string) []string {
	n, ok := g.Nodes[name]
	if !ok {
		return nil
	}
	return sortedKeys(n.Dependents)
}

// TransitiveDependentsOf returns the sorted names of every step downstream of
// a step, at any distance.
func (g *Graph) TransitiveDependentsOf(name string) []string {
	start, ok := g.Nodes[name]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var visit func(n *Node)
	visit = func(n *Node) {
		for depName, dep := range n.Dependents {
			if _, done := seen[depName]; done {
				continue
			}
			seen[depName] = struct{}{}
			visit(dep)
		}
	}
	visit(start)

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]*Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
