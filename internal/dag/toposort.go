package dag

import "github.com/vk/stepflow/internal/spec"

// TopoOrder returns the steps in dependency order: every step appears before
// all steps that reference it. When several steps are simultaneously ready,
// ties are broken by document declaration order, so the result is fully
// deterministic for a given document.
func (g *Graph) TopoOrder() []*spec.StepSpec {
	indegree := make(map[string]int, len(g.Nodes))
	for name, node := range g.Nodes {
		indegree[name] = len(node.Deps)
	}

	out := make([]*spec.StepSpec, 0, len(g.Nodes))
	emitted := make(map[string]bool, len(g.Nodes))

	// Repeatedly emit the first declared step with no remaining
	// dependencies. Quadratic in the worst case, which is fine at document
	// scale and keeps the tie-break rule obvious.
	for len(out) < len(g.Nodes) {
		progressed := false
		for _, node := range g.order {
			if emitted[node.Name] || indegree[node.Name] != 0 {
				continue
			}
			emitted[node.Name] = true
			out = append(out, node.Spec)
			for _, dep := range node.Dependents {
				indegree[dep.Name]--
			}
			progressed = true
			break
		}
		if !progressed {
			// Build rejects cyclic graphs, so this cannot happen.
			panic("dag: topological sort stalled on an acyclic graph")
		}
	}
	return out
}
