package dag

// TopologicalOrder returns every task id in an order consistent with all
// dependency edges: each upstream id appears before all of its downstream
// ids. Ties are broken by task insertion order, so the result is
// deterministic for a given graph. Because the graph is immutable once
// built, callers may range over the slice as many times as they like.
//
// A CycleError is returned if the graph is not acyclic. AddDependency
// already rejects cycle-closing edges, so this only fires on a graph whose
// invariants were bypassed.
func (g *Graph) TopologicalOrder() ([]string, error) {
	remaining := make(map[string]int, len(g.nodes))
	for id, n := range g.nodes {
		remaining[id] = len(n.Deps)
	}

	order := make([]string, 0, len(g.nodes))
	emitted := make(map[string]bool, len(g.nodes))

	// Kahn's algorithm. Instead of a queue, each round scans the insertion
	// sequence for the first not-yet-emitted node with no unsatisfied
	// dependencies; that gives the insertion-order tie-break directly.
	for len(order) < len(g.nodes) {
		progressed := false
		for _, id := range g.order {
			if emitted[id] || remaining[id] != 0 {
				continue
			}
			emitted[id] = true
			order = append(order, id)
			for _, dep := range g.nodes[id].Dependents {
				remaining[dep.ID]--
			}
			progressed = true
			break
		}
		if !progressed {
			for _, id := range g.order {
				if !emitted[id] {
					return nil, &CycleError{Upstream: id, Downstream: id}
				}
			}
		}
	}

	return order, nil
}
