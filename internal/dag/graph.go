package dag

import (
	"github.com/vk/flowgridgo/internal/config"
)

// Graph is a DAG of task definitions. It is mutable while being built and
// must be treated as immutable once handed to a scheduler; schedulers keep
// all per-run state in their own run context, so one Graph serves any
// number of concurrent runs.
type Graph struct {
	nodes map[string]*Node
	// order records task insertion order. Topological ordering breaks ties
	// by this sequence, which makes runs deterministic.
	order []string
}

// Node is a single task within the graph, with its dependency links.
type Node struct {
	// ID is the task's unique name within the workflow.
	ID string
	// Task is the immutable definition this node was built from.
	Task *config.Task
	// Deps holds the upstream nodes this node depends on.
	Deps map[string]*Node
	// Dependents holds the downstream nodes that depend on this node.
	Dependents map[string]*Node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
	}
}

// AddTask registers a task definition as a node in the graph. It returns a
// DuplicateTaskError if the task's name is already present.
func (g *Graph) AddTask(t *config.Task) error {
	if _, ok := g.nodes[t.Name]; ok {
		return &DuplicateTaskError{ID: t.Name}
	}

	g.nodes[t.Name] = &Node{
		ID:         t.Name,
		Task:       t,
		Deps:       make(map[string]*Node),
		Dependents: make(map[string]*Node),
	}
	g.order = append(g.order, t.Name)
	return nil
}

// AddDependency creates a directed edge from the upstream task to the
// downstream task. It returns an UnknownTaskError if either id is absent
// and a CycleError if the edge would make the graph cyclic; in both cases
// the graph is left unchanged.
func (g *Graph) AddDependency(upstreamID, downstreamID string) error {
	upstream, ok := g.nodes[upstreamID]
	if !ok {
		return &UnknownTaskError{ID: upstreamID}
	}
	downstream, ok := g.nodes[downstreamID]
	if !ok {
		return &UnknownTaskError{ID: downstreamID}
	}

	if upstreamID == downstreamID {
		return &CycleError{Upstream: upstreamID, Downstream: downstreamID}
	}

	// The edge closes a cycle iff the upstream node is already reachable
	// from the downstream node. Checking before mutating keeps the graph
	// intact on failure.
	if g.reachable(downstream, upstream) {
		return &CycleError{Upstream: upstreamID, Downstream: downstreamID}
	}

	downstream.Deps[upstreamID] = upstream
	upstream.Dependents[downstreamID] = downstream
	return nil
}

// reachable reports whether `to` can be reached from `from` by following
// dependent edges.
func (g *Graph) reachable(from, to *Node) bool {
	if from == to {
		return true
	}
	seen := make(map[string]bool)
	stack := []*Node{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		for _, dep := range n.Dependents {
			if dep == to {
				return true
			}
			stack = append(stack, dep)
		}
	}
	return false
}

// Task returns the node for the given id, or an UnknownTaskError.
func (g *Graph) Task(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, &UnknownTaskError{ID: id}
	}
	return n, nil
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Tasks returns all nodes in insertion order.
func (g *Graph) Tasks() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}
