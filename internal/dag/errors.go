package dag

import "fmt"

// DuplicateTaskError reports an attempt to register a task id twice.
type DuplicateTaskError struct {
	ID string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %q already registered", e.ID)
}

// UnknownTaskError reports a reference to a task id that is not in the graph.
type UnknownTaskError struct {
	ID string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown task %q", e.ID)
}

// CycleError reports an edge that would make the graph cyclic, or a cycle
// found during whole-graph validation.
type CycleError struct {
	Upstream   string
	Downstream string
}

func (e *CycleError) Error() string {
	if e.Upstream == e.Downstream {
		return fmt.Sprintf("cycle detected involving task %q", e.Upstream)
	}
	return fmt.Sprintf("dependency %s -> %s would create a cycle", e.Upstream, e.Downstream)
}
