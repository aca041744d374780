package dag

import (
	"context"
	"fmt"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
)

// Build constructs a complete, validated dependency graph from a loaded
// workflow model. Construction fails fast: any duplicate task, unknown
// action type, dangling depends_on reference, or cycle aborts the build
// with no partial graph handed out.
func Build(ctx context.Context, model *config.Model, r *registry.Registry) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.")

	graph := New()

	// First pass: create all nodes, checking action types exist.
	for _, t := range model.Workflow.Tasks {
		if _, ok := r.Action(t.ActionType); !ok {
			return nil, fmt.Errorf("task %q: unknown action type %q", t.Name, t.ActionType)
		}
		if err := graph.AddTask(t); err != nil {
			return nil, err
		}
	}
	logger.Debug("Build: node creation complete.", "task_count", graph.Len())

	// Second pass: link explicit dependencies.
	for _, t := range model.Workflow.Tasks {
		for _, upstream := range t.DependsOn {
			if err := graph.AddDependency(upstream, t.Name); err != nil {
				return nil, fmt.Errorf("task %q: %w", t.Name, err)
			}
		}
	}
	logger.Debug("Build: dependency linking complete.")

	// AddDependency rejects cycle-closing edges one at a time; ordering the
	// whole graph revalidates the final shape in one pass.
	if _, err := graph.TopologicalOrder(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: graph construction successful.")

	return graph, nil
}
