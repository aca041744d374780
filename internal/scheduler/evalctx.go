package scheduler

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/dag"
	"github.com/vk/flowgridgo/internal/runstate"
)

// decodeArguments evaluates the task's arguments block into the action's
// input struct, with variables, run metadata, and upstream outputs in
// scope.
func decodeArguments(rc *runstate.RunContext, node *dag.Node, input any) error {
	body := node.Task.Arguments
	if body == nil {
		body = hcl.EmptyBody()
	}

	evalCtx := buildEvalContext(rc, node)
	if diags := gohcl.DecodeBody(body, evalCtx, input); diags.HasErrors() {
		return fmt.Errorf("decoding arguments for task %q: %w", node.ID, diags)
	}
	return nil
}

// buildEvalContext assembles the expression scope for one task:
//
//	var.<name>         resolved workflow variables
//	run.id             unique run identifier
//	run.date           schedule timestamp, RFC 3339
//	run.date_nodash    schedule timestamp as YYYYMMDD, for unique naming
//	task.<name>        output of an upstream task
//
// Only direct upstream outputs are in scope; tasks exchange data through
// declared edges, never through shared mutable state.
func buildEvalContext(rc *runstate.RunContext, node *dag.Node) *hcl.EvalContext {
	varVals := make(map[string]cty.Value)
	for name, value := range rc.Vars() {
		varVals[name] = cty.StringVal(value)
	}

	scheduleTime := rc.ScheduleTime().UTC()
	runVals := map[string]cty.Value{
		"id":          cty.StringVal(rc.RunID()),
		"workflow":    cty.StringVal(rc.WorkflowName()),
		"date":        cty.StringVal(scheduleTime.Format("2006-01-02T15:04:05Z")),
		"date_nodash": cty.StringVal(scheduleTime.Format("20060102")),
	}

	taskVals := make(map[string]cty.Value)
	for depID := range node.Deps {
		if out, ok := rc.Output(depID); ok {
			taskVals[depID] = out
		}
	}

	variables := map[string]cty.Value{
		"var": cty.ObjectVal(varVals),
		"run": cty.ObjectVal(runVals),
	}
	if len(taskVals) > 0 {
		variables["task"] = cty.ObjectVal(taskVals)
	}

	return &hcl.EvalContext{Variables: variables}
}
