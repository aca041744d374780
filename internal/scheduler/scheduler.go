package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/dag"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/runstate"
	"github.com/vk/flowgridgo/internal/vars"
)

// Scheduler runs a workflow graph. The graph and registry are shared
// read-only across runs; each StartRun owns a fresh RunContext.
type Scheduler struct {
	graph    *dag.Graph
	reg      *registry.Registry
	source   vars.Source
	workflow *config.Workflow
	workers  int

	// Now supplies wall-clock time for run bookkeeping. Tests swap it out.
	Now func() time.Time

	// onRunContext, when set, observes every new RunContext as a run
	// starts. The app uses it to expose live status snapshots.
	onRunContext func(*runstate.RunContext)
}

// New creates a Scheduler for the given graph. workers bounds how many
// tasks execute concurrently; values below 1 are raised to 1.
func New(graph *dag.Graph, reg *registry.Registry, source vars.Source, workflow *config.Workflow, workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		graph:    graph,
		reg:      reg,
		source:   source,
		workflow: workflow,
		workers:  workers,
		Now:      time.Now,
	}
}

// ObserveRuns registers a callback invoked with each run's RunContext just
// before execution begins.
func (s *Scheduler) ObserveRuns(fn func(*runstate.RunContext)) {
	s.onRunContext = fn
}

// result signals the event loop that a task reached a terminal status,
// whether it executed or was settled without running.
type result struct {
	node *dag.Node
}

// StartRun executes one complete run of the graph for the given logical
// schedule time and returns its report. Variables are resolved once, up
// front; a missing variable fails this run without touching any task.
// Task-level failures never surface as an error here; they are statuses in
// the report.
func (s *Scheduler) StartRun(ctx context.Context, scheduleTime time.Time) (*runstate.Report, error) {
	resolved, err := vars.Resolve(s.source, s.workflow.Variables)
	if err != nil {
		return nil, fmt.Errorf("resolving variables for workflow %q: %w", s.workflow.Name, err)
	}

	runID := fmt.Sprintf("%s__%s__%s",
		s.workflow.Name,
		scheduleTime.UTC().Format("20060102T150405Z"),
		uuid.NewString()[:8],
	)

	rc := runstate.NewRunContext(runID, s.workflow.Name, scheduleTime, resolved, s.graph)
	logger := ctxlog.FromContext(ctx).With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	if s.onRunContext != nil {
		s.onRunContext(rc)
	}

	rc.MarkStarted(s.Now())
	logger.Info("▶️ Run started.", "workflow", s.workflow.Name, "tasks", s.graph.Len(), "workers", s.workers)

	s.execute(ctx, rc)

	rc.MarkFinished(s.Now())
	report := rc.Report()
	if report.Succeeded {
		logger.Info("✅ Run finished.", "succeeded", true)
	} else {
		logger.Warn("Run finished with failures.", "succeeded", false)
	}
	return report, nil
}

// execute drives one run to completion: every task reaches a terminal
// status before it returns.
func (s *Scheduler) execute(ctx context.Context, rc *runstate.RunContext) {
	total := s.graph.Len()
	if total == 0 {
		return
	}

	ready := make(chan *dag.Node, total)
	results := make(chan result, total)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, rc, ready, results, workerID)
		}(i)
	}

	// remaining counts unsatisfied upstream tasks per node. Only this
	// event loop touches it; workers communicate through results.
	remaining := make(map[string]int, total)
	for _, node := range s.graph.Tasks() {
		remaining[node.ID] = len(node.Deps)
	}
	for _, node := range s.graph.Tasks() {
		if remaining[node.ID] == 0 {
			s.dispatch(ctx, rc, node, ready, results)
		}
	}

	completed := 0
	for completed < total {
		res := <-results
		completed++
		for _, dependent := range res.node.Dependents {
			remaining[dependent.ID]--
			if remaining[dependent.ID] == 0 {
				s.dispatch(ctx, rc, dependent, ready, results)
			}
		}
	}

	close(ready)
	wg.Wait()
}

// dispatch decides what happens to a task whose upstreams are all
// terminal: execute it, or settle it without running. Settled tasks feed a
// synthetic result so that propagation continues transitively. Both
// channels are buffered for the whole graph, so sends never block.
func (s *Scheduler) dispatch(ctx context.Context, rc *runstate.RunContext, node *dag.Node, ready chan<- *dag.Node, results chan<- result) {
	logger := ctxlog.FromContext(ctx)

	// A cancelled run launches nothing new, except teardown tasks: an
	// all_done gate is a promise that the task runs once its upstreams are
	// terminal, cancellation included.
	if ctx.Err() != nil && node.Task.TriggerRule != config.AllDone {
		logger.Warn("Run cancelled, task will not start.", "task_id", node.ID)
		s.settle(rc, node, runstate.Cancelled, ctx.Err())
		results <- result{node: node}
		return
	}

	switch s.evaluateGate(node, rc) {
	case gateLaunch:
		ready <- node
	case gateUpstreamFailed:
		logger.Warn("Task blocked by upstream failure.", "task_id", node.ID)
		s.settle(rc, node, runstate.UpstreamFailed, nil)
		results <- result{node: node}
	case gateSkip:
		logger.Info("Task skipped because an upstream task was skipped.", "task_id", node.ID)
		s.settle(rc, node, runstate.Skipped, nil)
		results <- result{node: node}
	}
}

// settle records a terminal status for a task that never executed.
func (s *Scheduler) settle(rc *runstate.RunContext, node *dag.Node, status runstate.Status, err error) {
	if err != nil {
		rc.RecordError(node.ID, err)
	}
	// Record can only fail on a scheduler bug; the event loop dispatches
	// each task exactly once, so the status here is always first.
	if recErr := rc.Record(node.ID, status); recErr != nil {
		panic(recErr)
	}
}

type gateDecision int

const (
	gateLaunch gateDecision = iota
	gateUpstreamFailed
	gateSkip
)

// evaluateGate applies the task's trigger rule to its upstream statuses.
// Callers guarantee every upstream is terminal.
func (s *Scheduler) evaluateGate(node *dag.Node, rc *runstate.RunContext) gateDecision {
	if node.Task.TriggerRule == config.AllDone {
		return gateLaunch
	}

	// all_success: any upstream that did not succeed blocks the task, and
	// an upstream skip propagates as a skip rather than a failure.
	skip := false
	for depID := range node.Deps {
		status, err := rc.StatusOf(depID)
		if err != nil {
			panic(err)
		}
		switch status {
		case runstate.Failed, runstate.UpstreamFailed, runstate.Cancelled:
			return gateUpstreamFailed
		case runstate.Skipped:
			skip = true
		}
	}
	if skip {
		return gateSkip
	}
	return gateLaunch
}
