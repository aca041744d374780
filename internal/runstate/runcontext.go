package runstate

import (
	"fmt"
	"sync"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/dag"
)

// InvalidTransitionError reports an attempt to move a task out of a
// terminal status. It indicates a scheduler bug, not a task failure.
type InvalidTransitionError struct {
	TaskID string
	From   Status
	To     Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for task %q: %s -> %s", e.TaskID, e.From, e.To)
}

// taskState is the mutable per-run state of one task.
type taskState struct {
	task      *config.Task
	status    Status
	attempts  int
	err       error
	output    cty.Value
	hasOutput bool
}

// RunContext is the per-run state for one execution of a workflow. It is
// created at run start and mutated only by the scheduler that owns the run;
// every read path is mutex-synchronized so observers never see torn state.
type RunContext struct {
	mu sync.RWMutex

	runID        string
	workflowName string
	scheduleTime time.Time
	vars         map[string]string

	tasks map[string]*taskState
	order []string

	startedAt  time.Time
	finishedAt time.Time
}

// NewRunContext creates the state for a fresh run over the given graph.
// Every task starts Pending with zero attempts.
func NewRunContext(runID, workflowName string, scheduleTime time.Time, vars map[string]string, graph *dag.Graph) *RunContext {
	rc := &RunContext{
		runID:        runID,
		workflowName: workflowName,
		scheduleTime: scheduleTime,
		vars:         vars,
		tasks:        make(map[string]*taskState, graph.Len()),
	}
	for _, node := range graph.Tasks() {
		rc.tasks[node.ID] = &taskState{task: node.Task, status: Pending}
		rc.order = append(rc.order, node.ID)
	}
	return rc
}

// RunID returns the unique identifier of this run.
func (rc *RunContext) RunID() string { return rc.runID }

// ScheduleTime returns the logical timestamp this run was scheduled for.
func (rc *RunContext) ScheduleTime() time.Time { return rc.scheduleTime }

// WorkflowName returns the name of the workflow being run.
func (rc *RunContext) WorkflowName() string { return rc.workflowName }

// Var returns the resolved value of a workflow variable.
func (rc *RunContext) Var(name string) (string, bool) {
	v, ok := rc.vars[name]
	return v, ok
}

// Vars returns a copy of all resolved variables.
func (rc *RunContext) Vars() map[string]string {
	out := make(map[string]string, len(rc.vars))
	for k, v := range rc.vars {
		out[k] = v
	}
	return out
}

// StatusOf returns the current status of a task. Repeated calls without an
// intervening Record return the same value.
func (rc *RunContext) StatusOf(taskID string) (Status, error) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	ts, ok := rc.tasks[taskID]
	if !ok {
		return Pending, &dag.UnknownTaskError{ID: taskID}
	}
	return ts.status, nil
}

// Attempts returns how many attempts the task has made so far.
func (rc *RunContext) Attempts(taskID string) (int, error) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	ts, ok := rc.tasks[taskID]
	if !ok {
		return 0, &dag.UnknownTaskError{ID: taskID}
	}
	return ts.attempts, nil
}

// Record transitions a task to a new status. It is the only status mutator
// and enforces monotonicity: a terminal status is frozen, Pending may move
// to Running or straight to a terminal status, and Running may re-enter
// Running across retry attempts or settle into a terminal status.
func (rc *RunContext) Record(taskID string, to Status) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	ts, ok := rc.tasks[taskID]
	if !ok {
		return &dag.UnknownTaskError{ID: taskID}
	}

	from := ts.status
	if from.Terminal() {
		return &InvalidTransitionError{TaskID: taskID, From: from, To: to}
	}
	if to == Pending {
		return &InvalidTransitionError{TaskID: taskID, From: from, To: to}
	}

	ts.status = to
	return nil
}

// RecordAttempt increments and returns the task's attempt counter. The
// scheduler calls it at the start of every attempt.
func (rc *RunContext) RecordAttempt(taskID string) (int, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	ts, ok := rc.tasks[taskID]
	if !ok {
		return 0, &dag.UnknownTaskError{ID: taskID}
	}
	ts.attempts++
	return ts.attempts, nil
}

// RecordError stores the most recent error observed for a task.
func (rc *RunContext) RecordError(taskID string, err error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if ts, ok := rc.tasks[taskID]; ok {
		ts.err = err
	}
}

// RecordOutput stores the output value a successful task produced.
func (rc *RunContext) RecordOutput(taskID string, output cty.Value) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if ts, ok := rc.tasks[taskID]; ok {
		ts.output = output
		ts.hasOutput = true
	}
}

// Output returns the output value recorded for a task. The second return
// reports whether the task produced one.
func (rc *RunContext) Output(taskID string) (cty.Value, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	if ts, ok := rc.tasks[taskID]; ok && ts.hasOutput {
		return ts.output, true
	}
	return cty.NilVal, false
}

// MarkStarted records the wall-clock start of the run.
func (rc *RunContext) MarkStarted(t time.Time) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.startedAt = t
}

// MarkFinished records the wall-clock end of the run.
func (rc *RunContext) MarkFinished(t time.Time) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.finishedAt = t
}

// AllTerminal reports whether every task in the run has reached a terminal
// status.
func (rc *RunContext) AllTerminal() bool {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	for _, ts := range rc.tasks {
		if !ts.status.Terminal() {
			return false
		}
	}
	return true
}
