// Package runstate owns all per-run mutable state: the status and attempt
// count of every task, the resolved variables, and the final report. The
// scheduler is the sole writer; observers read through snapshots.
package runstate

// Status is the lifecycle state of a task within one run.
type Status int

const (
	// Pending means the task has not started yet.
	Pending Status = iota
	// Running means an attempt of the task is executing.
	Running
	// Success means the task's action completed without error.
	Success
	// Failed means the task's action failed and its retry budget is spent.
	Failed
	// UpstreamFailed means the task never ran because an upstream task
	// failed and the task's trigger rule requires upstream success.
	UpstreamFailed
	// Skipped means the task was deliberately not run, either by its own
	// action or because an upstream task was skipped.
	Skipped
	// Cancelled means the run was cancelled before the task reached a
	// natural terminal state.
	Cancelled
)

var statusNames = map[Status]string{
	Pending:        "PENDING",
	Running:        "RUNNING",
	Success:        "SUCCESS",
	Failed:         "FAILED",
	UpstreamFailed: "UPSTREAM_FAILED",
	Skipped:        "SKIPPED",
	Cancelled:      "CANCELLED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether no further transition can occur from s within a run.
func (s Status) Terminal() bool {
	switch s {
	case Success, Failed, UpstreamFailed, Skipped, Cancelled:
		return true
	default:
		return false
	}
}

// Succeeded reports whether s counts toward a successful run outcome.
// A skipped task was deliberately not run, so it counts as a success.
func (s Status) Succeeded() bool {
	return s == Success || s == Skipped
}
