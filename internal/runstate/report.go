package runstate

import (
	"time"

	"github.com/vk/flowgridgo/internal/config"
)

// TaskSnapshot is the externally visible state of one task at a point in
// time.
type TaskSnapshot struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	Attempts    int                `json:"attempts"`
	Error       string             `json:"error,omitempty"`
	TriggerRule config.TriggerRule `json:"trigger_rule"`
}

// Snapshot is a consistent copy of a run's state, safe to serve to
// observers while the run is in flight.
type Snapshot struct {
	RunID        string         `json:"run_id"`
	Workflow     string         `json:"workflow"`
	ScheduleTime time.Time      `json:"schedule_time"`
	Tasks        []TaskSnapshot `json:"tasks"`
}

// Snapshot returns a consistent copy of the run state. Tasks appear in
// definition order.
func (rc *RunContext) Snapshot() Snapshot {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	snap := Snapshot{
		RunID:        rc.runID,
		Workflow:     rc.workflowName,
		ScheduleTime: rc.scheduleTime,
		Tasks:        make([]TaskSnapshot, 0, len(rc.order)),
	}
	for _, id := range rc.order {
		ts := rc.tasks[id]
		t := TaskSnapshot{
			ID:          id,
			Status:      ts.status.String(),
			Attempts:    ts.attempts,
			TriggerRule: ts.task.TriggerRule,
		}
		if ts.err != nil {
			t.Error = ts.err.Error()
		}
		snap.Tasks = append(snap.Tasks, t)
	}
	return snap
}

// TaskReport is the final per-task breakdown of a finished run.
type TaskReport struct {
	ID       string
	Status   Status
	Attempts int
	Err      error
	// CleanupFailed flags a failed task that was gated with all_done. Such
	// a failure means external teardown may not have happened; it must be
	// surfaced, never swallowed.
	CleanupFailed bool
}

// Report is the outcome of one finished run.
type Report struct {
	RunID        string
	Workflow     string
	ScheduleTime time.Time
	StartedAt    time.Time
	FinishedAt   time.Time
	// Succeeded is true iff every task ended Success or Skipped.
	Succeeded bool
	Tasks     []TaskReport
}

// Report builds the final per-task breakdown. Call it only after the run
// has drained; it does not wait.
func (rc *RunContext) Report() *Report {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	r := &Report{
		RunID:        rc.runID,
		Workflow:     rc.workflowName,
		ScheduleTime: rc.scheduleTime,
		StartedAt:    rc.startedAt,
		FinishedAt:   rc.finishedAt,
		Succeeded:    true,
		Tasks:        make([]TaskReport, 0, len(rc.order)),
	}
	for _, id := range rc.order {
		ts := rc.tasks[id]
		tr := TaskReport{
			ID:       id,
			Status:   ts.status,
			Attempts: ts.attempts,
			Err:      ts.err,
		}
		if ts.status == Failed && ts.task.TriggerRule == config.AllDone {
			tr.CleanupFailed = true
		}
		if !ts.status.Succeeded() {
			r.Succeeded = false
		}
		r.Tasks = append(r.Tasks, tr)
	}
	return r
}
