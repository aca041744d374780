package scheduler

import (
	"errors"
	"fmt"
)

// ErrSkipTask can be returned (or wrapped) by an action to mark its task
// Skipped instead of Failed. Skipped tasks count as successful and are
// never retried.
var ErrSkipTask = errors.New("task requested skip")

// TaskExecutionError wraps the failure of a single action attempt. It is
// recoverable: the scheduler retries up to the task's budget before the
// task settles into a terminal Failed status.
type TaskExecutionError struct {
	TaskID  string
	Attempt int
	Err     error
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("task %q attempt %d failed: %v", e.TaskID, e.Attempt, e.Err)
}

func (e *TaskExecutionError) Unwrap() error {
	return e.Err
}
