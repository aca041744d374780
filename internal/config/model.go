package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
)

// TriggerRule decides whether a task may run based on the terminal statuses
// of its upstream tasks.
type TriggerRule string

const (
	// AllSuccess runs the task only when every upstream task succeeded.
	// This is the default rule.
	AllSuccess TriggerRule = "all_success"
	// AllDone runs the task once every upstream task is terminal, whatever
	// the outcome. This is the rule that guarantees teardown tasks run even
	// when the work they clean up after has failed.
	AllDone TriggerRule = "all_done"
)

// Valid reports whether the rule is one of the supported values.
func (r TriggerRule) Valid() bool {
	return r == AllSuccess || r == AllDone
}

// Model is the unified, format-agnostic representation of the entire
// loaded configuration.
type Model struct {
	Workflow *Workflow
}

// Workflow is a named DAG of tasks plus the run-level settings that apply
// to every task in it.
type Workflow struct {
	Name string
	// Schedule is the fixed interval between scheduled runs. Zero means the
	// workflow only runs when triggered once.
	Schedule time.Duration
	// DefaultMaxRetries and DefaultRetryDelay apply to tasks that do not
	// set their own retry policy.
	DefaultMaxRetries int
	DefaultRetryDelay time.Duration

	// Tasks preserves definition order; graph construction and
	// topological tie-breaking depend on it.
	Tasks []*Task

	// Variables declares the external parameters the workflow requires.
	// They are resolved once at the start of each run.
	Variables []*Variable
}

// Task is the format-agnostic representation of a `task` block. Task
// definitions are immutable after loading and shared read-only across runs;
// all per-run state lives in the run context.
type Task struct {
	// ActionType names the registered Go action that executes this task.
	ActionType string
	// Name identifies the task within its workflow. Unique.
	Name string
	// Arguments is the raw body of the `arguments` block, decoded against
	// the action's input struct at execution time so that expressions can
	// reference variables, run metadata, and upstream outputs.
	Arguments hcl.Body

	MaxRetries  int
	RetryDelay  time.Duration
	TriggerRule TriggerRule

	// DependsOn lists the names of upstream tasks that must be terminal
	// before this task is considered runnable.
	DependsOn []string
}

// Variable is the format-agnostic representation of a `variable` block.
type Variable struct {
	Name        string
	Description string
	// Default, when non-nil, is used if the external source has no value.
	Default *string
}
