package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// TaskArgs represents the content of the 'arguments' block within a task.
type TaskArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// Task represents a `task` block from a user's workflow file. It is a
// runnable instance of a registered action.
type Task struct {
	ActionType  string    `hcl:"action_type,label"`
	Name        string    `hcl:"task_name,label"`
	Arguments   *TaskArgs `hcl:"arguments,block"`
	MaxRetries  *int      `hcl:"max_retries,optional"`
	RetryDelay  *string   `hcl:"retry_delay,optional"`
	TriggerRule *string   `hcl:"trigger_rule,optional"`
	DependsOn   []string  `hcl:"depends_on,optional"`
}

// Workflow represents the single `workflow` block that names the DAG and
// carries run-level defaults.
type Workflow struct {
	Name       string  `hcl:"workflow_name,label"`
	Schedule   *string `hcl:"schedule,optional"`
	MaxRetries *int    `hcl:"max_retries,optional"`
	RetryDelay *string `hcl:"retry_delay,optional"`
}

// Variable declares an external parameter the workflow requires. Values
// come from the configuration source at run start, never from this file.
type Variable struct {
	Name        string  `hcl:"variable_name,label"`
	Description *string `hcl:"description,optional"`
	Default     *string `hcl:"default,optional"`
}

// WorkflowConfig represents the top-level structure of a workflow file.
type WorkflowConfig struct {
	Workflow  *Workflow   `hcl:"workflow,block"`
	Tasks     []*Task     `hcl:"task,block"`
	Variables []*Variable `hcl:"variable,block"`
	Body      hcl.Body    `hcl:",remain"`
}
