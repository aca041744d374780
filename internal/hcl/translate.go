package hcl

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/schema"
)

// translate converts the merged HCL schema structs into the format-agnostic
// config model, applying workflow-level defaults and validating the fields
// HCL decoding alone cannot check.
func (l *Loader) translate(ctx context.Context, root *schema.WorkflowConfig) (*config.Model, error) {
	wf := &config.Workflow{
		Name: root.Workflow.Name,
	}

	if root.Workflow.Schedule != nil {
		d, err := time.ParseDuration(*root.Workflow.Schedule)
		if err != nil {
			return nil, fmt.Errorf("workflow %q: invalid schedule: %w", wf.Name, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("workflow %q: schedule must be positive, got %s", wf.Name, d)
		}
		wf.Schedule = d
	}

	if root.Workflow.MaxRetries != nil {
		if *root.Workflow.MaxRetries < 0 {
			return nil, fmt.Errorf("workflow %q: max_retries must not be negative", wf.Name)
		}
		wf.DefaultMaxRetries = *root.Workflow.MaxRetries
	}
	if root.Workflow.RetryDelay != nil {
		d, err := time.ParseDuration(*root.Workflow.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("workflow %q: invalid retry_delay: %w", wf.Name, err)
		}
		wf.DefaultRetryDelay = d
	}

	for _, t := range root.Tasks {
		task, err := l.translateTask(t, wf)
		if err != nil {
			return nil, err
		}
		wf.Tasks = append(wf.Tasks, task)
	}

	for _, v := range root.Variables {
		variable := &config.Variable{
			Name:    v.Name,
			Default: v.Default,
		}
		if v.Description != nil {
			variable.Description = *v.Description
		}
		wf.Variables = append(wf.Variables, variable)
	}

	return &config.Model{Workflow: wf}, nil
}

// translateTask converts a single task block, falling back to the
// workflow-level retry defaults where the task does not set its own.
func (l *Loader) translateTask(t *schema.Task, wf *config.Workflow) (*config.Task, error) {
	task := &config.Task{
		ActionType:  t.ActionType,
		Name:        t.Name,
		MaxRetries:  wf.DefaultMaxRetries,
		RetryDelay:  wf.DefaultRetryDelay,
		TriggerRule: config.AllSuccess,
		DependsOn:   t.DependsOn,
	}

	if t.Arguments != nil {
		task.Arguments = t.Arguments.Body
	}

	if t.MaxRetries != nil {
		if *t.MaxRetries < 0 {
			return nil, fmt.Errorf("task %q: max_retries must not be negative", t.Name)
		}
		task.MaxRetries = *t.MaxRetries
	}
	if t.RetryDelay != nil {
		d, err := time.ParseDuration(*t.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("task %q: invalid retry_delay: %w", t.Name, err)
		}
		task.RetryDelay = d
	}
	if t.TriggerRule != nil {
		rule := config.TriggerRule(*t.TriggerRule)
		if !rule.Valid() {
			return nil, fmt.Errorf("task %q: unknown trigger_rule %q (want %q or %q)",
				t.Name, *t.TriggerRule, config.AllSuccess, config.AllDone)
		}
		task.TriggerRule = rule
	}

	return task, nil
}
