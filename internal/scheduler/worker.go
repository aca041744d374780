package scheduler

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/dag"
	"github.com/vk/flowgridgo/internal/runstate"
)

// worker is the processing loop for a single concurrent execution slot.
// A retry wait suspends only the worker running that task; independent
// branches keep flowing through the other workers.
func (s *Scheduler) worker(ctx context.Context, rc *runstate.RunContext, ready <-chan *dag.Node, results chan<- result, workerID int) {
	logger := ctxlog.FromContext(ctx).With("worker_id", workerID)
	logger.Debug("Worker started.")

	for node := range ready {
		s.executeTask(ctx, rc, node)
		results <- result{node: node}
	}
	logger.Debug("Worker finished.")
}

// executeTask runs one task to a terminal status, applying its retry
// policy. The backoff loop keeps the wait local to this goroutine.
func (s *Scheduler) executeTask(ctx context.Context, rc *runstate.RunContext, node *dag.Node) {
	logger := ctxlog.FromContext(ctx).With("task_id", node.ID)

	execCtx := ctx
	if node.Task.TriggerRule == config.AllDone {
		// Teardown tasks outlive run cancellation. Values (the run logger
		// included) survive the detach.
		execCtx = context.WithoutCancel(ctx)
	} else if ctx.Err() != nil {
		// A cancellation raced ahead of this task between dispatch and
		// pickup. Honor it without starting an attempt.
		s.settle(rc, node, runstate.Cancelled, ctx.Err())
		return
	}

	if err := rc.Record(node.ID, runstate.Running); err != nil {
		panic(err)
	}
	logger.Info("▶️ Task started.", "action", node.Task.ActionType)

	var output cty.Value
	operation := func() error {
		attempt, err := rc.RecordAttempt(node.ID)
		if err != nil {
			return backoff.Permanent(err)
		}
		if attempt > 1 {
			// Running -> Running re-entry, the one permitted repeat.
			if recErr := rc.Record(node.ID, runstate.Running); recErr != nil {
				return backoff.Permanent(recErr)
			}
			logger.Info("Retrying task.", "attempt", attempt, "max_retries", node.Task.MaxRetries)
		}

		out, runErr := s.runAction(execCtx, rc, node)
		if runErr != nil {
			wrapped := &TaskExecutionError{TaskID: node.ID, Attempt: attempt, Err: runErr}
			rc.RecordError(node.ID, wrapped)
			if errors.Is(runErr, ErrSkipTask) {
				return backoff.Permanent(wrapped)
			}
			logger.Warn("Task attempt failed.", "attempt", attempt, "error", runErr)
			return wrapped
		}
		output = out
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(node.Task.RetryDelay), uint64(node.Task.MaxRetries)),
		execCtx,
	)
	err := backoff.Retry(operation, policy)

	switch {
	case err == nil:
		rc.RecordOutput(node.ID, output)
		s.settleExecuted(rc, node, runstate.Success)
		logger.Info("✅ Task succeeded.")
	case errors.Is(err, ErrSkipTask):
		rc.RecordError(node.ID, nil)
		s.settleExecuted(rc, node, runstate.Skipped)
		logger.Info("Task skipped by its action.")
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		s.settleExecuted(rc, node, runstate.Cancelled)
		logger.Warn("Task cancelled mid-execution.")
	default:
		s.settleExecuted(rc, node, runstate.Failed)
		logger.Error("❌ Task failed.", "error", err)
	}
}

// settleExecuted records the terminal status of a task that went through
// Running.
func (s *Scheduler) settleExecuted(rc *runstate.RunContext, node *dag.Node, status runstate.Status) {
	if err := rc.Record(node.ID, status); err != nil {
		panic(err)
	}
}

// runAction decodes the task's arguments against the action's input struct
// and invokes the action. Decoding happens per attempt so expressions see
// the freshest upstream outputs, though within one run those never change
// after the upstream settles.
func (s *Scheduler) runAction(ctx context.Context, rc *runstate.RunContext, node *dag.Node) (cty.Value, error) {
	action, ok := s.reg.Action(node.Task.ActionType)
	if !ok {
		// Build validates action types; reaching this means the registry
		// changed under a live graph.
		panic("action type vanished from registry: " + node.Task.ActionType)
	}

	var input any
	if action.NewInput != nil {
		input = action.NewInput()
		if err := decodeArguments(rc, node, input); err != nil {
			return cty.NilVal, err
		}
	}

	return action.Fn(ctx, input)
}
