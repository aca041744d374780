package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/dag"
	"github.com/vk/flowgridgo/internal/runstate"
	"github.com/vk/flowgridgo/internal/scheduler"
	"github.com/vk/flowgridgo/internal/vars"
)

// Run executes the application: builds the dependency graph, then runs the
// workflow once or on its declared schedule until the context is cancelled.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if appConfig.StatusPort > 0 {
		go a.startStatusServer(appConfig.StatusPort)
	}

	a.logger.Debug("Building dependency graph from workflow model...")
	graph, err := dag.Build(ctx, a.model, a.registry)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "task_count", graph.Len())
	a.logger.Info("Action types registered:", "types", a.registry.ActionTypes())

	if graph.Len() == 0 {
		a.logger.Warn("No tasks found in workflow, nothing to run.")
		return nil
	}

	source := vars.EnvSource{Prefix: appConfig.VarPrefix}
	sched := scheduler.New(graph, a.registry, source, a.model.Workflow, appConfig.WorkerCount)
	sched.ObserveRuns(func(rc *runstate.RunContext) {
		a.currentRun.Store(rc)
	})

	schedule := a.model.Workflow.Schedule
	if appConfig.Once || schedule <= 0 {
		return a.runOnce(ctx, sched, time.Now())
	}
	return a.runOnSchedule(ctx, sched, schedule)
}

// runOnce performs a single run; a failed run surfaces as an error so the
// process exits non-zero.
func (a *App) runOnce(ctx context.Context, sched *scheduler.Scheduler, scheduleTime time.Time) error {
	report, err := sched.StartRun(ctx, scheduleTime)
	if err != nil {
		return err
	}
	a.logReport(report)
	if !report.Succeeded {
		return fmt.Errorf("run %s finished with failures", report.RunID)
	}
	return nil
}

// runOnSchedule triggers a run immediately and then once per interval
// until the context is cancelled. A failed or unstartable run never stops
// the schedule; the next tick starts a fresh run with freshly resolved
// variables.
func (a *App) runOnSchedule(ctx context.Context, sched *scheduler.Scheduler, interval time.Duration) error {
	a.logger.Info("Workflow scheduled.", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for scheduleTime := time.Now(); ; {
		report, err := sched.StartRun(ctx, scheduleTime)
		if err != nil {
			a.logger.Error("Run could not start.", "error", err)
		} else {
			a.logReport(report)
		}

		select {
		case <-ctx.Done():
			a.logger.Info("Schedule stopped.", "reason", ctx.Err())
			return nil
		case scheduleTime = <-ticker.C:
		}
	}
}

// logReport emits the per-task breakdown of a finished run. Failures of
// teardown tasks get their own loud line: a failed all_done task means
// something external may still be running and needs manual attention.
func (a *App) logReport(report *runstate.Report) {
	logger := a.logger.With("run_id", report.RunID)
	for _, t := range report.Tasks {
		taskLogger := logger.With("task_id", t.ID, "status", t.Status.String(), "attempts", t.Attempts)
		switch {
		case t.CleanupFailed:
			taskLogger.Error("Teardown task failed; manual cleanup may be required.", "error", t.Err)
		case t.Status == runstate.Failed:
			taskLogger.Error("Task failed.", "error", t.Err)
		case t.Status.Succeeded():
			taskLogger.Info("Task completed.")
		default:
			taskLogger.Warn("Task did not run.")
		}
	}
	logger.Info("Run report.",
		"succeeded", report.Succeeded,
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)
}
