package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/runstate"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model

	// currentRun tracks the most recently started run for the status
	// endpoint. Reads go through RunContext.Snapshot, never raw state.
	currentRun atomic.Pointer[runstate.RunContext]
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Configuration loading failures are critical startup errors and panic;
// the CLI entrypoint recovers them into a clean exit.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.WorkflowPath)
	if err != nil {
		panic(fmt.Errorf("failed to load workflow configuration: %w", err))
	}
	logger.Debug("Workflow configuration loaded.", "workflow", model.Workflow.Name)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All action modules registered.", "count", len(modules))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded workflow model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
