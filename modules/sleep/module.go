// Package sleep provides the 'sleep' action: it waits for a duration or
// until the task's context is cancelled. Useful as a stand-in for slow
// external work in tests and examples.
package sleep

import (
	"context"
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	Duration string `hcl:"duration"`
}

// Run is the handler for the 'sleep' action.
func Run(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)

	d, err := time.ParseDuration(in.Duration)
	if err != nil {
		return cty.NilVal, fmt.Errorf("invalid duration: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("Sleeping.", "duration", d.String())

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return cty.NilVal, ctx.Err()
	case <-timer.C:
		return cty.ObjectVal(map[string]cty.Value{
			"slept": cty.StringVal(d.String()),
		}), nil
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("sleep", &registry.Action{
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
