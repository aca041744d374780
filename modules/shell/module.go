// Package shell provides the 'shell' action: it runs an external command
// with the task's context, so cancelling a run kills the process. This is
// the workhorse action for workflows that script real infrastructure
// tooling.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	Command string   `hcl:"command"`
	Args    []string `hcl:"args,optional"`
	Dir     *string  `hcl:"dir,optional"`
}

// Run is the handler for the 'shell' action.
func Run(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Running command", "command", in.Command, "args", in.Args)

	cmd := exec.CommandContext(ctx, in.Command, in.Args...)
	if in.Dir != nil {
		cmd.Dir = *in.Dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return cty.NilVal, fmt.Errorf("command %q failed: %w: %s", in.Command, err, stderr.String())
	}

	return cty.ObjectVal(map[string]cty.Value{
		"stdout": cty.StringVal(stdout.String()),
		"stderr": cty.StringVal(stderr.String()),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("shell", &registry.Action{
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
