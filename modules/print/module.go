// Package print provides the 'print' action: it writes its message and
// values to standard output. Mostly useful for smoke-testing a workflow
// definition.
package print

import (
	"context"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the print action.
type Input struct {
	Message string            `hcl:"message,optional"`
	Values  map[string]string `hcl:"values,optional"`
}

// Run is the handler for the 'print' action.
func Run(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)
	ctxlog.FromContext(ctx).Info("Printing input")

	if in.Message != "" {
		fmt.Println(in.Message)
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(in.Values))
	for k := range in.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Printf("      %s = %q\n", k, in.Values[k])
	}

	return cty.NilVal, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("print", &registry.Action{
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
