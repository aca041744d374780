// Package testutil provides mock action modules shared by tests across
// packages. None of these actions ship with the binary.
package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/registry"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single action.
type SimpleModule struct {
	ActionName string
	Action     *registry.Action
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.ActionName != "" && m.Action != nil {
		r.RegisterAction(m.ActionName, m.Action)
	}
}

// NoOpModule registers a single "noop" action that takes no arguments and
// does nothing. It's useful for tests that should fail before execution
// begins but still need valid HCL that can pass registry validation.
type NoOpModule struct{}

// Register registers the "noop" action.
func (m *NoOpModule) Register(r *registry.Registry) {
	r.RegisterAction("noop", &registry.Action{
		Fn: func(context.Context, any) (cty.Value, error) {
			return cty.NilVal, nil
		},
	})
}

// SpyModule registers a "spy" action that records whether and how many
// times it ran, per task, keyed by the id argument.
type SpyModule struct {
	mu    sync.Mutex
	calls map[string]int
}

// NewSpyModule creates a SpyModule ready for registration.
func NewSpyModule() *SpyModule {
	return &SpyModule{calls: make(map[string]int)}
}

// Calls returns how many times the spy ran for the given id.
func (m *SpyModule) Calls(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[id]
}

// Register registers the "spy" action.
func (m *SpyModule) Register(r *registry.Registry) {
	type spyInput struct {
		ID string `hcl:"id"`
	}
	r.RegisterAction("spy", &registry.Action{
		NewInput: func() any { return new(spyInput) },
		Fn: func(_ context.Context, inputRaw any) (cty.Value, error) {
			input := inputRaw.(*spyInput)
			m.mu.Lock()
			m.calls[input.ID]++
			m.mu.Unlock()
			return cty.ObjectVal(map[string]cty.Value{
				"id": cty.StringVal(input.ID),
			}), nil
		},
	})
}

// FlakyModule registers a "flaky" action that fails its first FailuresBefore
// attempts and succeeds afterwards. Attempts are counted across the whole
// run, so retries of the same task drive the counter.
type FlakyModule struct {
	FailuresBefore int32

	attempts atomic.Int32
}

// Attempts returns the total number of times the flaky action was invoked.
func (m *FlakyModule) Attempts() int {
	return int(m.attempts.Load())
}

// Register registers the "flaky" action.
func (m *FlakyModule) Register(r *registry.Registry) {
	r.RegisterAction("flaky", &registry.Action{
		Fn: func(context.Context, any) (cty.Value, error) {
			n := m.attempts.Add(1)
			if n <= m.FailuresBefore {
				return cty.NilVal, errors.New("transient failure injected by test")
			}
			return cty.NilVal, nil
		},
	})
}

// FailModule registers a "fail" action that always returns the injected
// error.
type FailModule struct {
	Err error
}

// Register registers the "fail" action.
func (m *FailModule) Register(r *registry.Registry) {
	r.RegisterAction("fail", &registry.Action{
		Fn: func(context.Context, any) (cty.Value, error) {
			return cty.NilVal, m.Err
		},
	})
}
