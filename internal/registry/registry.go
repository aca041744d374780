package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Module is the interface that all action modules must implement to be
// registered into an application instance.
type Module interface {
	Register(r *Registry)
}

// Action holds the compiled Go parts of a single action type. The task is
// the unit of scheduling; the action is the opaque callable it runs.
type Action struct {
	// NewInput returns a pointer to a fresh, hcl-tagged input struct that
	// the task's arguments block is decoded into before each run. Nil means
	// the action takes no arguments.
	NewInput func() any
	// Fn executes the action. It receives the decoded input (or nil when
	// NewInput is nil) and returns the task's output value. Returning an
	// error marks the attempt failed; the scheduler owns retries.
	Fn func(ctx context.Context, input any) (cty.Value, error)
}

// Registry holds all registered actions for a single application instance.
type Registry struct {
	actions map[string]*Action
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		actions: make(map[string]*Action),
	}
}

// RegisterAction registers a Go handler for an action type. Registering the
// same name twice is a programmer error and panics at startup.
func (r *Registry) RegisterAction(name string, a *Action) {
	if _, exists := r.actions[name]; exists {
		panic(fmt.Sprintf("action with name '%s' already registered", name))
	}
	if a == nil || a.Fn == nil {
		panic(fmt.Sprintf("action '%s' registered without a handler function", name))
	}
	slog.Debug("Registering action handler.", "name", name)
	r.actions[name] = a
}

// Action returns the handler registered for the given action type.
func (r *Registry) Action(name string) (*Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// ActionTypes returns the sorted names of all registered action types.
func (r *Registry) ActionTypes() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
