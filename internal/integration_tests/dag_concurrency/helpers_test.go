package integration_tests

import (
	"context"
	"sync"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/app"
	"github.com/vk/flowgridgo/internal/registry"
)

// mockSleeperModule is a self-contained module for concurrency tests. Each
// invocation records its wall-clock execution window under the id argument.
type mockSleeperModule struct {
	mu             sync.Mutex
	executionTimes map[string]*app.ExecutionRecord
	sleepDuration  time.Duration
}

func newMockSleeperModule(sleep time.Duration) *mockSleeperModule {
	return &mockSleeperModule{
		executionTimes: make(map[string]*app.ExecutionRecord),
		sleepDuration:  sleep,
	}
}

func (m *mockSleeperModule) record(id string) *app.ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executionTimes[id]
}

// Register registers the "sleeper" action.
func (m *mockSleeperModule) Register(r *registry.Registry) {
	type sleeperInput struct {
		ID string `hcl:"id"`
	}
	r.RegisterAction("sleeper", &registry.Action{
		NewInput: func() any { return new(sleeperInput) },
		Fn: func(_ context.Context, inputRaw any) (cty.Value, error) {
			input := inputRaw.(*sleeperInput)

			startTime := time.Now()
			time.Sleep(m.sleepDuration)
			endTime := time.Now()

			m.mu.Lock()
			m.executionTimes[input.ID] = &app.ExecutionRecord{Start: startTime, End: endTime}
			m.mu.Unlock()

			return cty.NilVal, nil
		},
	})
}

// overlaps reports whether two execution windows intersect in time.
func overlaps(a, b *app.ExecutionRecord) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
