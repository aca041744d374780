package integration_tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowgridgo/internal/app"
)

// Test for: a fan-in task waits for every one of its upstreams.
func TestDagConcurrency_FanIn_WaitsForAllUpstreams(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "fan_in" {}

		task "sleeper" "a" {
			arguments { id = "a" }
		}

		task "sleeper" "b" {
			arguments { id = "b" }
		}

		task "sleeper" "c" {
			arguments { id = "c" }
		}

		task "sleeper" "join" {
			depends_on = ["a", "b", "c"]
			arguments { id = "join" }
		}
	`
	tempDir := t.TempDir()
	workflowPath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(workflowPath, []byte(workflowHCL), 0600))

	sleeper := newMockSleeperModule(80 * time.Millisecond)
	appConfig := &app.Config{WorkflowPath: workflowPath, WorkerCount: 4}
	testApp, _ := app.SetupAppTest(t, appConfig, sleeper)

	// --- Act ---
	runErr := testApp.Run(context.Background(), appConfig)

	// --- Assert ---
	require.NoError(t, runErr)

	join := sleeper.record("join")
	require.NotNil(t, join)
	for _, id := range []string{"a", "b", "c"} {
		upstream := sleeper.record(id)
		require.NotNil(t, upstream)
		assert.False(t, upstream.End.After(join.Start),
			"join started before upstream %q finished", id)
	}
}
