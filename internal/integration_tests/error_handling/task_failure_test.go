package integration_tests

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowgridgo/internal/app"
	"github.com/vk/flowgridgo/internal/testutil"
	"github.com/vk/flowgridgo/internal/vars"
)

// Test for: a failing task skips its dependents, runs the teardown task,
// and surfaces as a non-nil run error.
func TestErrorHandling_TaskFailure_SkipsDependentsButRunsTeardown(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "pipeline" {}

		task "fail" "create" {}

		task "spy" "run_job" {
			depends_on = ["create"]
			arguments { id = "run_job" }
		}

		task "spy" "delete" {
			depends_on   = ["run_job"]
			trigger_rule = "all_done"
			arguments { id = "delete" }
		}
	`
	tempDir := t.TempDir()
	workflowPath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(workflowPath, []byte(workflowHCL), 0600))

	injectedErr := errors.New("cluster creation rejected as expected")
	appConfig := &app.Config{WorkflowPath: workflowPath, WorkerCount: 4}
	spy := testutil.NewSpyModule()
	failing := &testutil.FailModule{Err: injectedErr}
	testApp, logBuffer := app.SetupAppTest(t, appConfig, spy, failing)

	// --- Act ---
	runErr := testApp.Run(context.Background(), appConfig)

	// --- Assert ---
	require.Error(t, runErr, "a failed run must exit non-zero")
	assert.ErrorContains(t, runErr, "finished with failures")

	assert.Zero(t, spy.Calls("run_job"), "dependent of a failed task must not run")
	assert.Equal(t, 1, spy.Calls("delete"), "teardown must run despite the failure")
	assert.Contains(t, logBuffer.String(), "UPSTREAM_FAILED")
}

// Test for: a failed teardown task is called out loudly in the logs.
func TestErrorHandling_TeardownFailure_IsFlagged(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "pipeline" {}

		task "spy" "work" {
			arguments { id = "work" }
		}

		task "fail" "delete" {
			depends_on   = ["work"]
			trigger_rule = "all_done"
		}
	`
	tempDir := t.TempDir()
	workflowPath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(workflowPath, []byte(workflowHCL), 0600))

	appConfig := &app.Config{WorkflowPath: workflowPath, WorkerCount: 2}
	spy := testutil.NewSpyModule()
	failing := &testutil.FailModule{Err: errors.New("delete rejected")}
	testApp, logBuffer := app.SetupAppTest(t, appConfig, spy, failing)

	// --- Act ---
	runErr := testApp.Run(context.Background(), appConfig)

	// --- Assert ---
	require.Error(t, runErr)
	assert.Contains(t, logBuffer.String(), "manual cleanup may be required")
}

// Test for: a missing required variable aborts the run before any task starts.
func TestErrorHandling_MissingVariable_AbortsRun(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "parameterized" {}

		variable "gcp_project" {}

		task "spy" "work" {
			arguments { id = "work" }
		}
	`
	tempDir := t.TempDir()
	workflowPath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(workflowPath, []byte(workflowHCL), 0600))

	// A prefix no other test sets keeps the environment lookup empty.
	appConfig := &app.Config{WorkflowPath: workflowPath, WorkerCount: 1, VarPrefix: "NOPE_VAR_"}
	spy := testutil.NewSpyModule()
	testApp, _ := app.SetupAppTest(t, appConfig, spy)

	// --- Act ---
	runErr := testApp.Run(context.Background(), appConfig)

	// --- Assert ---
	require.Error(t, runErr)
	var missing *vars.MissingVariableError
	require.True(t, errors.As(runErr, &missing))
	assert.Equal(t, "gcp_project", missing.Name)
	assert.Zero(t, spy.Calls("work"))
}

// Test for: a workflow referencing an unregistered action type fails the
// graph build before anything runs.
func TestErrorHandling_UnknownActionType_FailsBuild(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "broken" {}

		task "no_such_action" "work" {}
	`
	tempDir := t.TempDir()
	workflowPath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(workflowPath, []byte(workflowHCL), 0600))

	appConfig := &app.Config{WorkflowPath: workflowPath, WorkerCount: 1}
	testApp, _ := app.SetupAppTest(t, appConfig, &testutil.NoOpModule{})

	// --- Act ---
	runErr := testApp.Run(context.Background(), appConfig)

	// --- Assert ---
	require.Error(t, runErr)
	assert.ErrorContains(t, runErr, `unknown action type "no_such_action"`)
}

// Test for: a dependency cycle in the workflow file fails the graph build.
func TestErrorHandling_DependencyCycle_FailsBuild(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "cyclic" {}

		task "noop" "a" {
			depends_on = ["b"]
		}

		task "noop" "b" {
			depends_on = ["a"]
		}
	`
	tempDir := t.TempDir()
	workflowPath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(workflowPath, []byte(workflowHCL), 0600))

	appConfig := &app.Config{WorkflowPath: workflowPath, WorkerCount: 1}
	testApp, _ := app.SetupAppTest(t, appConfig, &testutil.NoOpModule{})

	// --- Act ---
	runErr := testApp.Run(context.Background(), appConfig)

	// --- Assert ---
	require.Error(t, runErr)
	assert.ErrorContains(t, runErr, "cycle")
}
