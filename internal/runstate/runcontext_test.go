package runstate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/dag"
)

func testGraph(t *testing.T, tasks ...*config.Task) *dag.Graph {
	t.Helper()
	g := dag.New()
	for _, task := range tasks {
		require.NoError(t, g.AddTask(task))
	}
	for _, task := range tasks {
		for _, dep := range task.DependsOn {
			require.NoError(t, g.AddDependency(dep, task.Name))
		}
	}
	return g
}

func testTask(name string, deps ...string) *config.Task {
	return &config.Task{
		ActionType:  "noop",
		Name:        name,
		TriggerRule: config.AllSuccess,
		DependsOn:   deps,
	}
}

func newTestRun(t *testing.T, tasks ...*config.Task) *RunContext {
	t.Helper()
	graph := testGraph(t, tasks...)
	return NewRunContext("run-1", "wf", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), map[string]string{"project": "demo"}, graph)
}

func TestNewRunContext(t *testing.T) {
	rc := newTestRun(t, testTask("a"), testTask("b", "a"))

	assert.Equal(t, "run-1", rc.RunID())
	assert.Equal(t, "wf", rc.WorkflowName())

	for _, id := range []string{"a", "b"} {
		status, err := rc.StatusOf(id)
		require.NoError(t, err)
		assert.Equal(t, Pending, status)

		attempts, err := rc.Attempts(id)
		require.NoError(t, err)
		assert.Zero(t, attempts)
	}

	v, ok := rc.Var("project")
	require.True(t, ok)
	assert.Equal(t, "demo", v)
	_, ok = rc.Var("missing")
	assert.False(t, ok)
}

func TestRecord(t *testing.T) {
	t.Run("normal lifecycle", func(t *testing.T) {
		rc := newTestRun(t, testTask("a"))

		require.NoError(t, rc.Record("a", Running))
		require.NoError(t, rc.Record("a", Running)) // retry re-entry
		require.NoError(t, rc.Record("a", Success))

		status, err := rc.StatusOf("a")
		require.NoError(t, err)
		assert.Equal(t, Success, status)
	})

	t.Run("terminal status is frozen", func(t *testing.T) {
		rc := newTestRun(t, testTask("a"))
		require.NoError(t, rc.Record("a", Failed))

		for _, to := range []Status{Running, Success, Skipped, Cancelled} {
			err := rc.Record("a", to)
			var invalid *InvalidTransitionError
			require.True(t, errors.As(err, &invalid), "expected InvalidTransitionError for %s", to)
			assert.Equal(t, Failed, invalid.From)
			assert.Equal(t, to, invalid.To)
		}

		status, err := rc.StatusOf("a")
		require.NoError(t, err)
		assert.Equal(t, Failed, status)
	})

	t.Run("no way back to pending", func(t *testing.T) {
		rc := newTestRun(t, testTask("a"))
		require.NoError(t, rc.Record("a", Running))

		err := rc.Record("a", Pending)
		var invalid *InvalidTransitionError
		require.True(t, errors.As(err, &invalid))
	})

	t.Run("pending may settle without running", func(t *testing.T) {
		rc := newTestRun(t, testTask("a"))
		require.NoError(t, rc.Record("a", UpstreamFailed))
	})

	t.Run("unknown task id", func(t *testing.T) {
		rc := newTestRun(t, testTask("a"))

		err := rc.Record("ghost", Running)
		var unknown *dag.UnknownTaskError
		require.True(t, errors.As(err, &unknown))

		_, err = rc.StatusOf("ghost")
		require.True(t, errors.As(err, &unknown))

		_, err = rc.Attempts("ghost")
		require.True(t, errors.As(err, &unknown))
	})
}

func TestStatusOfIsStable(t *testing.T) {
	rc := newTestRun(t, testTask("a"))
	require.NoError(t, rc.Record("a", Running))

	first, err := rc.StatusOf("a")
	require.NoError(t, err)
	second, err := rc.StatusOf("a")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecordAttempt(t *testing.T) {
	rc := newTestRun(t, testTask("a"))

	for want := 1; want <= 3; want++ {
		got, err := rc.RecordAttempt("a")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	attempts, err := rc.Attempts("a")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRecordOutput(t *testing.T) {
	rc := newTestRun(t, testTask("a"))

	_, ok := rc.Output("a")
	assert.False(t, ok, "no output before one is recorded")

	rc.RecordOutput("a", cty.StringVal("hello"))
	out, ok := rc.Output("a")
	require.True(t, ok)
	assert.Equal(t, cty.StringVal("hello"), out)

	// A recorded NilVal still counts as an output.
	rc2 := newTestRun(t, testTask("a"))
	rc2.RecordOutput("a", cty.NilVal)
	_, ok = rc2.Output("a")
	assert.True(t, ok)
}

func TestAllTerminal(t *testing.T) {
	rc := newTestRun(t, testTask("a"), testTask("b"))
	assert.False(t, rc.AllTerminal())

	require.NoError(t, rc.Record("a", Success))
	assert.False(t, rc.AllTerminal())

	require.NoError(t, rc.Record("b", Skipped))
	assert.True(t, rc.AllTerminal())
}

func TestSnapshot(t *testing.T) {
	rc := newTestRun(t, testTask("a"), testTask("b", "a"))
	require.NoError(t, rc.Record("a", Running))
	_, err := rc.RecordAttempt("a")
	require.NoError(t, err)
	rc.RecordError("a", errors.New("boom"))

	snap := rc.Snapshot()
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, "wf", snap.Workflow)
	require.Len(t, snap.Tasks, 2)

	assert.Equal(t, "a", snap.Tasks[0].ID)
	assert.Equal(t, "RUNNING", snap.Tasks[0].Status)
	assert.Equal(t, 1, snap.Tasks[0].Attempts)
	assert.Equal(t, "boom", snap.Tasks[0].Error)

	assert.Equal(t, "b", snap.Tasks[1].ID)
	assert.Equal(t, "PENDING", snap.Tasks[1].Status)
}

func TestReport(t *testing.T) {
	t.Run("all succeeded", func(t *testing.T) {
		rc := newTestRun(t, testTask("a"), testTask("b", "a"))
		require.NoError(t, rc.Record("a", Success))
		require.NoError(t, rc.Record("b", Skipped))
		rc.MarkStarted(time.Now())
		rc.MarkFinished(time.Now())

		report := rc.Report()
		assert.True(t, report.Succeeded)
		require.Len(t, report.Tasks, 2)
		assert.Equal(t, Success, report.Tasks[0].Status)
		assert.Equal(t, Skipped, report.Tasks[1].Status)
		for _, tr := range report.Tasks {
			assert.False(t, tr.CleanupFailed)
		}
	})

	t.Run("failed teardown is flagged", func(t *testing.T) {
		cleanup := testTask("delete", "run")
		cleanup.TriggerRule = config.AllDone
		rc := newTestRun(t, testTask("run"), cleanup)

		require.NoError(t, rc.Record("run", Failed))
		require.NoError(t, rc.Record("delete", Failed))
		rc.RecordError("delete", errors.New("cluster still exists"))

		report := rc.Report()
		assert.False(t, report.Succeeded)
		require.Len(t, report.Tasks, 2)

		assert.False(t, report.Tasks[0].CleanupFailed, "all_success failure is not a cleanup failure")
		assert.True(t, report.Tasks[1].CleanupFailed)
		assert.EqualError(t, report.Tasks[1].Err, "cluster still exists")
	})

	t.Run("failed all_success task is not flagged", func(t *testing.T) {
		rc := newTestRun(t, testTask("a"))
		require.NoError(t, rc.Record("a", Failed))

		report := rc.Report()
		assert.False(t, report.Succeeded)
		assert.False(t, report.Tasks[0].CleanupFailed)
	})
}

func TestStatusStrings(t *testing.T) {
	cases := map[Status]string{
		Pending:        "PENDING",
		Running:        "RUNNING",
		Success:        "SUCCESS",
		Failed:         "FAILED",
		UpstreamFailed: "UPSTREAM_FAILED",
		Skipped:        "SKIPPED",
		Cancelled:      "CANCELLED",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.String())
	}
	assert.Equal(t, "UNKNOWN", Status(99).String())
}

func TestStatusPredicates(t *testing.T) {
	assert.False(t, Pending.Terminal())
	assert.False(t, Running.Terminal())
	for _, s := range []Status{Success, Failed, UpstreamFailed, Skipped, Cancelled} {
		assert.True(t, s.Terminal(), s.String())
	}

	assert.True(t, Success.Succeeded())
	assert.True(t, Skipped.Succeeded())
	for _, s := range []Status{Pending, Running, Failed, UpstreamFailed, Cancelled} {
		assert.False(t, s.Succeeded(), s.String())
	}
}
