// Package scheduler executes one run of a workflow graph at a time. It
// walks the graph in dependency order with a channel-fed worker pool,
// applies each task's retry policy, evaluates trigger rules to decide
// whether downstream tasks still run after an upstream failure, and drains
// the run until every task is terminal. A task failure never aborts a run;
// callers observe outcomes through the run report.
package scheduler
