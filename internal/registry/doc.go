// Package registry maps action type names to the Go handlers that execute
// them. Modules register their actions at startup; the graph builder
// resolves task action types against the registry, and the scheduler
// invokes the handlers.
package registry
