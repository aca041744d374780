// Package app wires the application together: logger, registry, workflow
// loading, graph construction, the scheduler, the periodic run trigger,
// and the optional status HTTP server.
package app
