// Package dag models a workflow as a directed acyclic graph of task
// definitions. It owns graph construction and validation: duplicate and
// unknown task detection, cycle rejection, and deterministic topological
// ordering. Execution lives in the scheduler package.
package dag
