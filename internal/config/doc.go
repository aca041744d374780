// Package config defines the format-agnostic model of a workflow
// definition. Loaders (currently HCL only) translate their on-disk syntax
// into this model, which is the only shape the graph builder and scheduler
// ever see.
package config
