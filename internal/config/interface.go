package config

import "context"

// Loader is the interface for a format-specific workflow definition
// loader.
type Loader interface {
	// Load reads workflow definitions from the given paths and translates
	// them into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
