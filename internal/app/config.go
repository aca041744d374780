package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// WorkflowPath is a single .hcl file or a directory of them.
	WorkflowPath string

	LogFormat  string
	LogLevel   string
	StatusPort int
	// WorkerCount bounds concurrent task execution within one run.
	WorkerCount int
	// Once forces a single immediate run even when the workflow declares a
	// schedule.
	Once bool
	// VarPrefix overrides the environment variable prefix for workflow
	// variables. Empty means the default FLOW_VAR_.
	VarPrefix string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
