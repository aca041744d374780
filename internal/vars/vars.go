// Package vars resolves the external parameters a workflow declares.
// Resolution happens exactly once per run, at run start; the resolved
// values travel with the run context and are never re-read mid-run, so a
// run can never observe a torn or stale mix of configuration.
package vars

import (
	"fmt"
	"os"
	"strings"

	"github.com/vk/flowgridgo/internal/config"
)

// Source is an external key/value lookup supplying environment-specific
// parameters.
type Source interface {
	Lookup(name string) (string, bool)
}

// MissingVariableError reports a declared variable the source could not
// supply. It is fatal to the run that needs it but never aborts sibling runs.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("required variable %q is not defined", e.Name)
}

// EnvSource resolves variables from process environment variables, mapping
// a declared name like "gcp_project" to FLOW_VAR_GCP_PROJECT.
type EnvSource struct {
	// Prefix overrides the default "FLOW_VAR_" prefix when non-empty.
	Prefix string
}

// Lookup implements Source.
func (s EnvSource) Lookup(name string) (string, bool) {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "FLOW_VAR_"
	}
	return os.LookupEnv(prefix + strings.ToUpper(name))
}

// MapSource is a fixed in-memory Source, used by tests and embedders.
type MapSource map[string]string

// Lookup implements Source.
func (s MapSource) Lookup(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

// Resolve looks up every declared variable in the source, applying declared
// defaults for absent values. It returns a MissingVariableError naming the
// first variable (in declaration order) that has neither a value nor a
// default.
func Resolve(src Source, decls []*config.Variable) (map[string]string, error) {
	resolved := make(map[string]string, len(decls))
	for _, decl := range decls {
		if v, ok := src.Lookup(decl.Name); ok {
			resolved[decl.Name] = v
			continue
		}
		if decl.Default != nil {
			resolved[decl.Name] = *decl.Default
			continue
		}
		return nil, &MissingVariableError{Name: decl.Name}
	}
	return resolved, nil
}
