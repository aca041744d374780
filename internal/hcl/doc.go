// Package hcl provides the concrete HCL implementation of workflow file
// loading. It is responsible for file discovery, parsing, and translation
// of the HCL syntax into the format-agnostic `config` model.
package hcl
