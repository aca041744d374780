package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/fsutil"
	"github.com/vk/flowgridgo/internal/schema"
)

// Loader reads workflow definitions from .hcl files.
type Loader struct{}

// NewLoader creates a new HCL workflow loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load discovers all .hcl files under the given paths, parses them, and
// merges their blocks into a single config.Model. Task and variable blocks
// may be spread across files; exactly one workflow block must exist.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	var hclFiles []string
	for _, p := range paths {
		found, err := fsutil.FindFilesByExtension(p, ".hcl")
		if err != nil {
			return nil, err
		}
		hclFiles = append(hclFiles, found...)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl workflow files found in %v", paths)
	}

	parser := hclparse.NewParser()
	merged := &schema.WorkflowConfig{}

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.WorkflowConfig
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Workflow != nil {
			if merged.Workflow != nil {
				return nil, fmt.Errorf("duplicate workflow block %q in %s: workflow already defined as %q",
					root.Workflow.Name, file, merged.Workflow.Name)
			}
			merged.Workflow = root.Workflow
		}
		merged.Tasks = append(merged.Tasks, root.Tasks...)
		merged.Variables = append(merged.Variables, root.Variables...)
	}

	if merged.Workflow == nil {
		return nil, fmt.Errorf("no workflow block found in %v", paths)
	}

	model, err := l.translate(ctx, merged)
	if err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.",
		"workflow", model.Workflow.Name,
		"tasks", len(model.Workflow.Tasks),
		"variables", len(model.Workflow.Variables),
	)
	return model, nil
}

// LoadFromString parses a single in-memory workflow definition. Tests and
// embedding callers use this to avoid touching the filesystem.
func (l *Loader) LoadFromString(ctx context.Context, filename, src string) (*config.Model, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL([]byte(src), filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}

	var root schema.WorkflowConfig
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL source %s: %w", filename, diags)
	}
	if root.Workflow == nil {
		return nil, fmt.Errorf("no workflow block found in %s", filename)
	}

	return l.translate(ctx, &root)
}
