// Package http_request provides the 'http_request' action: a single HTTP
// call against an external endpoint, typically the API that provisions,
// drives, or tears down the real resources a workflow orchestrates.
package http_request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	URL     string  `hcl:"url"`
	Method  string  `hcl:"method,optional"`
	Body    *string `hcl:"body,optional"`
	Timeout *string `hcl:"timeout,optional"`
}

// Run is the handler for the 'http_request' action.
func Run(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx)

	method := in.Method
	if method == "" {
		method = http.MethodGet
	}
	logger.Info("Making HTTP request", "method", method, "url", in.URL)

	client := &http.Client{}
	if in.Timeout != nil {
		timeout, err := time.ParseDuration(*in.Timeout)
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid timeout: %w", err)
		}
		client.Timeout = timeout
	}

	var bodyReader io.Reader
	if in.Body != nil {
		bodyReader = strings.NewReader(*in.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, in.URL, bodyReader)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return cty.NilVal, fmt.Errorf("request to %s returned %s", in.URL, resp.Status)
	}

	return cty.ObjectVal(map[string]cty.Value{
		"status_code": cty.NumberIntVal(int64(resp.StatusCode)),
		"body":        cty.StringVal(string(bodyBytes)),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("http_request", &registry.Action{
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
