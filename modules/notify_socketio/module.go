// Package notify_socketio provides the 'notify_socketio' action, which
// pushes a notification event to a Socket.IO server. Pair it with
// trigger_rule = "all_done" to report run outcomes regardless of failures.
package notify_socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	URL                string            `hcl:"url"`
	Event              string            `hcl:"event"`
	Message            string            `hcl:"message"`
	Data               map[string]string `hcl:"data,optional"`
	Namespace          *string           `hcl:"namespace,optional"`
	AckEvent           *string           `hcl:"ack_event,optional"`
	Timeout            *string           `hcl:"timeout,optional"`
	InsecureSkipVerify bool              `hcl:"insecure_skip_verify,optional"`
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	value cty.Value
	err   error
}

// Run is the handler for the 'notify_socketio' action.
func Run(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)

	logger := ctxlog.FromContext(ctx).With("action", "notify_socketio", "url", in.URL, "event", in.Event)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	var isConnected atomic.Bool

	timeout := 10 * time.Second
	if in.Timeout != nil {
		d, err := time.ParseDuration(*in.Timeout)
		if err != nil {
			logger.Warn("Failed to parse timeout, using default 10s", "inputTimeout", *in.Timeout, "error", err)
		} else {
			timeout = d
		}
	}

	namespace := "/"
	if in.Namespace != nil {
		namespace = *in.Namespace
	}

	done := make(chan opResult, 1)
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	parsedURL, err := url.Parse(in.URL)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)

	if in.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	payload := map[string]any{"message": in.Message}
	for k, v := range in.Data {
		payload[k] = v
	}

	// --- Event Listeners ---
	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", namespace, "sid", io.Id())
		jsonData, _ := json.Marshal(payload)
		logger.Info("Emitting notification", "event", in.Event, "data", string(jsonData))
		io.Emit(in.Event, payload)
		if in.AckEvent == nil {
			done <- opResult{value: cty.ObjectVal(map[string]cty.Value{
				"delivered": cty.True,
			})}
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		done <- opResult{err: errs[0].(error)}
	})

	if in.AckEvent != nil {
		io.On(types.EventName(*in.AckEvent), func(data ...any) {
			var ack string
			if len(data) > 0 {
				raw, _ := json.Marshal(data[0])
				ack = string(raw)
			}
			done <- opResult{value: cty.ObjectVal(map[string]cty.Value{
				"delivered": cty.True,
				"ack":       cty.StringVal(ack),
			})}
		})
	}

	// --- Execution Block ---
	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return cty.NilVal, fmt.Errorf("timed out after connecting while waiting for acknowledgement")
		}
		return cty.NilVal, fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		return res.value, res.err
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("notify_socketio", &registry.Action{
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
