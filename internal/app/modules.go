package app

import (
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/modules/http_request"
	"github.com/vk/flowgridgo/modules/notify_socketio"
	"github.com/vk/flowgridgo/modules/print"
	"github.com/vk/flowgridgo/modules/shell"
	"github.com/vk/flowgridgo/modules/sleep"
)

// coreModules is the definitive list of all action modules that are
// compiled into the flowgridgo binary.
var coreModules = []registry.Module{
	&print.Module{},
	&http_request.Module{},
	&shell.Module{},
	&sleep.Module{},
	&notify_socketio.Module{},
}
