package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func noopAction() *Action {
	return &Action{
		Fn: func(context.Context, any) (cty.Value, error) { return cty.NilVal, nil },
	}
}

func TestRegisterAction(t *testing.T) {
	t.Run("lookup after register", func(t *testing.T) {
		r := New()
		r.RegisterAction("print", noopAction())

		a, ok := r.Action("print")
		require.True(t, ok)
		assert.NotNil(t, a.Fn)

		_, ok = r.Action("missing")
		assert.False(t, ok)
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		r := New()
		r.RegisterAction("print", noopAction())
		assert.Panics(t, func() {
			r.RegisterAction("print", noopAction())
		})
	})

	t.Run("missing handler function panics", func(t *testing.T) {
		r := New()
		assert.Panics(t, func() {
			r.RegisterAction("broken", &Action{})
		})
		assert.Panics(t, func() {
			r.RegisterAction("nil", nil)
		})
	})
}

func TestActionTypes(t *testing.T) {
	r := New()
	r.RegisterAction("shell", noopAction())
	r.RegisterAction("http_request", noopAction())
	r.RegisterAction("print", noopAction())

	assert.Equal(t, []string{"http_request", "print", "shell"}, r.ActionTypes())
}
