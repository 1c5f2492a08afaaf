package demo_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uikit/internal/demo"
	"github.com/dmitrymomot/uikit/pkg/action"
	"github.com/dmitrymomot/uikit/pkg/definition"
	"github.com/dmitrymomot/uikit/pkg/render"
	"github.com/dmitrymomot/uikit/pkg/server"
	"github.com/dmitrymomot/uikit/pkg/valueprovider"
)

const iPadUA = "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func setup(t *testing.T) (*definition.Registry, *server.Service) {
	t.Helper()
	reg := definition.New()
	require.NoError(t, demo.Register(reg))
	return reg, server.New(reg)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	reg, _ := setup(t)

	inst, err := reg.Instance(context.Background(), "ui:device")
	require.NoError(t, err)
	require.NotNil(t, inst.Controller)
	assert.Equal(t, []string{"audit", "describe", "greet"}, inst.Controller.ActionNames())
	assert.True(t, inst.Controller.SubDefinition("audit").IsBackground())

	_, err = reg.Instance(context.Background(), "ui:greeting")
	require.NoError(t, err)

	assert.ErrorIs(t, demo.Register(reg), definition.ErrAlreadyRegistered)
}

func TestDeviceController(t *testing.T) {
	t.Parallel()

	_, svc := setup(t)

	tests := []struct {
		name  string
		req   server.Request
		state action.State
		check func(t *testing.T, res server.Response)
	}{
		{
			name:  "describe",
			req:   server.Request{Descriptor: "go://demo.DeviceController/ACTION$describe", Params: map[string]any{"userAgent": iPadUA}},
			state: action.StateSuccess,
			check: func(t *testing.T, res server.Response) {
				require.Len(t, res.Actions, 1)
				values, ok := res.Actions[0].ReturnValue.(valueprovider.Values)
				require.True(t, ok)
				v, _ := values.Get("isIPad")
				assert.Equal(t, true, v)
				v, _ = values.Get("formFactor")
				assert.Equal(t, "TABLET", v)
			},
		},
		{
			name:  "describe without user agent",
			req:   server.Request{Descriptor: "go://demo.DeviceController/ACTION$describe"},
			state: action.StateError,
			check: func(t *testing.T, res server.Response) {
				require.Len(t, res.Actions[0].Error, 1)
				assert.Equal(t, server.ErrorTypeHandled, res.Actions[0].Error[0].Type)
				assert.Equal(t, "userAgent is required", res.Actions[0].Error[0].Message)
			},
		},
		{
			name:  "greet chains audit",
			req:   server.Request{Descriptor: "go://demo.DeviceController/ACTION$greet", Params: map[string]any{"name": "ann", "times": 2}},
			state: action.StateSuccess,
			check: func(t *testing.T, res server.Response) {
				require.Len(t, res.Actions, 2)
				assert.Equal(t, "hello ann hello ann", res.Actions[0].ReturnValue)
				assert.Equal(t, "go://demo.DeviceController/ACTION$audit", res.Actions[1].Descriptor)
				assert.Equal(t, action.StateSuccess, res.Actions[1].State)
			},
		},
		{
			name:  "greet limit",
			req:   server.Request{Descriptor: "go://demo.DeviceController/ACTION$greet", Params: map[string]any{"name": "ann", "times": 11}},
			state: action.StateError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			actions, err := svc.Decode(server.Message{Actions: []server.Request{tt.req}})
			require.NoError(t, err)
			res := svc.Execute(context.Background(), actions)
			require.NotEmpty(t, res.Actions)
			assert.Equal(t, tt.state, res.Actions[0].State)
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestDeviceComponent(t *testing.T) {
	t.Parallel()

	reg, _ := setup(t)
	c, err := reg.Component("ui:device")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", iPadUA)
	out, err := render.String(context.Background(), render.Component(c, valueprovider.ForRequest(req, nil, nil)))
	require.NoError(t, err)
	assert.Contains(t, out, `<dd>TABLET</dd>`)
	assert.Contains(t, out, `<dt>ios</dt><dd>true</dd>`)
}
