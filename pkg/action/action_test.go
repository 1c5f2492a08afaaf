package action_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uikit/internal/testcontrollers"
	"github.com/dmitrymomot/uikit/pkg/action"
	"github.com/dmitrymomot/uikit/pkg/convert"
)

func run(t *testing.T, impl any, name string, params map[string]any) *action.Action {
	t.Helper()
	sub := define(t, impl).SubDefinition(name)
	require.NotNil(t, sub, name)
	a := sub.Instance(params)
	assert.Equal(t, action.StateNew, a.State())
	a.Run(context.Background())
	return a
}

func checkPass(t *testing.T, a *action.Action, want any) {
	t.Helper()
	assert.Equal(t, action.StateSuccess, a.State())
	assert.Empty(t, a.Errors())
	assert.Equal(t, want, a.ReturnValue())
}

func checkFail(t *testing.T, a *action.Action, msg string) {
	t.Helper()
	assert.Equal(t, action.StateError, a.State())
	assert.Nil(t, a.ReturnValue())
	errs := a.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, msg, errs[0].Error())
}

func TestAction_NoParameters(t *testing.T) {
	t.Parallel()

	ctrl := testcontrollers.TestController{}
	checkPass(t, run(t, ctrl, "doSomething", nil), nil)
	checkPass(t, run(t, ctrl, "doSomething", map[string]any{"a": "don't care"}), nil)
	checkPass(t, run(t, ctrl, "getString", nil), "TestController")

	a := run(t, ctrl, "throwException", nil)
	checkFail(t, a, "go://testcontrollers.TestController: intentionally generated")
	var unhandled *action.UnhandledError
	require.ErrorAs(t, a.Errors()[0], &unhandled)
	assert.Equal(t, "go://testcontrollers.TestController", unhandled.Controller.QualifiedName())

	handled := run(t, ctrl, "handledError", nil)
	checkFail(t, handled, "please retry")
	var he *action.HandledError
	assert.ErrorAs(t, handled.Errors()[0], &he)
}

func TestAction_ParameterErrors(t *testing.T) {
	t.Parallel()

	ctrl := testcontrollers.TestControllerWithParameters{}

	a := run(t, ctrl, "customParam", map[string]any{"a": "x"})
	checkFail(t, a, "error on parameter a: go://testcontrollers.CustomParam")
	var pe *action.ParamError
	require.ErrorAs(t, a.Errors()[0], &pe)
	assert.Equal(t, "a", pe.Param)
	assert.ErrorIs(t, pe, convert.ErrNoConverter)

	checkFail(t, run(t, ctrl, "sumValues", nil),
		"go://testcontrollers.TestControllerWithParameters: runtime error: invalid memory address or nil pointer dereference")

	a = run(t, ctrl, "sumValues", map[string]any{"a": "x", "b": "y"})
	checkFail(t, a, "invalid value for a: go://*int")
	assert.ErrorIs(t, a.Errors()[0], convert.ErrInvalidValue)
}

func TestAction_Parameters(t *testing.T) {
	t.Parallel()

	ctrl := testcontrollers.TestControllerWithParameters{}
	checkPass(t, run(t, ctrl, "appendStrings", nil), "nullnull")
	checkPass(t, run(t, ctrl, "appendStrings", map[string]any{"a": "x", "b": "y"}), "xy")
	checkPass(t, run(t, ctrl, "sumValues", map[string]any{"a": "1", "b": "2"}), 3)
	checkPass(t, run(t, ctrl, "sumValues", map[string]any{"a": float64(1), "b": 2}), 3)
}

func TestAction_CustomConverter(t *testing.T) {
	t.Parallel()

	reg := convert.NewRegistry()
	convert.Register(reg, func(s string) (testcontrollers.CustomParam, error) {
		return testcontrollers.CustomParam{Value: "converted:" + s}, nil
	})
	impl := testcontrollers.TestControllerWithParameters{}
	def, err := action.DefineController(action.DescriptorFor(impl), impl, action.WithConverters(reg))
	require.NoError(t, err)

	a := def.SubDefinition("customParam").Instance(map[string]any{"a": "x"})
	a.Run(context.Background())
	checkPass(t, a, "converted:x")
}

func TestAction_ConverterPanic(t *testing.T) {
	t.Parallel()

	reg := convert.NewRegistry()
	convert.Register(reg, func(s string) (testcontrollers.CustomParam, error) {
		var m map[string]string
		m[s] = s
		return testcontrollers.CustomParam{}, nil
	})
	impl := testcontrollers.TestControllerWithParameters{}
	def, err := action.DefineController(action.DescriptorFor(impl), impl, action.WithConverters(reg))
	require.NoError(t, err)

	a := def.SubDefinition("customParam").Instance(map[string]any{"a": "x"})
	require.NotPanics(t, func() { a.Run(context.Background()) })
	checkFail(t, a, "go://testcontrollers.TestControllerWithParameters: assignment to entry in nil map")
	var unhandled *action.UnhandledError
	assert.ErrorAs(t, a.Errors()[0], &unhandled)
}

func TestAction_Storable(t *testing.T) {
	t.Parallel()

	sub := define(t, testcontrollers.TestController{}).SubDefinition("getString")

	a := sub.Instance(nil)
	assert.False(t, a.IsStorable())
	a.Run(context.Background())
	assert.False(t, a.IsStorable())

	a = sub.Instance(nil)
	a.SetStorable()
	assert.True(t, a.IsStorable())
	a.Run(context.Background())
	assert.True(t, a.IsStorable())

	assert.True(t, sub.Instance(nil, action.Storable(), action.WithID("7")).IsStorable())
}

func TestAction_RunsOnce(t *testing.T) {
	t.Parallel()

	a := define(t, testcontrollers.TestController{}).SubDefinition("throwException").Instance(nil)
	a.Run(context.Background())
	a.Run(context.Background())
	assert.Len(t, a.Errors(), 1)
}

func TestAction_ParamsAreCopied(t *testing.T) {
	t.Parallel()

	params := map[string]any{"a": "x"}
	a := define(t, testcontrollers.TestControllerWithParameters{}).SubDefinition("appendStrings").Instance(params, action.WithID("1"))
	params["a"] = "changed"
	assert.Equal(t, "x", a.Params()["a"])
	assert.Equal(t, "1", a.ID())
}

type recordingLogger struct {
	keys, values []string
}

func (l *recordingLogger) Log(key, value string) {
	l.keys = append(l.keys, key)
	l.values = append(l.values, value)
}

func TestAction_LogParams(t *testing.T) {
	t.Parallel()

	def := define(t, testcontrollers.LoggingTestController{})

	tests := []struct {
		name   string
		action string
		params map[string]any
		keys   []string
		values []string
	}{
		{"non loggable string", "getString", map[string]any{"param": "bar"}, nil, nil},
		{"non loggable int", "getInt", map[string]any{"param": 1}, nil, nil},
		{"loggable string", "getLoggableString", map[string]any{"param": "bar"}, []string{"param"}, []string{"bar"}},
		{"loggable int", "getLoggableString", map[string]any{"param": 1}, []string{"param"}, []string{"1"}},
		{"loggable nil", "getLoggableString", map[string]any{"param": nil}, []string{"param"}, []string{"null"}},
		{"loggable missing", "getLoggableString", nil, []string{"param"}, []string{"null"}},
		{"loggable stringer", "getLoggableString", map[string]any{"param": testcontrollers.CustomParamType{}}, []string{"param"}, []string{"CustomParamType_toString"}},
		{"declaration order", "getMultiParamLogging", map[string]any{"two": "two", "we": "we", "not": "x"}, []string{"we", "two"}, []string{"we", "two"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := &recordingLogger{}
			def.SubDefinition(tt.action).Instance(tt.params).LogParams(l)
			assert.Equal(t, tt.keys, l.keys)
			assert.Equal(t, tt.values, l.values)
		})
	}

	var got string
	def.SubDefinition("getStringWithLoggable").Instance(map[string]any{"strparam": "BoogaBoo"}).
		LogParams(action.KeyValueFunc(func(k, v string) { got = "{" + k + "," + v + "}" }))
	assert.Equal(t, "{strparam,BoogaBoo}", got)
}

type stubEnqueuer struct {
	def *action.ControllerDef
}

func (s stubEnqueuer) Instance(_ context.Context, qualified string, params map[string]any) (*action.Action, error) {
	for _, d := range s.def.ActionDefs() {
		if d.Descriptor().QualifiedName() == qualified {
			return d.Instance(params), nil
		}
	}
	return nil, errors.New("unknown " + qualified)
}

func TestAction_Chaining(t *testing.T) {
	t.Parallel()

	def := define(t, testcontrollers.ActionChainingController{})
	ctx := action.WithEnqueuer(context.Background(), stubEnqueuer{def: def})

	a := def.SubDefinition("add").Instance(map[string]any{
		"a": 1, "b": 2,
		"actions": `{"actions":[{"descriptor":"go://testcontrollers.ActionChainingController/ACTION$multiply","params":{"a":2}}]}`,
	})
	a.Run(ctx)
	checkPass(t, a, 3)

	chained := a.Chained()
	require.Len(t, chained, 1)
	assert.Equal(t, "multiply", chained[0].Def().Name())
	assert.Equal(t, action.StateNew, chained[0].State())
	chained[0].Run(ctx)
	checkPass(t, chained[0], "4")

	bad := def.SubDefinition("add").Instance(map[string]any{"actions": `{"actions":[{"descriptor":"go://nope/ACTION$x"}]}`})
	bad.Run(ctx)
	assert.Equal(t, action.StateError, bad.State())

	partial := def.SubDefinition("add").Instance(map[string]any{"actions": `{"actions":[` +
		`{"descriptor":"go://testcontrollers.ActionChainingController/ACTION$multiply","params":{"a":2}},` +
		`{"descriptor":"go://nope/ACTION$x"}]}`})
	partial.Run(ctx)
	assert.Equal(t, action.StateError, partial.State())
	assert.Empty(t, partial.Chained(), "a failed payload chains nothing")

	noEnqueuer := def.SubDefinition("add").Instance(map[string]any{"actions": `{"actions":[{"descriptor":"x"}]}`})
	noEnqueuer.Run(context.Background())
	require.Len(t, noEnqueuer.Errors(), 1)
	assert.ErrorIs(t, noEnqueuer.Errors()[0], action.ErrNoEnqueuer)

	malformed := def.SubDefinition("add").Instance(map[string]any{"actions": `{`})
	malformed.Run(ctx)
	require.Len(t, malformed.Errors(), 1)
	assert.ErrorIs(t, malformed.Errors()[0], action.ErrInvalidChained)
}

func TestEnqueue_OutsideAction(t *testing.T) {
	t.Parallel()

	_, err := action.Enqueue(context.Background(), "x", nil)
	assert.ErrorIs(t, err, action.ErrNoActionInCtx)

	_, ok := action.FromContext(context.Background())
	assert.False(t, ok)
}
