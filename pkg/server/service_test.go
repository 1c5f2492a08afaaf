package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uikit/internal/testcontrollers"
	"github.com/dmitrymomot/uikit/pkg/action"
	"github.com/dmitrymomot/uikit/pkg/definition"
	"github.com/dmitrymomot/uikit/pkg/descriptor"
	"github.com/dmitrymomot/uikit/pkg/logger"
	"github.com/dmitrymomot/uikit/pkg/metrics"
	"github.com/dmitrymomot/uikit/pkg/server"
)

const (
	testCtrl     = "go://testcontrollers.TestController"
	loggingCtrl  = "go://testcontrollers.LoggingTestController"
	parallelCtrl = "go://testcontrollers.ParallelActionTestController"
	chainCtrl    = "go://testcontrollers.ActionChainingController"
)

func newRegistry(t *testing.T) *definition.Registry {
	t.Helper()
	r := definition.New()
	for _, impl := range []any{
		testcontrollers.TestController{},
		testcontrollers.TestControllerWithParameters{},
		testcontrollers.LoggingTestController{},
		testcontrollers.ParallelActionTestController{},
		testcontrollers.ActionChainingController{},
	} {
		_, err := r.RegisterController("", impl)
		require.NoError(t, err)
	}
	return r
}

func decode(t *testing.T, s *server.Service, msg server.Message) []*action.Action {
	t.Helper()
	actions, err := s.Decode(msg)
	require.NoError(t, err)
	return actions
}

type logRecord struct {
	Msg     string `json:"msg"`
	Level   string `json:"level"`
	Action  string `json:"action"`
	Ordinal int    `json:"ordinal"`
	State   string `json:"state"`
}

func records(t *testing.T, buf *bytes.Buffer) []logRecord {
	t.Helper()
	var out []logRecord
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec logRecord
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec.Msg == "action executed" {
			out = append(out, rec)
		}
	}
	return out
}

func TestDecodeMessage(t *testing.T) {
	t.Parallel()

	msg, err := server.DecodeMessage(strings.NewReader(
		`{"actions":[{"id":"7","descriptor":"go://a.B/ACTION$c","params":{"n":1},"storable":true}]}`))
	require.NoError(t, err)
	require.Len(t, msg.Actions, 1)
	assert.Equal(t, "7", msg.Actions[0].ID)
	assert.True(t, msg.Actions[0].Storable)
	assert.Equal(t, json.Number("1"), msg.Actions[0].Params["n"])

	for _, body := range []string{`{`, `{"actions":[]}`, `{"actions":[{"id":"1"}]}`} {
		_, err := server.DecodeMessage(strings.NewReader(body))
		assert.ErrorIs(t, err, server.ErrInvalidMessage, body)
	}
}

func TestService_Decode(t *testing.T) {
	t.Parallel()

	s := server.New(newRegistry(t))

	actions := decode(t, s, server.Message{Actions: []server.Request{
		{Descriptor: testCtrl + "/ACTION$getString"},
		{ID: "custom", Descriptor: testCtrl + "/ACTION$doSomething", Storable: true},
	}})
	require.Len(t, actions, 2)
	assert.Equal(t, "1", actions[0].ID())
	assert.False(t, actions[0].IsStorable())
	assert.Equal(t, "custom", actions[1].ID())
	assert.True(t, actions[1].IsStorable())

	_, err := s.Decode(server.Message{Actions: []server.Request{{Descriptor: "go://goats/ACTION$x"}}})
	var notFound *descriptor.DefinitionNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "no CONTROLLER named go://goats found", err.Error())
}

func TestService_Execute(t *testing.T) {
	t.Parallel()

	s := server.New(newRegistry(t))
	resp := s.Execute(context.Background(), decode(t, s, server.Message{Actions: []server.Request{
		{Descriptor: testCtrl + "/ACTION$getString"},
		{Descriptor: testCtrl + "/ACTION$throwException"},
		{Descriptor: testCtrl + "/ACTION$handledError"},
		{Descriptor: "go://testcontrollers.TestControllerWithParameters/ACTION$sumValues", Params: map[string]any{"a": "x", "b": "y"}},
	}}))

	require.Len(t, resp.Actions, 4)

	assert.Equal(t, action.StateSuccess, resp.Actions[0].State)
	assert.Equal(t, "TestController", resp.Actions[0].ReturnValue)
	assert.Empty(t, resp.Actions[0].Error)

	assert.Equal(t, action.StateError, resp.Actions[1].State)
	assert.Equal(t, []server.ErrorInfo{{
		Message: "go://testcontrollers.TestController: intentionally generated",
		Type:    server.ErrorTypeUnhandled,
	}}, resp.Actions[1].Error)

	assert.Equal(t, server.ErrorTypeHandled, resp.Actions[2].Error[0].Type)
	assert.Equal(t, "please retry", resp.Actions[2].Error[0].Message)

	assert.Equal(t, server.ErrorTypeParam, resp.Actions[3].Error[0].Type)
	assert.Equal(t, "invalid value for a: go://*int", resp.Actions[3].Error[0].Message)
}

func TestService_LogsLoggableParams(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := server.New(newRegistry(t), server.WithLogger(logger.New(logger.WithOutput(&buf))))

	s.Execute(context.Background(), decode(t, s, server.Message{Actions: []server.Request{
		{Descriptor: loggingCtrl + "/ACTION$getStringWithLoggable", Params: map[string]any{"strparam": "BoogaBoo"}},
		{Descriptor: loggingCtrl + "/ACTION$getString", Params: map[string]any{"param": "bar"}},
		{Descriptor: loggingCtrl + "/ACTION$getLoggableString", Params: map[string]any{"param": nil}},
		{Descriptor: loggingCtrl + "/ACTION$getMultiParamLogging", Params: map[string]any{"we": "we", "two": "two", "not": "x"}},
		{Descriptor: testCtrl + "/ACTION$throwException"},
	}}))

	recs := records(t, &buf)
	require.Len(t, recs, 5)
	assert.Equal(t, "action_1$"+loggingCtrl+"/ACTION$getStringWithLoggable{strparam,BoogaBoo}", recs[0].Action)
	assert.Equal(t, "action_2$"+loggingCtrl+"/ACTION$getString", recs[1].Action)
	assert.Equal(t, "action_3$"+loggingCtrl+"/ACTION$getLoggableString{param,null}", recs[2].Action)
	assert.Equal(t, "action_4$"+loggingCtrl+"/ACTION$getMultiParamLogging{we,we}{two,two}", recs[3].Action)

	assert.Equal(t, "SUCCESS", recs[0].State)
	assert.Equal(t, "INFO", recs[0].Level)
	assert.Equal(t, "ERROR", recs[4].State)
	assert.Equal(t, "WARN", recs[4].Level)
	for i, rec := range recs {
		assert.Equal(t, i+1, rec.Ordinal)
	}
}

func TestService_Background(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := server.New(newRegistry(t), server.WithLogger(logger.New(logger.WithOutput(&buf))))

	var reqs []server.Request
	for i, name := range []string{"executeInBackground", "executeInForeground", "executeInBackground", "executeInForeground", "executeInBackground"} {
		reqs = append(reqs, server.Request{
			Descriptor: parallelCtrl + "/ACTION$" + name,
			Params:     map[string]any{"id": i},
		})
	}
	resp := s.Execute(context.Background(), decode(t, s, server.Message{Actions: reqs}))

	require.Len(t, resp.Actions, 5)
	assert.Equal(t, []any{"bg:0", "fg:1", "bg:2", "fg:3", "bg:4"}, []any{
		resp.Actions[0].ReturnValue, resp.Actions[1].ReturnValue, resp.Actions[2].ReturnValue,
		resp.Actions[3].ReturnValue, resp.Actions[4].ReturnValue,
	})

	recs := records(t, &buf)
	require.Len(t, recs, 5)
	ordinals := make([]int, 0, len(recs))
	for _, rec := range recs {
		ordinals = append(ordinals, rec.Ordinal)
	}
	sort.Ints(ordinals)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ordinals)
}

func chainPayload(t *testing.T, reqs ...action.ChainedRequest) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"actions": reqs})
	require.NoError(t, err)
	return string(raw)
}

func TestService_Chaining(t *testing.T) {
	t.Parallel()

	s := server.New(newRegistry(t))
	resp := s.Execute(context.Background(), decode(t, s, server.Message{Actions: []server.Request{
		{Descriptor: chainCtrl + "/ACTION$add", Params: map[string]any{
			"a": 1, "b": 2,
			"actions": chainPayload(t, action.ChainedRequest{
				Descriptor: chainCtrl + "/ACTION$multiply",
				Params:     map[string]any{"a": 2},
			}),
		}},
		{Descriptor: testCtrl + "/ACTION$getString"},
	}}))

	require.Len(t, resp.Actions, 3)
	assert.Equal(t, 3, resp.Actions[0].ReturnValue)
	assert.Equal(t, chainCtrl+"/ACTION$multiply", resp.Actions[1].Descriptor)
	assert.Equal(t, "4", resp.Actions[1].ReturnValue)
	assert.NotEmpty(t, resp.Actions[1].ID)
	assert.Equal(t, "TestController", resp.Actions[2].ReturnValue)
}

func TestService_ChainDepth(t *testing.T) {
	t.Parallel()

	inner := chainPayload(t, action.ChainedRequest{
		Descriptor: chainCtrl + "/ACTION$multiply",
		Params:     map[string]any{"a": 5},
	})
	outer := chainPayload(t, action.ChainedRequest{
		Descriptor: chainCtrl + "/ACTION$add",
		Params:     map[string]any{"a": 1, "b": 1, "actions": inner},
	})

	s := server.New(newRegistry(t), server.WithMaxChainDepth(1))
	resp := s.Execute(context.Background(), decode(t, s, server.Message{Actions: []server.Request{
		{Descriptor: chainCtrl + "/ACTION$add", Params: map[string]any{"a": 0, "b": 0, "actions": outer}},
	}}))

	require.Len(t, resp.Actions, 2)
	assert.Equal(t, 0, resp.Actions[0].ReturnValue)
	assert.Equal(t, 2, resp.Actions[1].ReturnValue)
}

func TestService_Run(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	s := server.New(newRegistry(t), server.WithMetrics(metrics.MustNew(reg)))

	var out bytes.Buffer
	err := s.Run(context.Background(), decode(t, s, server.Message{Actions: []server.Request{
		{ID: "1", Descriptor: testCtrl + "/ACTION$getString", Storable: true},
	}}), &out)
	require.NoError(t, err)

	assert.JSONEq(t, `{"actions":[{
		"id": "1",
		"descriptor": "go://testcontrollers.TestController/ACTION$getString",
		"state": "SUCCESS",
		"returnValue": "TestController",
		"error": [],
		"storable": true
	}]}`, out.String())

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "uikit_action_executions_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "uikit_server_messages_total"))
}

func TestEntry(t *testing.T) {
	t.Parallel()

	def, err := newRegistry(t).ActionDef(loggingCtrl + "/ACTION$getStringWithLoggable")
	require.NoError(t, err)
	a := def.Instance(map[string]any{"strparam": "BoogaBoo"})
	assert.Equal(t, "action_9$"+loggingCtrl+"/ACTION$getStringWithLoggable{strparam,BoogaBoo}", server.Entry(9, a))
}
