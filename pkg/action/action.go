// Package action defines server-side controllers, their actions and the
// lifecycle of a single action invocation.
package action

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/dmitrymomot/uikit/pkg/descriptor"
)

// State is the lifecycle position of an action.
type State string

const (
	StateNew     State = "NEW"
	StateSuccess State = "SUCCESS"
	StateError   State = "ERROR"
)

// KeyValueLogger receives loggable parameters.
type KeyValueLogger interface {
	Log(key, value string)
}

// KeyValueFunc adapts a function to KeyValueLogger.
type KeyValueFunc func(key, value string)

func (f KeyValueFunc) Log(key, value string) { f(key, value) }

// InstanceOption configures a new Action.
type InstanceOption func(*Action)

// WithID sets the client-assigned identifier echoed in responses.
func WithID(id string) InstanceOption {
	return func(a *Action) { a.id = id }
}

// Storable marks the action response as cacheable by the client.
func Storable() InstanceOption {
	return func(a *Action) { a.storable = true }
}

// Action is one invocation of a Def. It is safe for concurrent use.
type Action struct {
	def    *Def
	id     string
	params map[string]any

	mu       sync.Mutex
	started  bool
	state    State
	errs     []error
	ret      any
	storable bool
	chained  []*Action
}

type ctxKey struct{}

// FromContext returns the action whose function is running with ctx.
func FromContext(ctx context.Context) (*Action, bool) {
	a, ok := ctx.Value(ctxKey{}).(*Action)
	return a, ok
}

func (a *Action) Def() *Def { return a.def }

func (a *Action) ID() string { return a.id }

func (a *Action) Descriptor() descriptor.Descriptor { return a.def.desc }

// Params returns a copy of the parameters as supplied.
func (a *Action) Params() map[string]any { return maps.Clone(a.params) }

func (a *Action) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Action) Errors() []error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]error(nil), a.errs...)
}

func (a *Action) ReturnValue() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ret
}

func (a *Action) IsStorable() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.storable
}

// SetStorable marks the action storable. Running the action never clears it.
func (a *Action) SetStorable() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.storable = true
}

// Add chains actions to run after this one in the same request.
func (a *Action) Add(actions ...*Action) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range actions {
		if c != nil {
			a.chained = append(a.chained, c)
		}
	}
}

func (a *Action) Chained() []*Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Action(nil), a.chained...)
}

// Run binds parameters and executes the action once. Failures, including
// panics, are recorded on the action and never returned. Running an action
// that is no longer NEW does nothing.
func (a *Action) Run(ctx context.Context) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.mu.Unlock()

	ret, err := a.execute(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state, a.ret, a.errs = StateError, nil, []error{err}
		return
	}
	a.state, a.ret = StateSuccess, ret
}

func (a *Action) execute(ctx context.Context) (ret any, err error) {
	// Covers custom converters run by bind as well as the action body.
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			ret, err = nil, &UnhandledError{Controller: a.def.controller, Cause: cause}
		}
	}()

	params, err := a.def.bind(a.params)
	if err != nil {
		return nil, err
	}

	ret, err = a.def.call(context.WithValue(ctx, ctxKey{}, a), params)
	if err == nil {
		return ret, nil
	}
	var handled *HandledError
	if errors.As(err, &handled) {
		return nil, err
	}
	return nil, &UnhandledError{Controller: a.def.controller, Cause: err}
}

// LogParams reports each loggable parameter in declaration order. Missing and
// nil values are logged as "null".
func (a *Action) LogParams(l KeyValueLogger) {
	for _, p := range a.def.params {
		if !p.Loggable {
			continue
		}
		v := a.params[p.Name]
		if v == nil {
			l.Log(p.Name, "null")
			continue
		}
		l.Log(p.Name, fmt.Sprint(v))
	}
}
