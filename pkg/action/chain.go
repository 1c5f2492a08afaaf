package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNoEnqueuer     = errors.New("action: no enqueuer in context")
	ErrNoActionInCtx  = errors.New("action: no running action in context")
	ErrInvalidChained = errors.New("action: invalid chained actions payload")
)

// Enqueuer resolves an action descriptor into a runnable action. The server
// installs one into the context of every request it executes.
type Enqueuer interface {
	Instance(ctx context.Context, qualified string, params map[string]any) (*Action, error)
}

type enqueuerKey struct{}

// WithEnqueuer stores e in ctx.
func WithEnqueuer(ctx context.Context, e Enqueuer) context.Context {
	return context.WithValue(ctx, enqueuerKey{}, e)
}

func chainTarget(ctx context.Context) (*Action, Enqueuer, error) {
	current, ok := FromContext(ctx)
	if !ok {
		return nil, nil, ErrNoActionInCtx
	}
	e, ok := ctx.Value(enqueuerKey{}).(Enqueuer)
	if !ok {
		return nil, nil, ErrNoEnqueuer
	}
	return current, e, nil
}

// Enqueue chains a new action after the action running with ctx.
func Enqueue(ctx context.Context, qualified string, params map[string]any) (*Action, error) {
	current, e, err := chainTarget(ctx)
	if err != nil {
		return nil, err
	}
	a, err := e.Instance(ctx, qualified, params)
	if err != nil {
		return nil, err
	}
	current.Add(a)
	return a, nil
}

// ChainedRequest is one entry of a JSON chaining payload.
type ChainedRequest struct {
	Descriptor string         `json:"descriptor"`
	Params     map[string]any `json:"params"`
}

// EnqueueJSON chains every action listed in raw, which has the form
// {"actions":[{"descriptor":"...","params":{...}}]}. Either all entries are
// chained or, when one fails to resolve, none is.
func EnqueueJSON(ctx context.Context, raw string) ([]*Action, error) {
	var payload struct {
		Actions []ChainedRequest `json:"actions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChained, err)
	}
	current, e, err := chainTarget(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Action, 0, len(payload.Actions))
	for _, req := range payload.Actions {
		a, err := e.Instance(ctx, req.Descriptor, req.Params)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	for _, a := range out {
		current.Add(a)
	}
	return out, nil
}
