package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrymomot/uikit/pkg/action"
)

// MaxMessageSize bounds the size of a decoded action message.
const MaxMessageSize = 1 << 20

// Request is one action invocation of a message.
type Request struct {
	ID         string         `json:"id"`
	Descriptor string         `json:"descriptor"`
	Params     map[string]any `json:"params,omitempty"`
	Storable   bool           `json:"storable,omitempty"`
}

// Message is the wire form of an action request: {"actions":[...]}.
type Message struct {
	Actions []Request `json:"actions"`
}

// DecodeMessage reads a message from r.
func DecodeMessage(r io.Reader) (Message, error) {
	var msg Message
	dec := json.NewDecoder(io.LimitReader(r, MaxMessageSize))
	dec.UseNumber()
	if err := dec.Decode(&msg); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Validate reports messages without actions or with actions lacking a
// descriptor.
func (m Message) Validate() error {
	if len(m.Actions) == 0 {
		return fmt.Errorf("%w: no actions", ErrInvalidMessage)
	}
	for i, req := range m.Actions {
		if req.Descriptor == "" {
			return fmt.Errorf("%w: action %d has no descriptor", ErrInvalidMessage, i)
		}
	}
	return nil
}

// ErrorInfo describes one action error in a response.
type ErrorInfo struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
}

// Error kinds reported in ErrorInfo.Type.
const (
	ErrorTypeParam     = "PARAM"
	ErrorTypeHandled   = "HANDLED"
	ErrorTypeUnhandled = "UNHANDLED"
)

// Result is the outcome of one executed action.
type Result struct {
	ID          string       `json:"id"`
	Descriptor  string       `json:"descriptor"`
	State       action.State `json:"state"`
	ReturnValue any          `json:"returnValue"`
	Error       []ErrorInfo  `json:"error"`
	Storable    bool         `json:"storable,omitempty"`
}

// Response lists results in request order, each followed by the actions it
// chained.
type Response struct {
	Actions []Result `json:"actions"`
}

func newResult(a *action.Action) Result {
	res := Result{
		ID:          a.ID(),
		Descriptor:  a.Descriptor().QualifiedName(),
		State:       a.State(),
		ReturnValue: a.ReturnValue(),
		Error:       []ErrorInfo{},
		Storable:    a.IsStorable(),
	}
	for _, err := range a.Errors() {
		res.Error = append(res.Error, errorInfo(err))
	}
	return res
}

func errorInfo(err error) ErrorInfo {
	info := ErrorInfo{Message: err.Error(), Type: ErrorTypeUnhandled}
	var (
		param   *action.ParamError
		handled *action.HandledError
	)
	switch {
	case errors.As(err, &param):
		info.Type = ErrorTypeParam
	case errors.As(err, &handled):
		info.Type = ErrorTypeHandled
		info.Data = handled.Data
	}
	return info
}
