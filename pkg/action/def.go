package action

import (
	"context"
	"encoding/json"
	"reflect"
	"slices"
	"strings"

	"github.com/dmitrymomot/uikit/pkg/convert"
	"github.com/dmitrymomot/uikit/pkg/descriptor"
)

// Type is the execution side of an action.
type Type string

const Server Type = "SERVER"

const paramTag = "param"

// ParamDef describes one declared action parameter.
type ParamDef struct {
	Name     string                `json:"name"`
	Type     descriptor.Descriptor `json:"type"`
	Loggable bool                  `json:"loggable,omitempty"`

	field  int
	goType reflect.Type
}

// Def is the definition of a single server action.
type Def struct {
	desc       descriptor.Descriptor
	controller descriptor.Descriptor
	params     []ParamDef
	paramsType reflect.Type
	returnType reflect.Type
	background bool
	call       func(ctx context.Context, params any) (any, error)
	converters *convert.Registry
}

func newDef(ctrl descriptor.Descriptor, s Spec, converters *convert.Registry) (*Def, error) {
	loc := location(ctrl, s.name)
	if s.name == "" || s.call == nil {
		return nil, descriptor.NewInvalidDefinitionError(ctrl, loc, "action must have a name and a function")
	}
	if s.params == nil || s.params.Kind() != reflect.Struct {
		return nil, descriptor.NewInvalidDefinitionError(ctrl, loc, "parameters of action %s must be a struct, got %v", s.name, s.params)
	}

	params := make([]ParamDef, 0, s.params.NumField())
	seen := make(map[string]struct{}, s.params.NumField())
	for i := range s.params.NumField() {
		f := s.params.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, ok := f.Tag.Lookup(paramTag)
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if !ok || name == "" {
			return nil, descriptor.NewInvalidDefinitionError(ctrl, loc, "param tag is required on all action parameters")
		}
		if _, dup := seen[name]; dup {
			return nil, descriptor.NewInvalidDefinitionError(ctrl, loc, "duplicate parameter %s", name)
		}
		seen[name] = struct{}{}
		params = append(params, ParamDef{
			Name:     name,
			Type:     descriptor.ForType(f.Type),
			Loggable: slices.Contains(strings.Split(opts, ","), "loggable"),
			field:    i,
			goType:   f.Type,
		})
	}

	return &Def{
		desc:       ctrl.ActionDescriptor(s.name),
		controller: ctrl,
		params:     params,
		paramsType: s.params,
		returnType: s.returns,
		background: s.background,
		call:       s.call,
		converters: converters,
	}, nil
}

func location(ctrl descriptor.Descriptor, action string) string {
	name := ctrl.Name()
	if action != "" {
		name += "." + action
	}
	return name
}

func (d *Def) Descriptor() descriptor.Descriptor { return d.desc }

func (d *Def) Controller() descriptor.Descriptor { return d.controller }

func (d *Def) Name() string { return d.desc.Name() }

func (d *Def) ActionType() Type { return Server }

// IsBackground reports whether the action was declared with Background.
func (d *Def) IsBackground() bool { return d.background }

func (d *Def) Params() []ParamDef { return append([]ParamDef(nil), d.params...) }

// ReturnType is the zero descriptor for actions declared with Exec.
func (d *Def) ReturnType() descriptor.Descriptor {
	if d.returnType == nil {
		return descriptor.Descriptor{}
	}
	return descriptor.ForType(d.returnType)
}

// Instance creates a NEW action bound to params. The map is copied.
func (d *Def) Instance(params map[string]any, opts ...InstanceOption) *Action {
	a := &Action{def: d, state: StateNew, params: make(map[string]any, len(params))}
	for k, v := range params {
		a.params[k] = v
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (d *Def) bind(raw map[string]any) (any, error) {
	pv := reflect.New(d.paramsType).Elem()
	for _, p := range d.params {
		v, ok := raw[p.Name]
		if !ok {
			continue
		}
		out, err := d.converters.Convert(v, p.goType)
		if err != nil {
			return nil, &ParamError{Param: p.Name, Type: p.Type, Cause: err}
		}
		pv.Field(p.field).Set(out)
	}
	return pv.Interface(), nil
}

type defJSON struct {
	Name       string                 `json:"name"`
	Descriptor descriptor.Descriptor  `json:"descriptor"`
	ActionType Type                   `json:"actionType"`
	ReturnType *descriptor.Descriptor `json:"returnType,omitempty"`
	Background bool                   `json:"background,omitempty"`
	Params     []ParamDef             `json:"params"`
}

func (d *Def) MarshalJSON() ([]byte, error) {
	out := defJSON{
		Name:       d.Name(),
		Descriptor: d.desc,
		ActionType: d.ActionType(),
		Background: d.background,
		Params:     d.params,
	}
	if rt := d.ReturnType(); !rt.IsZero() {
		out.ReturnType = &rt
	}
	return json.Marshal(out)
}
