package action

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/dmitrymomot/uikit/pkg/convert"
	"github.com/dmitrymomot/uikit/pkg/descriptor"
)

// Controller is implemented by types exposing server actions. Only the specs
// returned by Actions are callable; other methods stay private to Go code.
type Controller interface {
	Actions() []Spec
}

// DefineOption tunes controller definition.
type DefineOption func(*defineOptions)

type defineOptions struct {
	converters *convert.Registry
}

// WithConverters sets the registry used to coerce parameters.
func WithConverters(r *convert.Registry) DefineOption {
	return func(o *defineOptions) {
		if r != nil {
			o.converters = r
		}
	}
}

// ControllerDef is the validated definition of a controller and its actions.
type ControllerDef struct {
	desc    descriptor.Descriptor
	actions map[string]*Def
}

// DescriptorFor names a controller after its Go type: go://pkg.Type.
func DescriptorFor(impl any) descriptor.Descriptor {
	t := reflect.TypeOf(impl)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return descriptor.Descriptor{}
	}
	return descriptor.MustParse(descriptor.PrefixGo+"://"+t.String(), descriptor.Controller)
}

// DefineController validates impl and builds its definition. impl must
// implement Controller and declare unique action names.
func DefineController(desc descriptor.Descriptor, impl any, opts ...DefineOption) (*ControllerDef, error) {
	o := defineOptions{converters: convert.Default}
	for _, opt := range opts {
		opt(&o)
	}

	ctrl, ok := impl.(Controller)
	if !ok {
		return nil, descriptor.NewInvalidDefinitionError(desc, location(desc, ""),
			"type %T must implement action.Controller", impl)
	}

	specs := ctrl.Actions()
	def := &ControllerDef{desc: desc, actions: make(map[string]*Def, len(specs))}
	for _, s := range specs {
		if _, dup := def.actions[s.name]; dup {
			return nil, descriptor.NewInvalidDefinitionError(desc, location(desc, ""), "duplicate action %s", s.name)
		}
		ad, err := newDef(desc, s, o.converters)
		if err != nil {
			return nil, err
		}
		def.actions[s.name] = ad
	}
	return def, nil
}

func (c *ControllerDef) Descriptor() descriptor.Descriptor { return c.desc }

// ActionDefs returns the actions keyed by name.
func (c *ControllerDef) ActionDefs() map[string]*Def { return maps.Clone(c.actions) }

// ActionNames returns the action names in sorted order.
func (c *ControllerDef) ActionNames() []string { return slices.Sorted(maps.Keys(c.actions)) }

// SubDefinition returns the named action or nil.
func (c *ControllerDef) SubDefinition(name string) *Def { return c.actions[name] }

func (c *ControllerDef) String() string {
	return fmt.Sprintf("%s (%d actions)", c.desc, len(c.actions))
}

func (c *ControllerDef) MarshalJSON() ([]byte, error) {
	defs := make([]*Def, 0, len(c.actions))
	for _, name := range c.ActionNames() {
		defs = append(defs, c.actions[name])
	}
	return json.Marshal(struct {
		Descriptor descriptor.Descriptor `json:"descriptor"`
		ActionDefs []*Def                `json:"actionDefs"`
	}{c.desc, defs})
}
