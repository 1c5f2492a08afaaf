// Package descriptor names definitions: controllers, their actions, markup
// components and Go types used as action parameters.
package descriptor

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// DefType is the kind of definition a descriptor points at.
type DefType string

const (
	Controller DefType = "CONTROLLER"
	Action     DefType = "ACTION"
	Component  DefType = "COMPONENT"
	Type       DefType = "TYPE"
)

// Prefixes.
const (
	PrefixGo     = "go"
	PrefixMarkup = "markup"
)

const actionSep = "/ACTION$"

var ErrInvalidDescriptor = errors.New("descriptor: invalid descriptor")

// Descriptor is an immutable definition name such as go://app.ui.Cart,
// markup://ui:cart or go://app.ui.Cart/ACTION$add.
type Descriptor struct {
	prefix    string
	namespace string
	name      string
	defType   DefType
	parent    string // qualified controller name for actions
}

// Key identifies a definition in caches.
type Key struct {
	Name string
	Type DefType
}

// Parse reads a qualified name of the given type. Components accept the short
// "ns:name" form; go descriptors split namespace and name at the last dot.
func Parse(qualified string, t DefType) (Descriptor, error) {
	qualified = strings.TrimSpace(qualified)
	if t == Action {
		return parseAction(qualified)
	}

	prefix, rest, ok := strings.Cut(qualified, "://")
	if !ok {
		if t != Component {
			return Descriptor{}, fmt.Errorf("%w: %q has no prefix", ErrInvalidDescriptor, qualified)
		}
		prefix, rest = PrefixMarkup, qualified
	}
	if prefix == "" || rest == "" {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidDescriptor, qualified)
	}

	d := Descriptor{prefix: prefix, defType: t}
	if prefix == PrefixMarkup {
		ns, name, ok := strings.Cut(rest, ":")
		if !ok || ns == "" || name == "" {
			return Descriptor{}, fmt.Errorf("%w: %q must be namespace:name", ErrInvalidDescriptor, qualified)
		}
		d.namespace, d.name = ns, name
		return d, nil
	}

	if i := strings.LastIndexByte(rest, '.'); i >= 0 {
		d.namespace, d.name = rest[:i], rest[i+1:]
	} else {
		d.name = rest
	}
	if d.name == "" {
		return Descriptor{}, fmt.Errorf("%w: %q has an empty name", ErrInvalidDescriptor, qualified)
	}
	return d, nil
}

// MustParse panics on error.
func MustParse(qualified string, t DefType) Descriptor {
	d, err := Parse(qualified, t)
	if err != nil {
		panic(err)
	}
	return d
}

func parseAction(qualified string) (Descriptor, error) {
	ctrl, name, ok := strings.Cut(qualified, actionSep)
	if !ok || name == "" {
		return Descriptor{}, fmt.Errorf("%w: %q is not an action descriptor", ErrInvalidDescriptor, qualified)
	}
	parent, err := Parse(ctrl, Controller)
	if err != nil {
		return Descriptor{}, err
	}
	return parent.ActionDescriptor(name), nil
}

// ActionDescriptor returns the descriptor of the named action on controller d.
func (d Descriptor) ActionDescriptor(name string) Descriptor {
	return Descriptor{
		prefix:    d.prefix,
		namespace: d.namespace,
		name:      name,
		defType:   Action,
		parent:    d.QualifiedName(),
	}
}

// ForType returns the TYPE descriptor of a Go type, for example go://int or
// go://testcontrollers.CustomParam.
func ForType(t reflect.Type) Descriptor {
	return MustParse(PrefixGo+"://"+t.String(), Type)
}

func (d Descriptor) Prefix() string    { return d.prefix }
func (d Descriptor) Namespace() string { return d.namespace }
func (d Descriptor) Name() string      { return d.name }
func (d Descriptor) DefType() DefType  { return d.defType }
func (d Descriptor) IsZero() bool      { return d == Descriptor{} }

// Parent returns the controller descriptor of an action.
func (d Descriptor) Parent() (Descriptor, bool) {
	if d.parent == "" {
		return Descriptor{}, false
	}
	p, err := Parse(d.parent, Controller)
	return p, err == nil
}

// QualifiedName renders the canonical form.
func (d Descriptor) QualifiedName() string {
	if d.defType == Action {
		return d.parent + actionSep + d.name
	}
	if d.prefix == PrefixMarkup {
		return d.prefix + "://" + d.namespace + ":" + d.name
	}
	if d.namespace == "" {
		return d.prefix + "://" + d.name
	}
	return d.prefix + "://" + d.namespace + "." + d.name
}

// DescriptorName renders namespace:name.
func (d Descriptor) DescriptorName() string {
	if d.namespace == "" {
		return d.name
	}
	return d.namespace + ":" + d.name
}

func (d Descriptor) Key() Key { return Key{Name: d.QualifiedName(), Type: d.defType} }

func (d Descriptor) String() string { return d.QualifiedName() }

func (d Descriptor) MarshalText() ([]byte, error) { return []byte(d.QualifiedName()), nil }
