// Package definition resolves controller and component definitions by
// descriptor and caches them.
package definition

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/uikit/pkg/access"
	"github.com/dmitrymomot/uikit/pkg/action"
	"github.com/dmitrymomot/uikit/pkg/cache"
	"github.com/dmitrymomot/uikit/pkg/convert"
	"github.com/dmitrymomot/uikit/pkg/descriptor"
	"github.com/dmitrymomot/uikit/pkg/logger"
	"github.com/dmitrymomot/uikit/pkg/valueprovider"
)

// DefaultCacheSize is the capacity of each registry cache.
const DefaultCacheSize = 256

type source struct {
	markup     string
	privileged bool
}

// Registry holds controller implementations and component sources and
// serves validated definitions built from them.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]any
	sources     map[string]source

	policy     *access.Policy
	validator  Validator
	converters *convert.Registry
	logger     *slog.Logger

	descriptors *cache.LRUCache[descriptor.Key, descriptor.Descriptor]
	controlDefs *cache.LRUCache[descriptor.Key, *action.ControllerDef]
	components  *cache.LRUCache[descriptor.Key, *Component]
}

// Option configures a Registry.
type Option func(*registryOptions)

type registryOptions struct {
	policy     *access.Policy
	validator  Validator
	converters *convert.Registry
	logger     *slog.Logger
	cacheSize  int
}

func WithPolicy(p *access.Policy) Option {
	return func(o *registryOptions) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithValidator sets the validator for markup expressions. Defaults to
// valueprovider.DefaultValidator.
func WithValidator(v Validator) Option {
	return func(o *registryOptions) {
		if v != nil {
			o.validator = v
		}
	}
}

func WithConverters(r *convert.Registry) Option {
	return func(o *registryOptions) {
		if r != nil {
			o.converters = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *registryOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCacheSize sets the capacity of each cache. Non-positive sizes are ignored.
func WithCacheSize(n int) Option {
	return func(o *registryOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

func New(opts ...Option) *Registry {
	o := registryOptions{
		policy:     access.DefaultPolicy(),
		validator:  valueprovider.DefaultValidator(),
		converters: convert.Default,
		logger:     logger.Discard(),
		cacheSize:  DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		controllers: make(map[string]any),
		sources:     make(map[string]source),
		policy:      o.policy,
		validator:   o.validator,
		converters:  o.converters,
		logger:      o.logger.With(logger.Component("definition")),
		descriptors: cache.NewLRUCache[descriptor.Key, descriptor.Descriptor](o.cacheSize),
		controlDefs: cache.NewLRUCache[descriptor.Key, *action.ControllerDef](o.cacheSize),
		components:  cache.NewLRUCache[descriptor.Key, *Component](o.cacheSize),
	}
}

// Descriptor parses name as a descriptor of type t, caching the result by
// name and type.
func (r *Registry) Descriptor(name string, t descriptor.DefType) (descriptor.Descriptor, error) {
	return r.descriptors.GetOrLoad(descriptor.Key{Name: name, Type: t}, func() (descriptor.Descriptor, error) {
		return descriptor.Parse(name, t)
	})
}

// RegisterController makes impl resolvable under name. An empty name uses the
// Go type name of impl (go://pkg.Type). The controller is validated eagerly.
func (r *Registry) RegisterController(name string, impl any) (descriptor.Descriptor, error) {
	desc := action.DescriptorFor(impl)
	if name != "" {
		d, err := r.Descriptor(name, descriptor.Controller)
		if err != nil {
			return descriptor.Descriptor{}, err
		}
		desc = d
	}
	if desc.IsZero() {
		return descriptor.Descriptor{}, fmt.Errorf("%w: nil implementation", ErrNotController)
	}
	if _, err := action.DefineController(desc, impl, action.WithConverters(r.converters)); err != nil {
		return descriptor.Descriptor{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := desc.QualifiedName()
	if _, ok := r.controllers[key]; ok {
		return descriptor.Descriptor{}, fmt.Errorf("%w: %s", ErrAlreadyRegistered, key)
	}
	r.controllers[key] = impl
	r.controlDefs.Remove(desc.Key())
	return desc, nil
}

// Controllers lists registered controller descriptors sorted by name.
func (r *Registry) Controllers() []descriptor.Descriptor {
	r.mu.RLock()
	names := slices.Sorted(maps.Keys(r.controllers))
	r.mu.RUnlock()

	out := make([]descriptor.Descriptor, 0, len(names))
	for _, n := range names {
		out = append(out, descriptor.MustParse(n, descriptor.Controller))
	}
	return out
}

// AddSource registers or replaces component markup under name ("ns:name" or
// "markup://ns:name"). Privileged sources bypass the access policy.
func (r *Registry) AddSource(name, markup string, privileged bool) (descriptor.Descriptor, error) {
	desc, err := r.Descriptor(name, descriptor.Component)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	r.mu.Lock()
	r.sources[desc.QualifiedName()] = source{markup: markup, privileged: privileged}
	r.mu.Unlock()
	r.Invalidate(desc)
	return desc, nil
}

// RemoveSource drops a component source. Unknown names are ignored.
func (r *Registry) RemoveSource(name string) {
	desc, err := r.Descriptor(name, descriptor.Component)
	if err != nil {
		return
	}
	r.mu.Lock()
	delete(r.sources, desc.QualifiedName())
	r.mu.Unlock()
	r.Invalidate(desc)
}

// Invalidate drops cached definitions for d.
func (r *Registry) Invalidate(d descriptor.Descriptor) {
	r.controlDefs.Remove(d.Key())
	r.components.Remove(d.Key())
}

// InvalidateAll empties every cache.
func (r *Registry) InvalidateAll() {
	r.descriptors.Clear()
	r.controlDefs.Clear()
	r.components.Clear()
}

// Controller resolves a controller definition by qualified name.
func (r *Registry) Controller(name string) (*action.ControllerDef, error) {
	desc, err := r.Descriptor(name, descriptor.Controller)
	if err != nil {
		return nil, err
	}
	return r.controllerDef(desc)
}

func (r *Registry) controllerDef(desc descriptor.Descriptor) (*action.ControllerDef, error) {
	return r.controlDefs.GetOrLoad(desc.Key(), func() (*action.ControllerDef, error) {
		r.mu.RLock()
		impl, ok := r.controllers[desc.QualifiedName()]
		r.mu.RUnlock()
		if !ok {
			return nil, &descriptor.DefinitionNotFoundError{Descriptor: desc}
		}
		def, err := action.DefineController(desc, impl, action.WithConverters(r.converters))
		if err != nil {
			return nil, err
		}
		r.logger.Debug("controller loaded", logger.Descriptor(desc.QualifiedName()))
		return def, nil
	})
}

// ActionDef resolves an action by its qualified descriptor, for example
// go://app.Cart/ACTION$add.
func (r *Registry) ActionDef(qualified string) (*action.Def, error) {
	desc, err := r.Descriptor(qualified, descriptor.Action)
	if err != nil {
		return nil, err
	}
	parent, ok := desc.Parent()
	if !ok {
		return nil, &descriptor.DefinitionNotFoundError{Descriptor: desc}
	}
	ctrl, err := r.controllerDef(parent)
	if err != nil {
		return nil, err
	}
	def := ctrl.SubDefinition(desc.Name())
	if def == nil {
		return nil, &descriptor.DefinitionNotFoundError{Descriptor: desc}
	}
	return def, nil
}

// Component resolves a component definition by name.
func (r *Registry) Component(name string) (*Component, error) {
	desc, err := r.Descriptor(name, descriptor.Component)
	if err != nil {
		return nil, err
	}
	return r.components.GetOrLoad(desc.Key(), func() (*Component, error) {
		r.mu.RLock()
		src, ok := r.sources[desc.QualifiedName()]
		r.mu.RUnlock()
		if !ok {
			return nil, &descriptor.DefinitionNotFoundError{Descriptor: desc}
		}
		c, err := parseComponent(desc, src.markup, src.privileged, r.validator)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("component loaded",
			logger.Descriptor(desc.QualifiedName()),
			slog.Int("expressions", len(c.expressions)),
		)
		return c, nil
	})
}

// Instance resolves component name together with its controller. Missing
// definitions and access policy violations are returned as errors.
func (r *Registry) Instance(ctx context.Context, name string) (*Instance, error) {
	c, err := r.Component(name)
	if err != nil {
		return nil, err
	}
	inst := &Instance{Component: c}
	if c.controller.IsZero() {
		return inst, nil
	}
	ctrl, err := r.controllerDef(c.controller)
	if err != nil {
		return nil, err
	}
	if err := r.policy.Check(c.controller, c.desc, c.privileged); err != nil {
		r.logger.WarnContext(ctx, "controller access denied",
			logger.Descriptor(c.controller.QualifiedName()),
			logger.Namespace(c.desc.Namespace()),
			logger.Error(err),
		)
		return nil, err
	}
	inst.Controller = ctrl
	return inst, nil
}

// CacheStats reports the definition caches.
func (r *Registry) CacheStats() map[string]cache.Stats {
	return map[string]cache.Stats{
		"descriptor": r.descriptors.Stats(),
		"controller": r.controlDefs.Stats(),
		"component":  r.components.Stats(),
	}
}
