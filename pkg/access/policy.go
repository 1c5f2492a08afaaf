package access

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/uikit/pkg/descriptor"
)

// Grant lets components of Namespace reference the matching controllers.
// Controller patterns match the dotted form "namespace.Name".
type Grant struct {
	Namespace   string   `yaml:"namespace"`
	Controllers []string `yaml:"controllers"`
}

// Policy decides which namespaces may reference which controllers.
type Policy struct {
	SystemNamespaces []string `yaml:"system_namespaces"`
	Grants           []Grant  `yaml:"grants"`
}

// DefaultPolicy trusts the ui and uikit.* namespaces and grants nothing else.
func DefaultPolicy() *Policy {
	return &Policy{SystemNamespaces: []string{"ui", "uikit.*"}}
}

// LoadPolicy decodes a YAML policy document and validates its patterns.
func LoadPolicy(r io.Reader) (*Policy, error) {
	var p Policy
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPolicyFile reads the policy at path.
func LoadPolicyFile(path string) (*Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	defer f.Close()
	return LoadPolicy(f)
}

// Validate checks every pattern of the policy.
func (p *Policy) Validate() error {
	for _, ns := range p.SystemNamespaces {
		if !validPattern(ns) {
			return fmt.Errorf("%w: system namespace %q", ErrInvalidPattern, ns)
		}
	}
	for _, g := range p.Grants {
		if !validPattern(g.Namespace) {
			return fmt.Errorf("%w: grant namespace %q", ErrInvalidPattern, g.Namespace)
		}
		for _, c := range g.Controllers {
			if !validPattern(c) {
				return fmt.Errorf("%w: controller %q granted to %q", ErrInvalidPattern, c, g.Namespace)
			}
		}
	}
	return nil
}

// IsSystem reports whether ns is one of the trusted namespaces.
func (p *Policy) IsSystem(ns string) bool {
	return MatchAny(p.SystemNamespaces, ns)
}

// Check reports whether the component referrer may use the controller target.
// Privileged sources, system namespaces and controllers of the referrer's own
// namespace are always allowed. Returns *descriptor.NoAccessError otherwise.
func (p *Policy) Check(target, referrer descriptor.Descriptor, privileged bool) error {
	ns := referrer.Namespace()
	if privileged || p.IsSystem(ns) || target.Namespace() == ns {
		return nil
	}
	name := controllerName(target)
	for _, g := range p.Grants {
		if Match(ns, g.Namespace) && MatchAny(g.Controllers, name) {
			return nil
		}
	}
	return &descriptor.NoAccessError{Target: target, Namespace: ns, Referrer: referrer}
}

func controllerName(d descriptor.Descriptor) string {
	if d.Namespace() == "" {
		return d.Name()
	}
	return strings.Join([]string{d.Namespace(), d.Name()}, Delimiter)
}
