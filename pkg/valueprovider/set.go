package valueprovider

import (
	"net/http"
	"slices"

	"github.com/dmitrymomot/uikit/pkg/expression"
)

// Set routes full references ($Browser.isTablet) to the provider named by
// their root.
type Set struct {
	providers map[Type]GlobalValueProvider
}

// NewSet groups providers. A later provider replaces an earlier one of the same type.
func NewSet(providers ...GlobalValueProvider) *Set {
	s := &Set{providers: make(map[Type]GlobalValueProvider, len(providers))}
	for _, p := range providers {
		if p != nil {
			s.providers[p.Type()] = p
		}
	}
	return s
}

// ForRequest builds the standard providers for r.
func ForRequest(r *http.Request, browserOpts []BrowserOption, localeOpts []LocaleOption) *Set {
	info := RequestInfoFrom(r)
	return NewSet(NewBrowser(info, browserOpts...), NewLocale(info, localeOpts...))
}

// DefaultValidator validates references without request data. It is what
// definition loading checks component markup against.
func DefaultValidator() *Set {
	return NewSet(NewBrowser(nil), NewLocale(nil))
}

func (s *Set) Provider(t Type) (GlobalValueProvider, bool) {
	p, ok := s.providers[t]
	return p, ok
}

func (s *Set) Types() []Type {
	types := make([]Type, 0, len(s.providers))
	for t := range s.providers {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Validate checks a full reference against the provider named by its root.
func (s *Set) Validate(ref expression.PropertyReference) error {
	_, err := s.route(ref)
	return err
}

// Resolve validates ref and returns the provider's value for it. A valid
// reference without data resolves to nil.
func (s *Set) Resolve(ref expression.PropertyReference) (any, error) {
	p, err := s.route(ref)
	if err != nil {
		return nil, err
	}
	v, _ := p.Value(ref.Stem())
	return v, nil
}

func (s *Set) route(ref expression.PropertyReference) (GlobalValueProvider, error) {
	p, ok := s.providers[Type(ref.Root())]
	if !ok {
		return nil, expression.NewInvalidExpressionError(ref, "unknown value provider %s in %s", ref.Root(), ref)
	}
	if ref.Size() < 2 {
		return nil, expression.NewInvalidExpressionError(ref, "missing property on %s", ref.Root())
	}
	if err := p.Validate(ref.Stem()); err != nil {
		return nil, err
	}
	return p, nil
}
