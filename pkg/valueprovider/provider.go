// Package valueprovider implements the global value providers that component
// expressions read from, such as $Browser and $Locale.
package valueprovider

import (
	"encoding/json"
	"maps"
	"net/http"
	"slices"

	"github.com/dmitrymomot/uikit/pkg/expression"
)

// Type is the expression root a provider answers to.
type Type string

const (
	TypeBrowser Type = "$Browser"
	TypeLocale  Type = "$Locale"
)

// GlobalValueProvider exposes read-only, request-scoped values to expressions.
// References passed to its methods are relative to the provider root:
// {!$Browser.isTablet} reaches the $Browser provider as "isTablet".
type GlobalValueProvider interface {
	Type() Type
	// Value returns the value for a single-segment reference.
	Value(ref expression.PropertyReference) (any, bool)
	// Data returns every value the provider exposes.
	Data() Values
	// Validate reports whether ref can ever be answered by this provider.
	Validate(ref expression.PropertyReference) error
	IsEmpty() bool
}

// Values is an immutable string-keyed mapping.
type Values struct {
	m map[string]any
}

// NewValues copies m.
func NewValues(m map[string]any) Values {
	return Values{m: maps.Clone(m)}
}

func (v Values) Get(key string) (any, bool) {
	val, ok := v.m[key]
	return val, ok
}

func (v Values) Len() int { return len(v.m) }

// Keys returns the keys in sorted order.
func (v Values) Keys() []string {
	return slices.Sorted(maps.Keys(v.m))
}

// Map returns a copy the caller may modify.
func (v Values) Map() map[string]any {
	if v.m == nil {
		return map[string]any{}
	}
	return maps.Clone(v.m)
}

func (v Values) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Map())
}

// RequestInfo carries the request headers providers derive their values from.
type RequestInfo struct {
	UserAgent      string
	AcceptLanguage string
}

// RequestInfoFrom extracts provider inputs from r. A nil request yields nil.
func RequestInfoFrom(r *http.Request) *RequestInfo {
	if r == nil {
		return nil
	}
	return &RequestInfo{
		UserAgent:      r.UserAgent(),
		AcceptLanguage: r.Header.Get("Accept-Language"),
	}
}
