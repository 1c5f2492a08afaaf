// Package expression parses the property references used inside component
// markup, such as {!$Browser.isTablet}.
package expression

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyReference = errors.New("expression: empty property reference")
	ErrInvalidSegment = errors.New("expression: invalid path segment")
)

// Location points at the source position of an expression.
type Location struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

func (l Location) IsZero() bool { return l == Location{} }

func (l Location) String() string {
	if l.IsZero() {
		return ""
	}
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// PropertyReference is a dotted path of one or more segments.
type PropertyReference struct {
	path []string
	loc  Location
}

// Parse splits text on dots. Every segment must be a non-empty identifier made
// of letters, digits and '_'. The root segment may also start with '$'.
func Parse(text string, loc Location) (PropertyReference, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return PropertyReference{}, ErrEmptyReference
	}
	path := strings.Split(text, ".")
	for i, seg := range path {
		if !validSegment(i, seg) {
			return PropertyReference{}, fmt.Errorf("%w %q in %q", ErrInvalidSegment, seg, text)
		}
	}
	return PropertyReference{path: path, loc: loc}, nil
}

// MustParse is Parse for references known at compile time. It panics on error.
func MustParse(text string) PropertyReference {
	ref, err := Parse(text, Location{})
	if err != nil {
		panic(err)
	}
	return ref
}

// Root returns the first segment, or "" for the zero reference.
func (r PropertyReference) Root() string {
	if len(r.path) == 0 {
		return ""
	}
	return r.path[0]
}

// Stem returns the reference without its root segment. The location is kept.
func (r PropertyReference) Stem() PropertyReference {
	if len(r.path) <= 1 {
		return PropertyReference{loc: r.loc}
	}
	return PropertyReference{path: r.path[1:], loc: r.loc}
}

func (r PropertyReference) Size() int { return len(r.path) }

func (r PropertyReference) Segments() []string {
	return append([]string(nil), r.path...)
}

func (r PropertyReference) Location() Location { return r.loc }

func (r PropertyReference) String() string { return strings.Join(r.path, ".") }

// validSegment reports whether seg is an identifier. Only the root segment,
// at index 0, may start with '$'.
func validSegment(index int, seg string) bool {
	if seg == "" {
		return false
	}
	for i, c := range seg {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		case c == '$' && i == 0 && index == 0:
		default:
			return false
		}
	}
	return true
}

// InvalidExpressionError reports a reference that a provider or the parser rejected.
type InvalidExpressionError struct {
	Ref PropertyReference
	Msg string
}

// NewInvalidExpressionError formats the message like fmt.Sprintf.
func NewInvalidExpressionError(ref PropertyReference, format string, args ...any) *InvalidExpressionError {
	return &InvalidExpressionError{Ref: ref, Msg: fmt.Sprintf(format, args...)}
}

func (e *InvalidExpressionError) Error() string {
	if loc := e.Ref.Location(); !loc.IsZero() {
		return e.Msg + " at " + loc.String()
	}
	return e.Msg
}

func (e *InvalidExpressionError) Location() Location { return e.Ref.Location() }
