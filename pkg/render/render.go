// Package render turns component definitions into templ components, filling
// {!expr} references from global value providers.
package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/uikit/pkg/definition"
	"github.com/dmitrymomot/uikit/pkg/expression"
)

// Resolver returns the value of a full reference such as $Browser.isPhone.
// *valueprovider.Set implements it.
type Resolver interface {
	Resolve(ref expression.PropertyReference) (any, error)
}

// ElementID is the id of the element wrapping a rendered component, used as
// the patch target for partial updates: "ui:badge" becomes "ui-badge".
func ElementID(c *definition.Component) string {
	d := c.Descriptor()
	return strings.NewReplacer(".", "-", ":", "-").Replace(d.Namespace() + ":" + d.Name())
}

// Component renders c inside a div carrying its element id. Each expression
// is replaced by the HTML-escaped value from values.
func Component(c *definition.Component, values Resolver) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		d := c.Descriptor()
		if _, err := fmt.Fprintf(w, `<div id="%s" data-component="%s">`,
			templ.EscapeString(ElementID(c)), templ.EscapeString(d.DescriptorName())); err != nil {
			return err
		}

		body := c.Body()
		last := 0
		for _, m := range c.Expressions() {
			if _, err := io.WriteString(w, body[last:m.Start]); err != nil {
				return err
			}
			v, err := values.Resolve(m.Ref)
			if err != nil {
				return fmt.Errorf("render %s: %w", d, err)
			}
			if _, err := io.WriteString(w, templ.EscapeString(Format(v))); err != nil {
				return err
			}
			last = m.End
		}
		if _, err := io.WriteString(w, body[last:]); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</div>")
		return err
	})
}

// Format renders a provider value as text. Nil renders as the empty string.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// String renders tpl into a string.
func String(ctx context.Context, tpl templ.Component) (string, error) {
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
