package definition

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dmitrymomot/uikit/pkg/action"
	"github.com/dmitrymomot/uikit/pkg/descriptor"
	"github.com/dmitrymomot/uikit/pkg/expression"
)

const (
	rootTag       = "ui:component"
	controllerAtt = "controller"
)

// Validator checks an expression reference found in component markup.
type Validator interface {
	Validate(ref expression.PropertyReference) error
}

// Component is a parsed component definition.
type Component struct {
	desc        descriptor.Descriptor
	controller  descriptor.Descriptor
	body        string
	expressions []expression.Match
	privileged  bool
}

func (c *Component) Descriptor() descriptor.Descriptor { return c.desc }

// ControllerDescriptor is zero when the markup names no controller.
func (c *Component) ControllerDescriptor() descriptor.Descriptor { return c.controller }

// Body is the inner markup of the root element.
func (c *Component) Body() string { return c.body }

// Expressions lists the {!...} references of Body in document order.
func (c *Component) Expressions() []expression.Match {
	return append([]expression.Match(nil), c.expressions...)
}

func (c *Component) IsPrivileged() bool { return c.privileged }

// Instance is a component bound to its resolved controller.
type Instance struct {
	Component  *Component
	Controller *action.ControllerDef // nil when the component has no controller
}

func parseComponent(desc descriptor.Descriptor, markup string, privileged bool, v Validator) (*Component, error) {
	loc := desc.QualifiedName()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, descriptor.NewInvalidDefinitionError(desc, loc, "unparsable markup: %v", err)
	}
	root := doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return goquery.NodeName(s) == rootTag
	})
	switch root.Length() {
	case 0:
		return nil, descriptor.NewInvalidDefinitionError(desc, loc, "missing <%s> root element", rootTag)
	case 1:
	default:
		return nil, descriptor.NewInvalidDefinitionError(desc, loc, "only one <%s> element is allowed", rootTag)
	}

	c := &Component{desc: desc, privileged: privileged}

	if name, ok := root.Attr(controllerAtt); ok {
		ctrl, err := descriptor.Parse(name, descriptor.Controller)
		if err != nil {
			return nil, descriptor.NewInvalidDefinitionError(desc, loc, "invalid controller %q: %v", name, err)
		}
		if ctrl.Prefix() != descriptor.PrefixGo {
			return nil, descriptor.NewInvalidDefinitionError(desc, loc, "controller %s must use the %s:// prefix", ctrl, descriptor.PrefixGo)
		}
		c.controller = ctrl
	}

	body, err := root.Html()
	if err != nil {
		return nil, descriptor.NewInvalidDefinitionError(desc, loc, "cannot render body: %v", err)
	}
	c.body = strings.TrimSpace(body)

	matches, err := expression.Scan(c.body, loc)
	if err != nil {
		return nil, err
	}
	if v != nil {
		for _, m := range matches {
			if err := v.Validate(m.Ref); err != nil {
				return nil, err
			}
		}
	}
	c.expressions = matches
	return c, nil
}
