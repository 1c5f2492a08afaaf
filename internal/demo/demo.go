// Package demo holds the controller and components served by `uikit serve`.
package demo

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrymomot/uikit/pkg/action"
	"github.com/dmitrymomot/uikit/pkg/definition"
	"github.com/dmitrymomot/uikit/pkg/valueprovider"
)

// DeviceComponent shows the $Browser flags of the requesting client.
const DeviceComponent = `<ui:component controller="go://demo.DeviceController">
<dl class="device">
  <dt>form factor</dt><dd>{!$Browser.formFactor}</dd>
  <dt>phone</dt><dd>{!$Browser.isPhone}</dd>
  <dt>tablet</dt><dd>{!$Browser.isTablet}</dd>
  <dt>android</dt><dd>{!$Browser.isAndroid}</dd>
  <dt>ios</dt><dd>{!$Browser.isIOS}</dd>
</dl>
</ui:component>`

// GreetingComponent greets in the negotiated locale direction.
const GreetingComponent = `<ui:component controller="go://demo.DeviceController">
<p dir="{!$Locale.dir}" lang="{!$Locale.language}">Hello from a {!$Browser.formFactor} client</p>
</ui:component>`

// DeviceController exposes $Browser data to client-side actions.
type DeviceController struct{}

type describeParams struct {
	UserAgent string `param:"userAgent,loggable"`
}

type greetParams struct {
	Name  string `param:"name,loggable"`
	Times int    `param:"times"`
}

type auditParams struct {
	Event string `param:"event,loggable"`
}

func (DeviceController) Actions() []action.Spec {
	return []action.Spec{
		action.New("describe", describe),
		action.New("greet", greet),
		action.Exec("audit", func(context.Context, auditParams) error { return nil }, action.Background()),
	}
}

// describe classifies a user agent the same way $Browser does.
func describe(_ context.Context, p describeParams) (valueprovider.Values, error) {
	if strings.TrimSpace(p.UserAgent) == "" {
		return valueprovider.Values{}, action.NewHandledError("userAgent is required")
	}
	return valueprovider.NewBrowser(&valueprovider.RequestInfo{UserAgent: p.UserAgent}).Data(), nil
}

// greet repeats a greeting and chains an audit action.
func greet(ctx context.Context, p greetParams) (string, error) {
	if p.Name == "" {
		return "", action.NewHandledError("name is required")
	}
	times := max(p.Times, 1)
	if times > 10 {
		return "", action.NewHandledError("times must not exceed 10")
	}
	if _, err := action.Enqueue(ctx, "go://demo.DeviceController/ACTION$audit", map[string]any{
		"event": "greet:" + p.Name,
	}); err != nil {
		return "", fmt.Errorf("chain audit: %w", err)
	}
	return strings.TrimSpace(strings.Repeat("hello "+p.Name+" ", times)), nil
}

// Register adds the demo controller and components to r.
func Register(r *definition.Registry) error {
	if _, err := r.RegisterController("", DeviceController{}); err != nil {
		return fmt.Errorf("register demo controller: %w", err)
	}
	for name, markup := range map[string]string{
		"ui:device":   DeviceComponent,
		"ui:greeting": GreetingComponent,
	} {
		if _, err := r.AddSource(name, markup, false); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	return nil
}
