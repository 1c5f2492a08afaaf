package uikit

import (
	"fmt"

	"github.com/dmitrymomot/uikit/pkg/access"
	"github.com/dmitrymomot/uikit/pkg/definition"
	"github.com/dmitrymomot/uikit/pkg/environment"
	"github.com/dmitrymomot/uikit/pkg/httpserver"
	"github.com/dmitrymomot/uikit/pkg/ratelimiter"
)

// Config is the application configuration loaded from the environment.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"uikit"`
	LogLevel    string `env:"LOG_LEVEL"`

	// SystemNamespaces replace the default policy namespaces when set.
	SystemNamespaces []string `env:"UIKIT_SYSTEM_NAMESPACES" envSeparator:","`
	// AccessPolicy is a YAML policy file. It overrides SystemNamespaces.
	AccessPolicy  string `env:"UIKIT_ACCESS_POLICY"`
	CacheSize     int    `env:"UIKIT_DEF_CACHE_SIZE" envDefault:"256"`
	MaxChainDepth int    `env:"UIKIT_MAX_CHAIN_DEPTH" envDefault:"8"`

	// ActionRate limits action messages per client IP. Disabled unless
	// UIKIT_ACTIONS_RATE_CAPACITY is set.
	ActionRate ratelimiter.Config `envPrefix:"UIKIT_ACTIONS_RATE_"`

	HTTP httpserver.Config
}

// Environment returns the parsed APP_ENV.
func (c Config) Environment() environment.Environment {
	return environment.Parse(c.AppEnv)
}

// Policy builds the access policy described by c.
func (c Config) Policy() (*access.Policy, error) {
	if c.AccessPolicy != "" {
		p, err := access.LoadPolicyFile(c.AccessPolicy)
		if err != nil {
			return nil, fmt.Errorf("load access policy: %w", err)
		}
		return p, nil
	}
	p := access.DefaultPolicy()
	if len(c.SystemNamespaces) > 0 {
		p.SystemNamespaces = c.SystemNamespaces
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (c Config) cacheSize() int {
	if c.CacheSize <= 0 {
		return definition.DefaultCacheSize
	}
	return c.CacheSize
}
