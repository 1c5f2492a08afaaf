// Package config fills configuration structs from environment variables and
// optional .env files using `env` struct tags.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option tunes a single Load call.
type Option func(*options)

type options struct {
	files    []string
	optional bool
	prefix   string
	environ  map[string]string
}

// WithEnvFiles loads the given dotenv files before parsing. Variables already
// set in the process environment win over file values.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) { o.files = append(o.files, paths...) }
}

// WithOptionalEnvFiles behaves like WithEnvFiles but ignores missing files.
func WithOptionalEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.files = append(o.files, paths...)
		o.optional = true
	}
}

// WithPrefix prepends prefix to every variable name.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnviron parses from the given map instead of the process environment.
func WithEnviron(vars map[string]string) Option {
	return func(o *options) { o.environ = vars }
}

// Load parses environment variables into a new T.
//
//	type ServerConfig struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	cfg, err := config.Load[ServerConfig](config.WithOptionalEnvFiles(".env"))
func Load[T any](opts ...Option) (T, error) {
	var (
		cfg T
		o   options
	)
	for _, opt := range opts {
		opt(&o)
	}

	for _, path := range o.files {
		if err := godotenv.Load(path); err != nil {
			if o.optional && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return cfg, fmt.Errorf("%w %s: %w", ErrLoadingEnvFile, path, err)
		}
	}

	envOpts := env.Options{Prefix: o.prefix}
	if o.environ != nil {
		envOpts.Environment = o.environ
	}
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}
