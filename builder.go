// FILE: lixenwraith/appsettings/builder.go
package appsettings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ValidatorFunc validates a fully loaded root Configuration.
type ValidatorFunc func(c Configuration) error

// Builder provides a fluent interface for assembling a LayeredStore and the
// root Configuration over it
type Builder struct {
	store      *LayeredStore
	opts       LoadOptions
	defaults   any
	prefix     string
	file       string
	args       []string
	section    string
	locale     *Locale
	logger     *slog.Logger
	err        error
	validators []ValidatorFunc
}

// NewBuilder creates a new builder reading command-line overrides from os.Args
func NewBuilder() *Builder {
	return &Builder{
		store:      NewLayeredStore(),
		opts:       DefaultLoadOptions(),
		args:       os.Args[1:],
		validators: make([]ValidatorFunc, 0),
	}
}

// WithDefaults sets the struct containing default values
func (b *Builder) WithDefaults(defaults any) *Builder {
	b.defaults = defaults
	return b
}

// WithPrefix sets the path prefix for struct registration
func (b *Builder) WithPrefix(prefix string) *Builder {
	b.prefix = prefix
	return b
}

// WithEnvPrefix sets the environment variable prefix
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.opts.EnvPrefix = prefix
	return b
}

// WithFile sets the settings file path
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithFileFormat fixes the settings file format instead of detecting it
func (b *Builder) WithFileFormat(format string) *Builder {
	if err := b.store.SetFileFormat(format); err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// WithDotEnv adds .env files read before the process environment
func (b *Builder) WithDotEnv(files ...string) *Builder {
	b.opts.DotEnvFiles = append(b.opts.DotEnvFiles, files...)
	return b
}

// WithArgs sets the command-line arguments
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithSources sets the precedence order for sources
func (b *Builder) WithSources(sources ...Source) *Builder {
	b.opts.Sources = sources
	return b
}

// WithEnvTransform sets a custom environment variable transformer
func (b *Builder) WithEnvTransform(fn EnvTransformFunc) *Builder {
	b.opts.EnvTransform = fn
	return b
}

// WithEnvWhitelist limits which paths are checked for env vars
func (b *Builder) WithEnvWhitelist(paths ...string) *Builder {
	if b.opts.EnvWhitelist == nil {
		b.opts.EnvWhitelist = make(map[string]bool)
	}
	for _, path := range paths {
		b.opts.EnvWhitelist[path] = true
	}
	return b
}

// WithSection roots the built facade at a named section
func (b *Builder) WithSection(name string) *Builder {
	b.section = name
	return b
}

// WithLocale sets the store locale used by facades over the built store
func (b *Builder) WithLocale(loc Locale) *Builder {
	b.locale = &loc
	return b
}

// WithLocaleName is WithLocale with a BCP 47 tag such as "de-DE"
func (b *Builder) WithLocaleName(tag string) *Builder {
	loc, err := ParseLocale(tag)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	return b.WithLocale(loc)
}

// WithLogger sets the logger used by file watching on the built store
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithValidator adds a validation function that runs at the end of the build process.
// Validators run in the order they are added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Store returns the store being built
func (b *Builder) Store() *LayeredStore {
	return b.store
}

// Build loads every source and returns the root Configuration.
// A missing settings file is returned as ErrConfigNotFound alongside a usable facade.
func (b *Builder) Build() (Configuration, error) {
	if b.err != nil {
		return Configuration{}, b.err
	}

	if b.logger != nil {
		b.store.SetLogger(b.logger)
	}
	if b.locale != nil {
		b.store.SetLocale(*b.locale)
	}

	if b.defaults != nil {
		if err := b.store.RegisterStruct(b.prefix, b.defaults); err != nil {
			return Configuration{}, fmt.Errorf("failed to register defaults: %w", err)
		}
	}

	loadErr := b.store.LoadWithOptions(b.file, b.args, b.opts)
	if loadErr != nil && !errors.Is(loadErr, ErrConfigNotFound) {
		return Configuration{}, loadErr
	}

	var opts []Option
	if b.section != "" {
		opts = append(opts, WithSection(b.section))
	}
	cfg := New(b.store, opts...)

	for _, validator := range b.validators {
		if err := validator(cfg); err != nil {
			return Configuration{}, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	// ErrConfigNotFound or nil
	return cfg, loadErr
}

// MustBuild is like Build but panics on error. A missing file is not fatal.
func (b *Builder) MustBuild() Configuration {
	cfg, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		panic(fmt.Sprintf("config build failed: %v", err))
	}
	return cfg
}

// BuildAndBind builds and binds the leaves under the registration prefix into target
func (b *Builder) BuildAndBind(target any) error {
	cfg, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return err
	}

	scope, subErr := cfg.Sub(b.prefix)
	if subErr != nil {
		return fmt.Errorf("failed to bind final config into target: %w", subErr)
	}
	if bindErr := scope.Bind(target); bindErr != nil {
		return fmt.Errorf("failed to bind final config into target: %w", bindErr)
	}

	// ErrConfigNotFound or nil
	return err
}
