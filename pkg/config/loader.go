// Package config provides configuration loading from environment variables
// and files (YAML/JSON) with a layered resolution model. Values are resolved
// in priority order:
//
//	DefaultConfig() constructors  (lowest priority)
//	YAML/JSON config file         (medium priority)
//	Environment variables         (highest priority)
//
// This priority order mirrors how containerized deployments typically work:
// sensible defaults are baked into the code, config files provide
// environment-specific overrides, and env vars take final precedence.
//
// # Struct Tags
//
// The env layer is driven by `env:"VAR_NAME"` struct tags (parsed by
// github.com/caarlos0/env). Fields must also have `yaml` or `json` tags for
// file-based loading, since the YAML and JSON unmarshalers use those tags.
//
// # Usage
//
//	cfg := auth.DefaultConfig()
//	err := config.New().WithEnvPrefix("WATERFALL").WithFile("config.yaml").Load(&cfg)
//
// Or with [MustLoad] at application startup:
//
//	cfg := config.MustLoad[auth.Config](config.New().WithFile("config.yaml"))
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

// Validator is an optional interface that configuration structs may
// implement for custom validation. If the struct passed to [Loader.Load]
// implements Validator, its Validate method is called after all layers are
// applied; implementations may also fill in defaults for fields still at
// their zero value.
type Validator interface {
	Validate() error
}

// Loader builds and executes configuration loading with a layered
// resolution strategy. Use [New] to create a Loader and configure it with
// [Loader.WithEnvPrefix] and [Loader.WithFile] before calling
// [Loader.Load].
//
// Loader is not safe for concurrent use. Create a new Loader for each Load
// call, or synchronize access externally.
type Loader struct {
	envPrefix string
	filePath  string
}

// New creates a new [Loader] with default settings: environment variables
// only, no file, no prefix.
func New() *Loader {
	return &Loader{}
}

// WithEnvPrefix sets a prefix that is prepended (with an underscore
// separator) to all environment variable names derived from the "env"
// struct tag. For example, WithEnvPrefix("WATERFALL") causes a field
// tagged `env:"JWT_SECRET_KEY"` to read from WATERFALL_JWT_SECRET_KEY.
//
// The prefix is automatically uppercased. An empty prefix disables
// prefixing (the default). WithEnvPrefix returns the Loader for fluent
// chaining.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = strings.ToUpper(prefix)
	return l
}

// WithFile sets the path to a YAML or JSON configuration file. The file
// format is detected by extension:
//
//   - .yaml / .yml — parsed as YAML
//   - .json — parsed as JSON
//
// An unrecognized extension causes [Loader.Load] to return an error. If
// the file does not exist, loading proceeds without file-based values
// (file configuration is optional).
//
// The file path must not contain directory traversal sequences ("..").
// WithFile returns the Loader for fluent chaining.
func (l *Loader) WithFile(path string) *Loader {
	l.filePath = path
	return l
}

// Load populates the given struct pointer with configuration values
// resolved in priority order (highest wins):
//
//  1. Whatever the struct already holds (typically a DefaultConfig())
//  2. YAML/JSON file values (if configured with [Loader.WithFile])
//  3. Environment variables from "env" struct tags
//
// After loading, the struct's Validate method is called if it implements
// [Validator].
func (l *Loader) Load(cfg any) error {
	if l.filePath != "" {
		if err := l.loadFile(cfg); err != nil {
			return err
		}
	}

	opts := env.Options{}
	if l.envPrefix != "" {
		opts.Prefix = l.envPrefix + "_"
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return autherr.Wrap(err, autherr.CodeConfigInvalid,
			"config: failed to apply environment variables")
	}

	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			if _, isStructured := autherr.AsError(err); isStructured {
				return err
			}
			return autherr.Wrap(err, autherr.CodeConfigInvalid,
				"config: validation failed")
		}
	}

	return nil
}

// MustLoad is a generic convenience function that creates a zero-valued
// instance of T, loads configuration into it, and returns the populated
// value. It panics if loading or validation fails.
//
// Use MustLoad in application startup (e.g., func main) where a missing or
// invalid configuration should prevent the application from starting.
func MustLoad[T any](loader *Loader) T {
	var cfg T
	if err := loader.Load(&cfg); err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

// loadFile reads a YAML or JSON file and unmarshals it into the config
// struct. Missing files are silently ignored. The file path is validated
// to prevent directory traversal.
func (l *Loader) loadFile(cfg any) error {
	if strings.Contains(l.filePath, "..") {
		return autherr.New(autherr.CodeConfigInvalid,
			"config: file path must not contain directory traversal (..) sequences")
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Missing file is not an error.
		}
		return autherr.Wrapf(err, autherr.CodeConfigInvalid,
			"config: failed to read file %q", l.filePath)
	}

	ext := strings.ToLower(filepath.Ext(l.filePath))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return autherr.Wrapf(err, autherr.CodeConfigInvalid,
				"config: failed to parse YAML file %q", l.filePath)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return autherr.Wrapf(err, autherr.CodeConfigInvalid,
				"config: failed to parse JSON file %q", l.filePath)
		}
	default:
		return autherr.Newf(autherr.CodeConfigInvalid,
			"config: unsupported file extension %q (use .yaml, .yml, or .json)", ext)
	}

	return nil
}
