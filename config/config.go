// Package config loads stage configuration from TOML or YAML and turns file edits into
// scheduler requests
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/stagecraft/engine"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrInvalid           = errors.New("invalid config")
)

// Format is a config file syntax
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Config is the on-disk description of an App
type Config struct {
	Engine Engine  `toml:"engine" yaml:"engine"`
	Stages []Stage `toml:"stage" yaml:"stage"`
}

// Engine holds App-wide settings
type Engine struct {
	Workers  int           `toml:"workers" yaml:"workers"`
	MaxIdle  time.Duration `toml:"max_idle" yaml:"max_idle"`
	Debug    bool          `toml:"debug" yaml:"debug"`
	LogDir   string        `toml:"log_dir" yaml:"log_dir"`
	LogLevel string        `toml:"log_level" yaml:"log_level"`
}

// Stage overrides the frequency and initial pool of a named stage
// Frequency is always applied; 0 makes the stage run once, like the engine
type Stage struct {
	Name      string `toml:"name" yaml:"name"`
	Frequency uint32 `toml:"frequency" yaml:"frequency"`
	Spare     bool   `toml:"spare" yaml:"spare"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Engine: Engine{
			MaxIdle:  engine.DefaultMaxIdle,
			LogDir:   "logs",
			LogLevel: "info",
		},
	}
}

// FormatOf selects the syntax from the file extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads, decodes and validates path
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes data over the defaults and validates the result
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects empty or duplicate stage names and negative engine values
func (c *Config) Validate() error {
	var errs []error

	if c.Engine.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers must not be negative", ErrInvalid))
	}
	if c.Engine.MaxIdle < 0 {
		errs = append(errs, fmt.Errorf("%w: max_idle must not be negative", ErrInvalid))
	}

	seen := make(map[string]bool, len(c.Stages))
	for i, st := range c.Stages {
		switch {
		case st.Name == "":
			errs = append(errs, fmt.Errorf("%w: stage #%d has no name", ErrInvalid, i))
		case seen[st.Name]:
			errs = append(errs, fmt.Errorf("%w: duplicate stage %q", ErrInvalid, st.Name))
		}
		seen[st.Name] = true
	}

	return errors.Join(errs...)
}

// Stage looks up the entry for name
func (c *Config) Stage(name string) (Stage, bool) {
	for _, st := range c.Stages {
		if st.Name == name {
			return st, true
		}
	}
	return Stage{}, false
}

// EngineOptions converts the engine section into AppBuilder options
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithWorkers(c.Engine.Workers),
		engine.WithMaxIdle(c.Engine.MaxIdle),
	}
}

// ApplyTo overrides frequency and pool of every registered builder that has a config entry
// Returns the names of config entries without a registered builder
func (c *Config) ApplyTo(ab *engine.AppBuilder) []string {
	var unknown []string
	for _, st := range c.Stages {
		b, ok := ab.StageBuilder(st.Name)
		if !ok {
			unknown = append(unknown, st.Name)
			continue
		}
		b.SetFrequency(st.Frequency)
		if st.Spare {
			b.AsSpare()
		}
	}
	return unknown
}
