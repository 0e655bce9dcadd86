// Package config provides configuration management for the rockplate CLI
// using Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports a .rockplate.yml file, environment
// variable overrides with the ROCKPLATE_ prefix, defaults, and validation.
// It covers how templates are compiled (mode, schema), where runtime data
// comes from, lint output, the file watcher, and logging.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/rockplate/internal/errors"
)

// Compilation modes.
const (
	ModeAuto    = "auto"
	ModeStrict  = "strict"
	ModeDynamic = "dynamic"
)

// Lint output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Defaults applied by Load.
var (
	DefaultExtensions = []string{".rp", ".tpl", ".txt"}
	DefaultIgnore     = []string{".git", "node_modules"}
)

const DefaultDebounce = 300 * time.Millisecond

type Config struct {
	Mode      string      `mapstructure:"mode" yaml:"mode"`
	Schema    string      `mapstructure:"schema" yaml:"schema"`
	SchemaDir string      `mapstructure:"schema_dir" yaml:"schema_dir"`
	Data      string      `mapstructure:"data" yaml:"data"`
	Lint      LintConfig  `mapstructure:"lint" yaml:"lint"`
	Watch     WatchConfig `mapstructure:"watch" yaml:"watch"`
	Log       LogConfig   `mapstructure:"log" yaml:"log"`
	// TargetFiles holds CLI arguments, not read from the config file.
	TargetFiles []string `mapstructure:"-" yaml:"-"`
}

type LintConfig struct {
	Format        string `mapstructure:"format" yaml:"format"`
	Positions     bool   `mapstructure:"positions" yaml:"positions"`
	FailOnWarning bool   `mapstructure:"fail_on_warning" yaml:"fail_on_warning"`
	Concurrency   int    `mapstructure:"concurrency" yaml:"concurrency"`
}

type WatchConfig struct {
	Paths      []string      `mapstructure:"paths" yaml:"paths"`
	Extensions []string      `mapstructure:"extensions" yaml:"extensions"`
	Ignore     []string      `mapstructure:"ignore" yaml:"ignore"`
	Debounce   time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers the configuration defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeAuto)
	v.SetDefault("lint.format", FormatText)
	v.SetDefault("lint.positions", true)
	v.SetDefault("lint.fail_on_warning", false)
	v.SetDefault("lint.concurrency", 4)
	v.SetDefault("watch.paths", []string{"."})
	v.SetDefault("watch.extensions", DefaultExtensions)
	v.SetDefault("watch.ignore", DefaultIgnore)
	v.SetDefault("watch.debounce", DefaultDebounce)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "ROCKPLATE"

var envKeyReplacer = strings.NewReplacer(".", "_")

// BindEnv makes v read ROCKPLATE_ environment variables, with dots in keys
// replaced by underscores (lint.format becomes ROCKPLATE_LINT_FORMAT).
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults for unset keys
// and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.ErrCodeConfigValue, "failed to decode configuration")
	}

	// Slices set through flags or env arrive as comma separated strings.
	config.Watch.Paths = splitList(config.Watch.Paths)
	config.Watch.Extensions = normalizeExtensions(splitList(config.Watch.Extensions))
	config.Watch.Ignore = splitList(config.Watch.Ignore)

	config.Mode = strings.ToLower(strings.TrimSpace(config.Mode))
	config.Lint.Format = strings.ToLower(strings.TrimSpace(config.Lint.Format))
	if config.Lint.Concurrency <= 0 {
		config.Lint.Concurrency = 1
	}
	if config.SchemaDir == "" && config.Schema != "" {
		config.SchemaDir = filepath.Dir(config.Schema)
	}

	if err := validateConfig(&config); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.ErrCodeConfigValue,
			fmt.Sprintf("invalid configuration: %v", err))
	}

	return &config, nil
}

// StrictOverride maps the mode to a compiler override: nil in auto mode.
func (c *Config) StrictOverride() *bool {
	var strict bool
	switch c.Mode {
	case ModeStrict:
		strict = true
	case ModeDynamic:
		strict = false
	default:
		return nil
	}
	return &strict
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func normalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, ext := range in {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
