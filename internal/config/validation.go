package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/conneroisu/rockplate/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       any
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			fmt.Fprintf(&builder, "  - %s: %s\n", issue.Field, issue.Message)
			for _, suggestion := range issue.Suggestions {
				fmt.Fprintf(&builder, "    hint: %s\n", suggestion)
			}
		}
	}
	write("Validation errors", vr.Errors)
	write("Validation warnings", vr.Warnings)

	return builder.String()
}

func (vr *ValidationResult) addError(field string, value any, message string, suggestions ...string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Value: value, Message: message, Suggestions: suggestions})
}

func (vr *ValidationResult) addWarning(field string, value any, message string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Value: value, Message: message, Suggestions: suggestions})
}

var (
	validModes      = []string{ModeAuto, ModeStrict, ModeDynamic}
	validFormats    = []string{FormatText, FormatJSON, FormatYAML}
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"text", "json"}
	maxDebounce     = 10 * time.Second
	maxConcurrency  = 64
)

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if !slices.Contains(validModes, config.Mode) {
		result.addError("mode", config.Mode, "unknown compilation mode",
			"use one of: "+strings.Join(validModes, ", "))
	}
	if config.Mode == ModeStrict && config.Schema == "" && config.SchemaDir == "" {
		result.addWarning("mode", config.Mode, "strict mode without a schema only applies to templates with an inline header",
			"set schema to a JSON or YAML file")
	}

	for _, p := range []struct{ field, path string }{
		{"schema", config.Schema},
		{"schema_dir", config.SchemaDir},
		{"data", config.Data},
	} {
		if p.path == "" {
			continue
		}
		if err := validation.ValidatePath(p.path); err != nil {
			result.addError(p.field, p.path, err.Error())
		}
	}

	validateLintConfigDetails(&config.Lint, result)
	validateWatchConfigDetails(&config.Watch, result)
	validateLogConfigDetails(&config.Log, result)

	return result
}

func validateLintConfigDetails(lint *LintConfig, result *ValidationResult) {
	if !slices.Contains(validFormats, lint.Format) {
		result.addError("lint.format", lint.Format, "unknown output format",
			"use one of: "+strings.Join(validFormats, ", "))
	}
	if lint.Concurrency > maxConcurrency {
		result.addWarning("lint.concurrency", lint.Concurrency,
			fmt.Sprintf("concurrency above %d rarely helps", maxConcurrency))
	}
}

func validateWatchConfigDetails(watch *WatchConfig, result *ValidationResult) {
	for _, path := range watch.Paths {
		if err := validation.ValidatePath(path); err != nil {
			result.addError("watch.paths", path, err.Error())
		}
	}
	if len(watch.Extensions) == 0 {
		result.addWarning("watch.extensions", watch.Extensions, "no extensions configured, every file change triggers a run")
	}
	if watch.Debounce < 0 {
		result.addError("watch.debounce", watch.Debounce, "debounce cannot be negative")
	} else if watch.Debounce > maxDebounce {
		result.addWarning("watch.debounce", watch.Debounce, "debounce is unusually long",
			"values between 100ms and 1s work well")
	}
}

func validateLogConfigDetails(log *LogConfig, result *ValidationResult) {
	if log.Level != "" && !slices.Contains(validLogLevels, strings.ToLower(log.Level)) {
		result.addError("log.level", log.Level, "unknown log level",
			"use one of: "+strings.Join(validLogLevels, ", "))
	}
	if log.Format != "" && !slices.Contains(validLogFormats, strings.ToLower(log.Format)) {
		result.addError("log.format", log.Format, "unknown log format",
			"use text or json")
	}
}

// validateConfig returns the first validation error, if any.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if result.HasErrors() {
		first := result.Errors[0]
		return &first
	}
	return nil
}

