package config

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the loader and by Options.Validate.
// Callers match them with errors.Is.
var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrUnsupportedFormat is returned for a configuration file whose
	// extension is not .yaml, .yml, .json or .toml.
	ErrUnsupportedFormat = errors.New("unsupported configuration format")

	// ErrEmptySource is returned when the configuration source has no content.
	ErrEmptySource = errors.New("configuration source is empty")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the fetch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidFetchSize is returned when the stylesheet size limit is not positive.
	ErrInvalidFetchSize = errors.New("invalid stylesheet size limit: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must not be negative")

	// ErrNoDocsDir is returned when no docs directory is configured.
	ErrNoDocsDir = errors.New("no docs directory specified")
)

// ValidationError reports a malformed, missing or inconsistent field.
// Field is the dotted path of the offending key as written in the source,
// e.g. "i18n.defaultLocale" or "themeConfig.navbar.items[2]".
type ValidationError struct {
	Field   string
	Message string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PluginConfigError reports unrecognised or malformed options of a preset,
// plugin or theme registration.
type PluginConfigError struct {
	Plugin string
	Err    error
}

// Error implements error.
func (e *PluginConfigError) Error() string {
	return fmt.Sprintf("plugin %s: %v", e.Plugin, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *PluginConfigError) Unwrap() error {
	return e.Err
}

// invalid is shorthand for building a ValidationError.
func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidationErrors flattens err (typically the joined result of Parse) into
// its ValidationError and PluginConfigError parts, in order.
func ValidationErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, ValidationErrors(e)...)
		}
		return out
	}
	return []error{err}
}
