package config

import (
	"fmt"
	"strings"
)

// ConfigurationError describes one invalid configuration value
type ConfigurationError struct {
	Field      string // Key path (e.g., "custom_layers[1].patterns[0]")
	Message    string // What is wrong
	Suggestion string // Helpful suggestion (optional)
	Err        error  // Underlying cause (optional)
}

// Error returns a formatted error message
func (e *ConfigurationError) Error() string {
	var msg string
	if e.Field != "" {
		msg = fmt.Sprintf("invalid configuration at %s: %s", e.Field, e.Message)
	} else {
		msg = fmt.Sprintf("invalid configuration: %s", e.Message)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Suggestion: %s", e.Suggestion)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ValidationErrors is a collection of configuration errors
type ValidationErrors []ConfigurationError

// Error returns all errors formatted with clear separation
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "invalid configuration"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "found %d configuration errors:\n", len(e))
	for i := range e {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, e[i].Error())
	}
	return b.String()
}

// Unwrap exposes each entry to errors.Is and errors.As
func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i := range e {
		errs[i] = &e[i]
	}
	return errs
}
