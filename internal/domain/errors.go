package domain

import (
	"errors"
	"fmt"
)

// ConfigurationError aborts a batch before any network call.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// ProviderError is raised once an entire fallback list is exhausted. Message carries only the
// last attempt's error; Provider names the chain for logging.
type ProviderError struct {
	Provider string
	Message  string
}

func (e *ProviderError) Error() string { return e.Message }

// ParseError marks a model reply that failed the title/content gate.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return "failed to parse model response"
	}
	return "failed to parse model response: " + e.Reason
}

// SideEffectError wraps a failure in a non-critical post-publish step.
type SideEffectError struct {
	Step string
	Err  error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *SideEffectError) Unwrap() error { return e.Err }

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsParse reports whether err is a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
