// ABOUTME: Shared error types for audio components
// ABOUTME: ConfigError reports invalid constructor parameters
package audio

import "fmt"

// ConfigError reports an invalid construction parameter. Components
// return it from constructors only; a successfully built component
// never fails on configuration at runtime.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("audio: invalid %s: %s", e.Field, e.Reason)
}

// NewConfigError builds a ConfigError for field with a formatted reason.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
