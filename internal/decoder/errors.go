package decoder

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("decoder configuration error")
	// ErrModelInvocation matches every *ModelInvocationError.
	ErrModelInvocation = errors.New("model invocation error")
)

// ConfigurationError reports an invalid decoder setting or an ensemble whose
// members disagree. It is raised before any model is called.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func newConfigError(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ModelInvocationError reports an ensemble member that failed to produce a
// valid distribution or handle. The decode it occurred in is abandoned.
type ModelInvocationError struct {
	Member int
	Op     string
	Err    error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("ensemble member %d: %s: %v", e.Member, e.Op, e.Err)
}

func (e *ModelInvocationError) Unwrap() []error {
	return []error{ErrModelInvocation, e.Err}
}
