package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrResourceNotFound: declared metadata points at nothing resolvable.
	// Fatal for the owning bundle.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrInvalidConfiguration: a build property or option has an unrecognized value.
	// Fatal for the whole generation pass.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrIO: reading or writing resource bytes failed.
	// Fatal for the current resource; already published artifacts stay.
	ErrIO = errors.New("i/o failure")

	// ErrMalformedMetadata: an accessor lacks the expected resource declaration.
	// Fatal for that accessor.
	ErrMalformedMetadata = errors.New("malformed metadata")
)

// Error carries one of the sentinel kinds plus enough context to diagnose
// the failure. errors.Is matches both the kind and the cause.
type Error struct {
	Kind       error
	Resource   string
	OutputName string
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var head []string
	if e.Kind != nil {
		head = append(head, e.Kind.Error())
	}
	if e.Resource != "" {
		head = append(head, "resource="+e.Resource)
	}
	if e.OutputName != "" {
		head = append(head, "output="+e.OutputName)
	}
	parts := make([]string, 0, 3)
	if len(head) > 0 {
		parts = append(parts, strings.Join(head, " "))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	if len(parts) == 0 {
		return "cachebundle: unknown error"
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NotFoundf reports a resource that could not be resolved.
func NotFoundf(resource, format string, args ...any) error {
	return &Error{Kind: ErrResourceNotFound, Resource: resource, Message: fmt.Sprintf(format, args...)}
}

// InvalidConfigf reports a bad property or option value.
func InvalidConfigf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Malformedf reports an accessor with missing or broken metadata.
func Malformedf(format string, args ...any) error {
	return &Error{Kind: ErrMalformedMetadata, Message: fmt.Sprintf(format, args...)}
}

// IOError wraps a read or write failure for a resource.
func IOError(resource, outputName, msg string, cause error) error {
	return &Error{Kind: ErrIO, Resource: resource, OutputName: outputName, Message: msg, Cause: cause}
}
