package dq

import (
	"errors"
	"fmt"
	"strings"
)

// Check kinds used to scope errors and diagnostics. They double as the
// check type names of suite files.
const (
	KindDuplicates     = "duplicates"
	KindRowCount       = "row_count"
	KindReconcile      = "reconcile"
	KindEmpty          = "empty"
	KindNotEmpty       = "not_empty"
	KindNotNull        = "not_null"
	KindColumnValidity = "column_validity"
	KindTableExists    = "table_exists"
	KindTableNotEmpty  = "table_not_empty"
	KindSchema         = "schema"
)

// ConfigError reports an invalid invocation: an unknown column, an invalid
// rule set, an expected type outside the warehouse domain. It is raised
// before any data is inspected.
type ConfigError struct {
	Check   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: configuration error: %s", e.Check, e.Message)
}

func configErrorf(check, format string, args ...any) *ConfigError {
	return &ConfigError{Check: check, Message: fmt.Sprintf(format, args...)}
}

// Diagnostic is the structured payload of an assertion failure.
// String renders it for humans; the concrete type carries the data.
type Diagnostic interface {
	String() string
}

// AssertionError reports that the data violates a quality property.
// Diagnostic holds everything needed to reproduce the failure without
// rerunning the check.
type AssertionError struct {
	Check      string
	Message    string
	Diagnostic Diagnostic
	// Cause is set when the failure was triggered by a collaborator error,
	// as with a table existence probe.
	Cause error
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "%s: %s", e.Check, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&buf, ": %v", e.Cause)
	}
	if e.Diagnostic != nil {
		if body := e.Diagnostic.String(); body != "" {
			buf.WriteString("\n")
			buf.WriteString(body)
		}
	}
	return buf.String()
}

// Unwrap returns the collaborator error behind the failure, if any.
func (e *AssertionError) Unwrap() error {
	return e.Cause
}

// IOError reports that the check could not run because the catalog failed.
type IOError struct {
	Check string
	Table string
	Err   error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: catalog error for table %s: %v", e.Check, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: catalog error: %v", e.Check, e.Err)
}

// Unwrap returns the underlying catalog error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsAssertionError returns true if err is or wraps an AssertionError.
func IsAssertionError(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// IsIOError returns true if err is or wraps an IOError.
func IsIOError(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}

// DiagnosticOf extracts the diagnostic of an assertion failure.
// Returns nil if err is not an AssertionError.
func DiagnosticOf(err error) Diagnostic {
	var ae *AssertionError
	if errors.As(err, &ae) {
		return ae.Diagnostic
	}
	return nil
}
