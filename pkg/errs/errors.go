// Package errs provides coded errors shared by the browser session, the
// scenarios and the CLI. Codes classify a failure for reports and run history;
// every code is still fatal to the scenario that raised it.
package errs

import (
	"errors"
	"fmt"
)

// ErrorCode is a machine-parseable error identifier.
type ErrorCode string

const (
	// General
	ErrUnknown    ErrorCode = "ERR-000"
	ErrInternal   ErrorCode = "ERR-001"
	ErrConfig     ErrorCode = "ERR-002"
	ErrValidation ErrorCode = "ERR-003"

	// Browser session
	ErrBrowserLaunch ErrorCode = "ERR-BROWSER-001"
	ErrNavigate      ErrorCode = "ERR-NAV-001"
	ErrElement       ErrorCode = "ERR-DOM-001"
	ErrInteract      ErrorCode = "ERR-DOM-002"
	ErrWaitTimeout   ErrorCode = "ERR-WAIT-001"

	// Scenario assertions
	ErrAssertion ErrorCode = "ERR-ASSERT-001"

	// Preflight
	ErrPreflight ErrorCode = "ERR-PREFLIGHT-001"

	// Run history
	ErrStateRead  ErrorCode = "ERR-STATE-001"
	ErrStateWrite ErrorCode = "ERR-STATE-002"
)

// SmokeError is the structured error type used across edusmoke packages.
type SmokeError struct {
	Code     ErrorCode // Machine-parseable error code
	Op       string    // Operation chain, e.g. "enroll.open-course"
	Resource string    // Locator, URL or scenario the error is about
	Cause    error     // Wrapped upstream error
	Advice   string    // Human-readable remediation hint
}

func (e *SmokeError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("[%s] %s (%s): %v", e.Code, e.Op, e.Resource, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Op, e.Cause)
}

func (e *SmokeError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the user-facing message with remediation advice.
func (e *SmokeError) UserMessage() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Op)
	if e.Resource != "" {
		msg += fmt.Sprintf(" (%s)", e.Resource)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	if e.Advice != "" {
		msg += fmt.Sprintf("\n  → %s", e.Advice)
	}
	return msg
}

// New creates a new SmokeError.
func New(code ErrorCode, op string, cause error) *SmokeError {
	return &SmokeError{Code: code, Op: op, Cause: cause}
}

// Newf creates a new SmokeError with a formatted message as the cause.
func Newf(code ErrorCode, op, format string, args ...any) *SmokeError {
	return &SmokeError{Code: code, Op: op, Cause: fmt.Errorf(format, args...)}
}

// WithResource sets the resource identifier.
func (e *SmokeError) WithResource(resource string) *SmokeError {
	e.Resource = resource
	return e
}

// WithAdvice sets the remediation hint.
func (e *SmokeError) WithAdvice(advice string) *SmokeError {
	e.Advice = advice
	return e
}

// Wrap wraps err as a SmokeError at a new operation boundary.
// An error that already carries a code keeps it; only the op chain grows.
func Wrap(err error, code ErrorCode, op string) *SmokeError {
	if err == nil {
		return nil
	}
	if se := AsSmoke(err); se != nil {
		return &SmokeError{
			Code:     se.Code,
			Op:       op + "." + se.Op,
			Resource: se.Resource,
			Cause:    se.Cause,
			Advice:   se.Advice,
		}
	}
	return &SmokeError{Code: code, Op: op, Cause: err}
}

// IsCode reports whether err is a SmokeError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *SmokeError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or ErrUnknown.
func CodeOf(err error) ErrorCode {
	if se := AsSmoke(err); se != nil {
		return se.Code
	}
	return ErrUnknown
}

// AsSmoke extracts the *SmokeError from err, or returns nil.
func AsSmoke(err error) *SmokeError {
	var se *SmokeError
	if errors.As(err, &se) {
		return se
	}
	return nil
}
