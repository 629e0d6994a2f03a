package system

import (
	"errors"
	"fmt"
	"time"
)

// ErrDivideByZero is returned when a percentage or ratio would need a zero
// denominator, e.g. two CPU samples taken within one jiffy.
var ErrDivideByZero = errors.New("zero denominator")

// ParseError reports that an expected line or field is absent from a kernel
// source.
type ParseError struct {
	Source string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Source, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExternalToolError reports a helper process that could not be spawned or
// produced no usable output.
type ExternalToolError struct {
	Tool string
	Err  error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("external tool %s: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// ExecutionError reports a privileged command that could not be spawned, was
// killed by a signal or was refused by the broker. ExitCode is -1 when the
// process did not exit normally.
type ExecutionError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("exec %s: exit code %d", e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	if e.Err != nil && e.ExitCode < 0 {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// TimeoutError reports a subprocess killed after exceeding its deadline.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s timed out after %s", e.Command, e.Timeout)
	}
	return fmt.Sprintf("%s timed out", e.Command)
}

func errorParse(source, reason string) error {
	return &ParseError{Source: source, Reason: reason}
}
