// Unified error handling for the motion core
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package errors defines the error taxonomy shared by the motion core and
// its command layer. The position solver hot path signals nothing; errors
// exist only at the lifecycle and command boundaries.
package errors

import "fmt"

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Move queue errors
	ErrMotionQueue ErrorCode = "MOTION_QUEUE"

	// Pressure-advance lifecycle errors
	ErrHistoryCapacity ErrorCode = "EXTRUDER_HISTORY_CAPACITY"
	ErrUnknownModel    ErrorCode = "EXTRUDER_UNKNOWN_MODEL"

	// Command layer errors
	ErrCommandParse        ErrorCode = "COMMAND_PARSE"
	ErrCommandUnknown      ErrorCode = "COMMAND_UNKNOWN"
	ErrCommandMissingParam ErrorCode = "COMMAND_MISSING_PARAM"
	ErrCommandInvalidParam ErrorCode = "COMMAND_INVALID_PARAM"

	// Debug surface errors
	ErrReportServer ErrorCode = "REPORT_SERVER"
)

// HostError is the unified error type for the motion core.
type HostError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Command is the command being executed, if any
	Command string

	// Param is the offending parameter name, if any
	Param string

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *HostError) Error() string {
	switch {
	case e.Command != "" && e.Param != "":
		return fmt.Sprintf("[%s] %s: parameter %s: %s", e.Code, e.Command, e.Param, e.Message)
	case e.Command != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Command, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying error
func (e *HostError) Unwrap() error {
	return e.Err
}

// SetCommand sets the command context
func (e *HostError) SetCommand(command string) *HostError {
	e.Command = command
	return e
}

// SetParam sets the parameter context
func (e *HostError) SetParam(param string) *HostError {
	e.Param = param
	return e
}

// New creates a new HostError
func New(code ErrorCode, message string) *HostError {
	return &HostError{Code: code, Message: message}
}

// Newf creates a new HostError with a formatted message
func Newf(code ErrorCode, format string, args ...any) *HostError {
	return &HostError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code and message
func Wrap(err error, code ErrorCode, message string) *HostError {
	return &HostError{Code: code, Message: message, Err: err}
}

// Is checks if error matches given error code
func Is(err error, code ErrorCode) bool {
	if hostErr, ok := err.(*HostError); ok {
		return hostErr.Code == code
	}
	return false
}

// IsCommand checks if error is a command layer error
func IsCommand(err error) bool {
	return Is(err, ErrCommandParse) ||
		Is(err, ErrCommandUnknown) ||
		Is(err, ErrCommandMissingParam) ||
		Is(err, ErrCommandInvalidParam)
}

// HistoryCapacityError reports that a pressure-advance history exceeded its
// static record budget. Callers must treat this as fatal: the budget bounds
// the solver's cost and overflow means configuration is arriving faster
// than steps are flushed.
func HistoryCapacityError(limit int) *HostError {
	return Newf(ErrHistoryCapacity, "pressure advance history exceeds %d records", limit)
}

// UnknownModelError reports an unrecognized compensation model name.
func UnknownModelError(name string) *HostError {
	return Newf(ErrUnknownModel, "unknown pressure advance model %q", name)
}

// CommandParseError reports a malformed command line.
func CommandParseError(line, reason string) *HostError {
	return Newf(ErrCommandParse, "failed to parse %q: %s", line, reason)
}

// UnknownCommandError reports an unrecognized command.
func UnknownCommandError(command string) *HostError {
	return New(ErrCommandUnknown, "unknown command").SetCommand(command)
}

// MissingParamError reports a required parameter that was not supplied.
func MissingParamError(command, param string) *HostError {
	return New(ErrCommandMissingParam, "required parameter missing").
		SetCommand(command).SetParam(param)
}

// InvalidParamError reports a parameter that failed validation.
func InvalidParamError(command, param, value, reason string) *HostError {
	return Newf(ErrCommandInvalidParam, "invalid value %q (%s)", value, reason).
		SetCommand(command).SetParam(param)
}
