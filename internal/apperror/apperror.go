// Package apperror defines the service's error taxonomy.
//
// Operations surface these typed errors so callers can branch with errors.As
// without string matching: ConflictError (cycle already open, duplicate
// membership), NotFoundError, ValidationError, GatewayError (transient or
// business rejection from the payment gateway) and ConsistencyError (payout
// order invariant violated).
package apperror

import (
	"errors"
	"fmt"
)

// ConflictError reports a state conflict, e.g. opening a second cycle while
// one is still open, or adding a member twice.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// Conflict builds a ConflictError.
func Conflict(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing group, cycle, member, payment instrument
// or other record.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// NotFound builds a NotFoundError.
func NotFound(format string, args ...any) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationError reports malformed input or a business-rule rejection the
// caller can fix, e.g. the gateway refusing a bank account.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// GatewayError reports a failed gateway call. Transient marks network and
// timeout failures; business rejections carry the gateway's message.
type GatewayError struct {
	Msg       string
	Transient bool
	Err       error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

// ConsistencyError reports a violated storage invariant, e.g. a gapped
// payout order or a failed bulk insert.
type ConsistencyError struct {
	Msg string
	Err error
}

func (e *ConsistencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsGateway reports whether err is a GatewayError.
func IsGateway(err error) bool {
	var target *GatewayError
	return errors.As(err, &target)
}
