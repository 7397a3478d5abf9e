// Package errors defines the typed failures exchanged between the agent's
// resolution and delivery layers. Callers classify failures with the Is*
// predicates rather than matching on message text.
package errors

import (
	"errors"
	"fmt"
)

// TransportError is a network or HTTP level failure talking to a remote
// collaborator. It is the only retryable class.
type TransportError struct {
	Stage string
	Err   error
}

func NewTransportError(stage string, err error) error {
	return &TransportError{Stage: stage, Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Stage, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func IsTransportError(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// NotFoundError is a well-formed response missing an expected field or
// entity. It aborts the resolution cascade and is never retried.
type NotFoundError struct {
	Stage string
	What  string
}

func NewNotFoundError(stage, what string) error {
	return &NotFoundError{Stage: stage, What: what}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Stage, e.What)
}

func IsNotFoundError(err error) bool {
	var t *NotFoundError
	return errors.As(err, &t)
}

// DecodeError is a malformed encoded value. Resolution treats it the same
// way as a NotFoundError: abort, do not retry.
type DecodeError struct {
	What string
	Err  error
}

func NewDecodeError(what string, err error) error {
	return &DecodeError{What: what, Err: err}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func IsDecodeError(err error) bool {
	var t *DecodeError
	return errors.As(err, &t)
}

// FatalDeliveryError terminates the process: the heartbeat loop hit its
// consecutive-failure ceiling or registration exhausted its retries.
type FatalDeliveryError struct {
	Op       string
	Attempts int
	Err      error
}

func NewFatalDeliveryError(op string, attempts int, err error) error {
	return &FatalDeliveryError{Op: op, Attempts: attempts, Err: err}
}

func (e *FatalDeliveryError) Error() string {
	return fmt.Sprintf("%s: giving up after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *FatalDeliveryError) Unwrap() error { return e.Err }

func IsFatalDeliveryError(err error) bool {
	var t *FatalDeliveryError
	return errors.As(err, &t)
}
