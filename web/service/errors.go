package service

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or missing field in an inbound event
// payload. The event is rejected without touching the store.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func newValidationErrorf(format string, a ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, a...)}
}

// NotFoundError reports that a referenced entity does not exist. Handlers
// abort without broadcasting instead of emitting a malformed payload.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

func newNotFoundError(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// StoreError wraps a failed store statement with its intent. No retries are
// attempted; the originating handler aborts.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsStore(err error) bool {
	var s *StoreError
	return errors.As(err, &s)
}
