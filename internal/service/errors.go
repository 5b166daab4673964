package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrDispatchCanceled  = errors.New("dispatch canceled before completion")
)

// ValidationError is an invalid user input. It is reported to the caller
// and never recorded on the post.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// MissingCredentialError names the first requested platform without an
// active credential for the brand.
type MissingCredentialError struct {
	BrandID  int64
	Platform string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("no active %s account connected for brand %d", e.Platform, e.BrandID)
}

// DispatchError covers every way a publishing call can fail: transport,
// timeout, non-2xx status or a failure payload.
type DispatchError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *DispatchError) Error() string {
	msg := "publishing failed"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ConflictError means a conditional status write matched no row: another
// runner or request moved the post first.
type ConflictError struct {
	PostID   int64
	Expected string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("post %d is no longer %s", e.PostID, e.Expected)
}

// StoreError wraps a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
