package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError
	ErrValidation = errors.New("validation error")
	// ErrNotFound matches every *NotFoundError
	ErrNotFound = errors.New("not found")
	// ErrBackend matches every *BackendError
	ErrBackend = errors.New("backend error")
)

// ValidationError reports malformed caller input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError reports an unknown conversation id
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("conversation with ID %s not found", e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// BackendError wraps any failure of a generative backend
type BackendError struct {
	Provider string
	Err      error
}

// NewBackendError wraps err unless it already is a *BackendError
func NewBackendError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Provider: provider, Err: err}
}

func (e *BackendError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("backend error: %v", e.Err)
	}
	return fmt.Sprintf("%s backend error: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying provider error
func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrBackend) match
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}
