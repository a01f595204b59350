package domain

import "errors"

var (
	// ErrValidation marks create/update input that violates an alert invariant.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a reference to an unknown alert.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks an operation the alert's lifecycle state does not allow.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidInput marks malformed price or condition data given to the evaluator.
	ErrInvalidInput = errors.New("invalid input")
)
