// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrNoRule indicates the inbound command matched no reply rule.
	ErrNoRule = errors.New("no matching rule")

	// ErrCooldownActive indicates the per-user cooldown window is still open.
	ErrCooldownActive = errors.New("cooldown active")

	// ErrInvalidInput indicates a caller provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// DispatchError represents an outbound Bot API call failure with context.
type DispatchError struct {
	Method string // Bot API method, e.g. "sendPhoto"
	ChatID int64
	Err    error
}

func (e *DispatchError) Error() string {
	if e.ChatID != 0 {
		return fmt.Sprintf("dispatch error (method=%s, chat=%d): %v", e.Method, e.ChatID, e.Err)
	}
	return fmt.Sprintf("dispatch error (method=%s): %v", e.Method, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// NewDispatchError creates a new dispatch error.
func NewDispatchError(method string, chatID int64, err error) *DispatchError {
	return &DispatchError{
		Method: method,
		ChatID: chatID,
		Err:    err,
	}
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
