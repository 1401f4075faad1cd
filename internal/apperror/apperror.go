// Package apperror defines the operational error type every handler funnels
// failures into, plus the centralized normalization and presentation step.
package apperror

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// AppError is an anticipated failure that is safe to present to the client.
// Status derives from the code: "fail" for 4xx, "error" otherwise.
type AppError struct {
	Message       string
	StatusCode    int
	IsOperational bool
	Stack         string
	cause         error
}

// New builds an operational AppError with the given message and HTTP status.
func New(message string, statusCode int) *AppError {
	return &AppError{
		Message:       message,
		StatusCode:    statusCode,
		IsOperational: true,
		Stack:         string(debug.Stack()),
	}
}

// Wrap marks an unclassified error as non-operational so the presentation
// layer collapses it to a generic 500 outside of dev mode.
func Wrap(err error) *AppError {
	return &AppError{
		Message:       err.Error(),
		StatusCode:    http.StatusInternalServerError,
		IsOperational: false,
		Stack:         string(debug.Stack()),
		cause:         err,
	}
}

func (e *AppError) Error() string { return e.Message }

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *AppError) Unwrap() error { return e.cause }

// Status returns the client-facing status word for the error.
func (e *AppError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "fail"
	}
	return "error"
}

// Convenience constructors for the common taxonomy entries.

func BadRequest(format string, args ...any) *AppError {
	return New(fmt.Sprintf(format, args...), http.StatusBadRequest)
}

func NotFound(format string, args ...any) *AppError {
	return New(fmt.Sprintf(format, args...), http.StatusNotFound)
}

func Unauthorized(format string, args ...any) *AppError {
	return New(fmt.Sprintf(format, args...), http.StatusUnauthorized)
}

func Forbidden(format string, args ...any) *AppError {
	return New(fmt.Sprintf(format, args...), http.StatusForbidden)
}

func Internal(format string, args ...any) *AppError {
	return New(fmt.Sprintf(format, args...), http.StatusInternalServerError)
}
