// Package apperror defines the error categories the HTTP layer knows how to render.
package apperror

import (
	"fmt"
	"net/http"
)

// ErrorType is the category of an application error.
type ErrorType int

const (
	InternalError ErrorType = iota
	ValidationError
	AuthError
	ForbiddenError
	NotFoundError
)

// AppError carries a user-facing message, optional field-level messages and the
// underlying cause, which is logged but never shown to the client.
type AppError struct {
	Type    ErrorType
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError:
		return http.StatusBadRequest
	case AuthError:
		return http.StatusUnauthorized
	case ForbiddenError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the body for errors that are not tied to a field.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FieldErrorResponse is the body for validation errors.
type FieldErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

// Body returns the JSON payload sent to the client.
func (e *AppError) Body() interface{} {
	if len(e.Fields) > 0 {
		return FieldErrorResponse{Errors: e.Fields}
	}
	if e.Type == InternalError {
		return ErrorResponse{Error: "Internal server error"}
	}
	return ErrorResponse{Error: e.Message}
}

func newError(errType ErrorType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

func NewValidationError(message string, err error) *AppError {
	return newError(ValidationError, message, err)
}

// NewFieldError reports a single invalid field.
func NewFieldError(field, message string) *AppError {
	return NewFieldErrors(map[string]string{field: message})
}

// NewFieldErrors reports several invalid fields at once.
func NewFieldErrors(fields map[string]string) *AppError {
	return &AppError{Type: ValidationError, Message: "validation failed", Fields: fields}
}

func NewAuthError(message string, err error) *AppError {
	return newError(AuthError, message, err)
}

func NewForbiddenError(message string) *AppError {
	return newError(ForbiddenError, message, nil)
}

func NewNotFoundError(message string, err error) *AppError {
	return newError(NotFoundError, message, err)
}

func NewInternalError(message string, err error) *AppError {
	return newError(InternalError, message, err)
}
