package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrAuthFailed     ErrorType = "AUTH_FAILED"
	ErrForbidden      ErrorType = "FORBIDDEN"
	ErrInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrInternal       ErrorType = "INTERNAL_ERROR"
	ErrNotFound       ErrorType = "NOT_FOUND"
	ErrConflict       ErrorType = "CONFLICT"
	ErrBusiness       ErrorType = "BUSINESS_ERROR"
)

// AppError is the standard error struct for the application.
// ErrorCode is the numeric application code recorded in operation logs.
type AppError struct {
	Type       ErrorType `json:"type"`
	ErrorCode  int       `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		ErrorCode:  mapTypeToCode(errType),
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

// NewBusiness creates a business error carrying an explicit application code.
func NewBusiness(code int, msg string) *AppError {
	e := New(ErrBusiness, msg, nil)
	e.ErrorCode = code
	return e
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func NewNotFound(msg string) *AppError {
	return New(ErrNotFound, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// Code returns the application error code carried by err, if any.
func Code(err error) (int, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ErrorCode, true
	}
	return 0, false
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidRequest, ErrBusiness:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToCode(t ErrorType) int {
	switch t {
	case ErrInvalidRequest:
		return 5001
	case ErrAuthFailed:
		return 5002
	case ErrForbidden:
		return 5003
	case ErrNotFound:
		return 5004
	case ErrConflict:
		return 5005
	case ErrBusiness:
		return 5000
	default:
		return 5100
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrAuthFailed:
		return "Check the token header."
	case ErrInvalidRequest:
		return "Check request parameters."
	default:
		return ""
	}
}
