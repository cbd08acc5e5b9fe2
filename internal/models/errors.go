package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeUnavailable represents a frame that does not exist yet (404)
	ErrorTypeUnavailable ErrorType = "unavailable"
	// ErrorTypeSource represents frame acquisition failures (502)
	ErrorTypeSource ErrorType = "source"
	// ErrorTypeEncoder represents frame encoding failures (500)
	ErrorTypeEncoder ErrorType = "encoder"
	// ErrorTypeTimeout represents timeout errors (504)
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeInternal represents internal server errors (500)
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Code       string    `json:"code,omitzero"`
	StatusCode int       `json:"-"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// GetStatusCode returns the HTTP status code for the error
func (e *AppError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeUnavailable:
		return http.StatusNotFound
	case ErrorTypeSource:
		return http.StatusBadGateway
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// NewUnavailableError is returned when no frame has been published yet
func NewUnavailableError() *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Message:    "no frame available yet",
		Code:       "FRAME_NOT_AVAILABLE",
		StatusCode: http.StatusNotFound,
		Retryable:  true,
	}
}

// NewSourceError wraps a frame acquisition failure
func NewSourceError(source string, cause error) *AppError {
	return &AppError{
		Type:      ErrorTypeSource,
		Message:   fmt.Sprintf("source %s failed to capture", source),
		Code:      "SOURCE_CAPTURE_FAILED",
		Retryable: true,
		Cause:     cause,
	}
}

// NewEncoderError wraps a frame encoding failure
func NewEncoderError(message string, cause error) *AppError {
	return &AppError{
		Type:      ErrorTypeEncoder,
		Message:   message,
		Code:      "ENCODE_FAILED",
		Retryable: true,
		Cause:     cause,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(operation string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    fmt.Sprintf("operation %s timed out", operation),
		StatusCode: http.StatusGatewayTimeout,
		Retryable:  true,
		Cause:      cause,
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// SanitizeError sanitizes an error for external consumption
func SanitizeError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:       appErr.Type,
			Message:    appErr.Message,
			Code:       appErr.Code,
			StatusCode: appErr.GetStatusCode(),
			Retryable:  appErr.Retryable,
		}
	}

	return NewInternalError("an unexpected error occurred", err)
}
