package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// StreamErrorType categorizes different types of streaming errors
type StreamErrorType int

const (
	// Expected errors - not logged as errors
	ClientDisconnect StreamErrorType = iota
	ServerShutdown

	// Unexpected errors - logged as errors
	InternalError
)

// StreamError provides structured error handling
type StreamError struct {
	Type         StreamErrorType
	Message      string
	Cause        error
	SubscriberID string
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// IsExpected returns true if this error type is expected (client disconnect, shutdown)
func (e *StreamError) IsExpected() bool {
	return e.Type == ClientDisconnect || e.Type == ServerShutdown
}

// Error constructors
func NewClientDisconnectError(subscriberID string) *StreamError {
	return &StreamError{
		Type:         ClientDisconnect,
		Message:      "Client disconnected",
		SubscriberID: subscriberID,
	}
}

func NewServerShutdownError(subscriberID string) *StreamError {
	return &StreamError{
		Type:         ServerShutdown,
		Message:      "Server shutting down",
		SubscriberID: subscriberID,
	}
}

func NewInternalError(subscriberID, message string, cause error) *StreamError {
	return &StreamError{
		Type:         InternalError,
		Message:      message,
		Cause:        cause,
		SubscriberID: subscriberID,
	}
}

// IsClientDisconnect checks if error is a client disconnect
func IsClientDisconnect(err error) bool {
	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return streamErr.Type == ClientDisconnect
	}
	return false
}

// IsExpectedError checks if error is expected (not a real error)
func IsExpectedError(err error) bool {
	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return streamErr.IsExpected()
	}
	return false
}

// IsConnectionClosed checks if error indicates closed connection
func IsConnectionClosed(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection closed") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "i/o timeout")
}
