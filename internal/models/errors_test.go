package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeErrorDropsCause(t *testing.T) {
	err := fmt.Errorf("tick: %w", NewSourceError("http", errors.New("dial tcp 10.0.0.7:80: connection refused")))

	sanitized := SanitizeError(err)
	assert.Equal(t, "source http failed to capture", sanitized.Message)
	assert.Equal(t, "SOURCE_CAPTURE_FAILED", sanitized.Code)
	assert.Equal(t, http.StatusBadGateway, sanitized.GetStatusCode())
	assert.True(t, sanitized.Retryable)
	assert.Nil(t, sanitized.Cause)
}

func TestSanitizeErrorHidesUnknownErrors(t *testing.T) {
	sanitized := SanitizeError(errors.New("secret path /etc/cloudlines"))

	assert.Equal(t, ErrorTypeInternal, sanitized.Type)
	assert.Equal(t, "an unexpected error occurred", sanitized.Message)
	assert.Equal(t, http.StatusInternalServerError, sanitized.GetStatusCode())
}

func TestAppErrorStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NewUnavailableError().GetStatusCode())
	assert.Equal(t, http.StatusGatewayTimeout, NewTimeoutError("capture", nil).GetStatusCode())
	assert.Equal(t, http.StatusInternalServerError, NewEncoderError("bad", nil).GetStatusCode())

	cause := errors.New("boom")
	err := NewEncoderError("bad", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bad: boom", err.Error())
}
