package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLogger struct {
	mock.Mock
}

func (m *mockLogger) Error(msg string, fields map[string]interface{}) { m.Called(msg, fields) }
func (m *mockLogger) Warn(msg string, fields map[string]interface{})  { m.Called(msg, fields) }

// ==========================
// Status mapping
// ==========================

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeBotDetected, http.StatusBadRequest},
		{ErrCodeRecaptchaFailed, http.StatusBadRequest},
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeFileRejected, http.StatusBadRequest},
		{ErrCodeInvalidPayload, http.StatusBadRequest},
		{ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeEndpointDisabled, http.StatusServiceUnavailable},
		{ErrCodeUpstreamUnavailable, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "rate-limited", RejectionReason(ErrCodeRateLimited))
	assert.Equal(t, "bot-detected", RejectionReason(ErrCodeBotDetected))
	assert.Equal(t, "bot-detected", RejectionReason(ErrCodeRecaptchaFailed))
	assert.Equal(t, "validation-failed", RejectionReason(ErrCodeValidationFailed))
	assert.Equal(t, "file-invalid", RejectionReason(ErrCodeFileRejected))
	assert.Equal(t, "upstream-error", RejectionReason(ErrCodeUpstreamUnavailable))
	assert.Equal(t, "other", RejectionReason(ErrCodeInternal))
}

// ==========================
// Normalisation
// ==========================

func TestAsStandardError(t *testing.T) {
	t.Run("wrapped standard error", func(t *testing.T) {
		orig := NewBotDetectedError()
		wrapped := fmt.Errorf("pipeline: %w", orig)
		assert.Same(t, orig, AsStandardError(wrapped))
		assert.True(t, Is(wrapped, ErrCodeBotDetected))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		cause := stderrors.New("nil map")
		stdErr := AsStandardError(cause)
		assert.Equal(t, ErrCodeInternal, stdErr.Code)
		assert.Equal(t, "nil map", stdErr.Details)
		assert.ErrorIs(t, stdErr, cause)
	})
}

func TestUpstreamErrorKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewUpstreamUnavailableError("cms", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Details, "connection refused")
	assert.NotContains(t, err.Message, "connection refused")
	assert.True(t, err.Retryable)
}

func TestWithReasonsCopies(t *testing.T) {
	base := NewUpstreamUnavailableError("cms", nil)
	withReasons := base.WithReasons("media upload failed")
	assert.Empty(t, base.Reasons)
	assert.Equal(t, []string{"media upload failed"}, withReasons.Reasons)
}

// ==========================
// HTTP rendering
// ==========================

func TestWriteHTTPError_Validation(t *testing.T) {
	log := new(mockLogger)
	log.On("Warn", "Request rejected", mock.Anything).Return()

	rec := httptest.NewRecorder()
	WriteHTTPError(rec, log, NewValidationFailedError([]string{"a", "b"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, ErrCodeValidationFailed, body.Code)
	assert.Equal(t, []string{"a", "b"}, body.Details)
	log.AssertExpectations(t)
}

func TestWriteHTTPError_UpstreamLogsDiagnostics(t *testing.T) {
	log := new(mockLogger)
	log.On("Error", "Request failed", mock.MatchedBy(func(f map[string]interface{}) bool {
		return f["service"] == "cms" && f["details"] != ""
	})).Return()

	rec := httptest.NewRecorder()
	WriteHTTPError(rec, log, NewUpstreamUnavailableError("cms", stderrors.New("502 bad gateway: <html>")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "bad gateway")
	log.AssertExpectations(t)
}

func TestWriteHTTPError_RateLimitedSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTPError(rec, nil, NewRateLimitedError("contact", time.Hour))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
}

func TestWriteHTTPError_FileReason(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTPError(rec, nil, NewFileRejectedError("resume", "content-mismatch", "The file content does not match an allowed document type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "content-mismatch", body.Reason)
	assert.Equal(t, ErrCodeFileRejected, body.Code)
}
