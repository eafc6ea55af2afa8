// Package errors provides the standardized error taxonomy of the intake pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRateLimited         ErrorCode = "RATE_LIMITED"
	ErrCodeBotDetected         ErrorCode = "BOT_DETECTED"
	ErrCodeRecaptchaFailed     ErrorCode = "RECAPTCHA_FAILED"
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeFileRejected        ErrorCode = "FILE_REJECTED"
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeMethodNotAllowed    ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeInvalidPayload      ErrorCode = "INVALID_PAYLOAD"
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeEndpointDisabled    ErrorCode = "ENDPOINT_DISABLED"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
//
// Message is safe to show to the caller. Details carries server-side
// diagnostics and is never serialized into responses.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"-"`
	Reasons   []string               `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithReasons returns a copy of e carrying caller-visible detail lines.
func (e *StandardError) WithReasons(reasons ...string) *StandardError {
	cp := *e
	cp.Reasons = append([]string(nil), reasons...)
	return &cp
}

// Is reports whether err is a StandardError with the given code.
func Is(err error, code ErrorCode) bool {
	var se *StandardError
	return stderrors.As(err, &se) && se.Code == code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewRateLimitedError creates the generic retry-later rejection.
func NewRateLimitedError(endpoint string, window time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   "Too many requests. Please try again later.",
		Retryable: true,
		Metadata: map[string]interface{}{
			"endpoint":          endpoint,
			"retryAfterSeconds": int(window.Seconds()),
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewBotDetectedError is returned when the honeypot field is filled in.
func NewBotDetectedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeBotDetected,
		Message:   "Submission rejected: automated activity detected",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecaptchaFailedError is returned when the verifier rejects the token or cannot be reached.
func NewRecaptchaFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecaptchaFailed,
		Message:   "reCAPTCHA verification failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError carries one message per violated rule.
func NewValidationFailedError(reasons []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Validation failed",
		Reasons:   append([]string(nil), reasons...),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFileRejectedError reports which file failed and why (size, declared-type, content-mismatch, missing).
func NewFileRejectedError(field, reason, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFileRejected,
		Message:   message,
		Details:   fmt.Sprintf("field: %s, reason: %s", field, reason),
		Retryable: false,
		Metadata: map[string]interface{}{
			"field":  field,
			"reason": reason,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamUnavailableError wraps a failed call to the system of record.
// The caller only ever sees the generic message.
func NewUpstreamUnavailableError(service string, err error) *StandardError {
	details := "unknown upstream failure"
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   "We could not process your submission. Please try again later.",
		Details:   fmt.Sprintf("service: %s, error: %s", service, details),
		Retryable: true,
		Metadata:  map[string]interface{}{"service": service},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewMethodNotAllowedError(method string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMethodNotAllowed,
		Message:   "Method not allowed",
		Details:   fmt.Sprintf("method: %s", method),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPayloadError is returned for bodies that cannot be decoded at all.
func NewInvalidPayloadError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Invalid request payload",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewNotFoundError(path string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   "Not found",
		Details:   fmt.Sprintf("path: %s", path),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewEndpointDisabledError(endpoint string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEndpointDisabled,
		Message:   "This form is temporarily unavailable",
		Details:   fmt.Sprintf("endpoint: %s", endpoint),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// RejectionReason maps a code onto the pipeline's rejection reasons, used
// as the metrics label and the journal outcome reason.
func RejectionReason(code ErrorCode) string {
	switch code {
	case ErrCodeRateLimited:
		return "rate-limited"
	case ErrCodeBotDetected, ErrCodeRecaptchaFailed:
		return "bot-detected"
	case ErrCodeValidationFailed, ErrCodeInvalidPayload:
		return "validation-failed"
	case ErrCodeFileRejected:
		return "file-invalid"
	case ErrCodeUpstreamUnavailable:
		return "upstream-error"
	default:
		return "other"
	}
}

// IsRetryableErrorCode checks if the caller may resubmit the same request later.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeRateLimited, ErrCodeUpstreamUnavailable, ErrCodeEndpointDisabled:
		return true
	default:
		return false
	}
}
