// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"
)

// Logger is the subset of logger.Logger the error handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// ErrorResponse is the JSON body of every rejected request.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   string    `json:"error"`
	Code    ErrorCode `json:"code"`
	Reason  string    `json:"reason,omitempty"`
	Details []string  `json:"details,omitempty"`
}

// HTTPStatus maps an error code onto the response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeBotDetected, ErrCodeRecaptchaFailed, ErrCodeValidationFailed,
		ErrCodeFileRejected, ErrCodeInvalidPayload:
		return http.StatusBadRequest
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeEndpointDisabled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AsStandardError ensures we always have a StandardError.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ToResponse renders the caller-visible part of a StandardError.
func ToResponse(stdErr *StandardError) ErrorResponse {
	resp := ErrorResponse{
		Success: false,
		Error:   stdErr.Message,
		Code:    stdErr.Code,
		Details: stdErr.Reasons,
	}
	if reason, ok := stdErr.Metadata["reason"].(string); ok {
		resp.Reason = reason
	}
	return resp
}

// WriteHTTPError converts err into a JSON error response. Only upstream and
// internal failures log full diagnostics; the body stays generic for them.
func WriteHTTPError(w http.ResponseWriter, log Logger, err error) {
	stdErr := AsStandardError(err)
	status := HTTPStatus(stdErr.Code)

	if log != nil {
		fields := map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"status":    status,
		}
		switch stdErr.Code {
		case ErrCodeUpstreamUnavailable, ErrCodeInternal:
			fields["details"] = stdErr.Details
			for k, v := range stdErr.Metadata {
				fields[k] = v
			}
			log.Error("Request failed", fields)
		default:
			log.Warn("Request rejected", fields)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if secs, ok := stdErr.Metadata["retryAfterSeconds"].(int); ok && secs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ToResponse(stdErr))
}
