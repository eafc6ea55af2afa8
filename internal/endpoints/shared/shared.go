// Package shared holds request decoding and response helpers used by every
// submission endpoint.
package shared

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"submission-intake/internal/common/config"
	"submission-intake/internal/common/errors"
	"submission-intake/internal/models"
	"submission-intake/internal/pipeline/botfilter"
	"submission-intake/internal/pipeline/ratelimit"

	"github.com/go-chi/chi/v5/middleware"
)

// MaxJSONBody bounds a form submission body.
const MaxJSONBody int64 = 64 * 1024

// EntryCreator stores a sanitized submission in the CMS.
type EntryCreator interface {
	CreateEntry(ctx context.Context, collection string, payload map[string]interface{}) (*models.Receipt, error)
}

// SubmissionResponse is the 201 body of the JSON form endpoints.
type SubmissionResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// EndpointConfig is the per-endpoint part of the configuration.
type EndpointConfig struct {
	Enabled       bool
	Collection    string
	MaxAttempts   int
	Window        time.Duration
	OnBotDetected botfilter.Policy
	Timeout       time.Duration
}

// FromConfig resolves an endpoint's settings from the loaded configuration.
func FromConfig(cfg *config.Config, name string) (*EndpointConfig, error) {
	ec := config.GetEndpointConfig(cfg, name)
	policy, err := botfilter.ParsePolicy(ec.OnBotDetected)
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", name, err)
	}
	return &EndpointConfig{
		Enabled:       ec.Enabled,
		Collection:    ec.Collection,
		MaxAttempts:   ec.MaxAttempts,
		Window:        config.GetDuration(cfg.RateLimit.Window),
		OnBotDetected: policy,
		Timeout:       config.GetDuration(ec.Timeout),
	}, nil
}

func (c *EndpointConfig) Validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// RateLimit returns the limiter settings for the endpoint.
func (c *EndpointConfig) RateLimit() ratelimit.Config {
	return ratelimit.Config{MaxAttempts: c.MaxAttempts, Window: c.Window}
}

// DecodeJSON reads a bounded JSON object body.
func DecodeJSON(w http.ResponseWriter, r *http.Request) (map[string]interface{}, error) {
	body := http.MaxBytesReader(w, r.Body, MaxJSONBody)
	defer body.Close()

	var fields map[string]interface{}
	dec := json.NewDecoder(body)
	if err := dec.Decode(&fields); err != nil {
		return nil, errors.NewInvalidPayloadError(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.NewInvalidPayloadError(fmt.Errorf("unexpected data after JSON object"))
	}
	if fields == nil {
		return nil, errors.NewInvalidPayloadError(fmt.Errorf("body must be a JSON object"))
	}
	return fields, nil
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RequestID returns the id assigned by the request id middleware.
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
