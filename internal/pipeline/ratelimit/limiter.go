// Package ratelimit bounds submission attempts per client identifier and time window.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limiter decides whether one more attempt from identifier is allowed and
// records it when it is.
//
// A non-nil error means the backing store could not be consulted; allowed
// is then true so that a store outage does not block visitors.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (allowed bool, err error)
}

type Config struct {
	MaxAttempts int
	Window      time.Duration
}

func (c *Config) Validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	return nil
}
