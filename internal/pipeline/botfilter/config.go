package botfilter

import (
	"fmt"
	"time"
)

// Policy is the response given when the honeypot trips.
type Policy string

const (
	// PolicyReject answers with an explicit bot-detection error.
	PolicyReject Policy = "reject"
	// PolicyFakeAccept answers with a success-shaped body and persists nothing.
	PolicyFakeAccept Policy = "fake_accept"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyReject, PolicyFakeAccept:
		return Policy(s), nil
	case "":
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("unknown bot policy %q", s)
	}
}

const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Config configures score verification. An empty SecretKey disables it.
type Config struct {
	SecretKey string
	VerifyURL string
	MinScore  float64
	Timeout   time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		VerifyURL: DefaultVerifyURL,
		MinScore:  0.5,
		Timeout:   5 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return nil
	}
	if c.VerifyURL == "" {
		return fmt.Errorf("verify_url is required when a secret key is set")
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("min_score must be between 0 and 1")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
