package upload

import (
	"fmt"
	"time"

	"submission-intake/internal/common/config"
	"submission-intake/internal/pipeline/fileguard"
	"submission-intake/internal/pipeline/ratelimit"
)

const Endpoint = config.EndpointUpload

// Form field names.
const (
	FieldResume      = "resume"
	FieldCoverLetter = "coverLetter"
)

// MaxMultipartBody bounds the whole request: two files plus form overhead.
const MaxMultipartBody int64 = 11 * 1024 * 1024

type Config struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
	Timeout     time.Duration
	Files       *fileguard.Config
	// CleanupPartial deletes an already stored résumé when the cover
	// letter upload fails.
	CleanupPartial bool
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxAttempts:    10,
		Window:         time.Hour,
		Timeout:        20 * time.Second,
		Files:          fileguard.DefaultConfig(),
		CleanupPartial: true,
	}
}

// FromConfig resolves the upload settings from the loaded configuration.
func FromConfig(cfg *config.Config) *Config {
	ec := config.GetEndpointConfig(cfg, Endpoint)
	files := fileguard.DefaultConfig()
	if cfg.Uploads.MaxFileSize > 0 {
		files.MaxFileSize = cfg.Uploads.MaxFileSize
	}
	files.StrictTypeMatch = cfg.Uploads.StrictTypeMatch

	return &Config{
		Enabled:        ec.Enabled,
		MaxAttempts:    ec.MaxAttempts,
		Window:         config.GetDuration(cfg.RateLimit.Window),
		Timeout:        config.GetDuration(ec.Timeout),
		Files:          files,
		CleanupPartial: cfg.Uploads.CleanupPartial,
	}
}

func (c *Config) Validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Files == nil {
		return fmt.Errorf("file policy is required")
	}
	return c.Files.Validate()
}

func (c *Config) RateLimit() ratelimit.Config {
	return ratelimit.Config{MaxAttempts: c.MaxAttempts, Window: c.Window}
}
