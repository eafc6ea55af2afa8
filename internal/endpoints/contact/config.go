package contact

import (
	"time"

	"submission-intake/internal/common/config"
	"submission-intake/internal/endpoints/shared"
	"submission-intake/internal/pipeline/botfilter"
)

const Endpoint = config.EndpointContact

func DefaultConfig() *shared.EndpointConfig {
	return &shared.EndpointConfig{
		Enabled:       true,
		Collection:    "contact-submissions",
		MaxAttempts:   10,
		Window:        time.Hour,
		OnBotDetected: botfilter.PolicyReject,
		Timeout:       10 * time.Second,
	}
}
