package jobapplication

import (
	"time"

	"submission-intake/internal/common/config"
	"submission-intake/internal/endpoints/shared"
	"submission-intake/internal/pipeline/botfilter"
)

const Endpoint = config.EndpointJobApplication

func DefaultConfig() *shared.EndpointConfig {
	return &shared.EndpointConfig{
		Enabled:       true,
		Collection:    "job-applications",
		MaxAttempts:   5,
		Window:        time.Hour,
		OnBotDetected: botfilter.PolicyReject,
		Timeout:       10 * time.Second,
	}
}
