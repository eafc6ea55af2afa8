package providerapplication

import (
	"time"

	"submission-intake/internal/common/config"
	"submission-intake/internal/endpoints/shared"
	"submission-intake/internal/pipeline/botfilter"
)

const Endpoint = config.EndpointProviderApplication

// DefaultConfig answers honeypot hits with a success-shaped body so the
// bot gets no signal.
func DefaultConfig() *shared.EndpointConfig {
	return &shared.EndpointConfig{
		Enabled:       true,
		Collection:    "provider-applications",
		MaxAttempts:   5,
		Window:        time.Hour,
		OnBotDetected: botfilter.PolicyFakeAccept,
		Timeout:       10 * time.Second,
	}
}
