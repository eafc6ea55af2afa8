package providerapplication

import (
	"submission-intake/internal/common/logger"
	"submission-intake/internal/endpoints/shared"
)

func NewHandler(config *shared.EndpointConfig, service shared.ServiceInterface, log logger.Logger) *shared.FormHandler {
	return shared.NewFormHandler(Endpoint, config, service, log)
}
