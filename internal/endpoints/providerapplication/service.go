// Package providerapplication serves the supplier registration form.
package providerapplication

import "submission-intake/internal/endpoints/shared"

const successMessage = "Your registration has been received. Our procurement team will contact you."

func NewService(deps shared.ServiceDependencies, config *shared.EndpointConfig) *shared.FormService {
	return shared.NewFormService(shared.FormDefinition{
		Endpoint:       Endpoint,
		Shape:          GetInputSchema(),
		Rules:          GetRules(),
		Sanitize:       GetSanitizeSchema(),
		SuccessMessage: successMessage,
	}, deps, config)
}
