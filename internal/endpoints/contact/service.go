// Package contact serves the contact form.
package contact

import "submission-intake/internal/endpoints/shared"

const successMessage = "Thank you for contacting us. We will get back to you shortly."

func NewService(deps shared.ServiceDependencies, config *shared.EndpointConfig) *shared.FormService {
	return shared.NewFormService(shared.FormDefinition{
		Endpoint:       Endpoint,
		Shape:          GetInputSchema(),
		Rules:          GetRules(),
		Sanitize:       GetSanitizeSchema(),
		SuccessMessage: successMessage,
	}, deps, config)
}
