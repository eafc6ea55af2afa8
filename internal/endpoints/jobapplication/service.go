// Package jobapplication serves the job application form. The résumé is
// uploaded first through the upload endpoint; this form carries its URL.
package jobapplication

import "submission-intake/internal/endpoints/shared"

const successMessage = "Your application has been received. Our team will review it and contact you."

func NewService(deps shared.ServiceDependencies, config *shared.EndpointConfig) *shared.FormService {
	return shared.NewFormService(shared.FormDefinition{
		Endpoint:       Endpoint,
		Shape:          GetInputSchema(),
		Rules:          GetRules(),
		Sanitize:       GetSanitizeSchema(),
		SuccessMessage: successMessage,
	}, deps, config)
}
