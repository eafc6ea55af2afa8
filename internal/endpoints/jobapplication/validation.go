package jobapplication

import (
	"submission-intake/internal/common/validation"
	"submission-intake/internal/pipeline/sanitize"
)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"fullName":           {Type: "string"},
			"email":              {Type: "string"},
			"phone":              {Type: "string"},
			"resumeUrl":          {Type: "string", Description: "Media URL returned by the upload endpoint"},
			"coverLetter":        {Type: "string"},
			"positionOfInterest": {Type: "string"},
			"salaryExpectation":  {Type: "string", Nullable: true},
			"locale":             {Type: "string", Nullable: true},
			"recaptchaToken":     {Type: "string", Nullable: true},
		},
		AdditionalProperties: true,
	}
}

func GetRules() validation.RuleSet {
	return validation.RuleSet{
		{Field: "fullName", Code: "min_length", Message: "Full name must be at least 2 characters", Check: validation.MinTrimmedLength(2)},
		{Field: "email", Code: "format", Message: "A valid email address is required", Check: validation.Email()},
		{Field: "phone", Code: "format", Message: "A valid phone number is required (at least 10 digits)", Check: validation.Phone()},
		{Field: "resumeUrl", Code: "required", Message: "A résumé upload is required", Check: validation.NonEmpty()},
		{Field: "coverLetter", Code: "min_length", Message: "Cover letter must be at least 10 characters", Check: validation.MinTrimmedLength(10)},
		{Field: "positionOfInterest", Code: "min_length", Message: "Position of interest must be at least 2 characters", Check: validation.MinTrimmedLength(2)},
	}
}

func GetSanitizeSchema() sanitize.Schema {
	return sanitize.Schema{
		sanitize.Text("fullName", 100),
		sanitize.Email("email"),
		sanitize.Text("phone", sanitize.MaxPhone),
		sanitize.PassThrough("resumeUrl"),
		sanitize.Text("coverLetter", 5000),
		sanitize.Text("positionOfInterest", 150),
		sanitize.OptionalText("salaryExpectation", 100),
		sanitize.OptionalPassThrough("vacanteId"),
		sanitize.OptionalText("locale", sanitize.MaxLocale),
	}
}
