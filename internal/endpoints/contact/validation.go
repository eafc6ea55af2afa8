package contact

import (
	"submission-intake/internal/common/validation"
	"submission-intake/internal/pipeline/sanitize"
)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"fullName":       {Type: "string", Description: "Visitor's full name"},
			"email":          {Type: "string"},
			"phone":          {Type: "string"},
			"message":        {Type: "string"},
			"company":        {Type: "string", Nullable: true},
			"attachmentUrl":  {Type: "string", Nullable: true, Description: "URL returned by the upload endpoint"},
			"locale":         {Type: "string", Nullable: true},
			"recaptchaToken": {Type: "string", Nullable: true},
		},
		AdditionalProperties: true,
	}
}

func GetRules() validation.RuleSet {
	return validation.RuleSet{
		{Field: "fullName", Code: "min_length", Message: "Full name must be at least 2 characters", Check: validation.MinTrimmedLength(2)},
		{Field: "email", Code: "format", Message: "A valid email address is required", Check: validation.Email()},
		{Field: "phone", Code: "format", Message: "A valid phone number is required (at least 10 digits)", Check: validation.Phone()},
		{Field: "message", Code: "min_length", Message: "Message must be at least 10 characters", Check: validation.MinTrimmedLength(10)},
	}
}

func GetSanitizeSchema() sanitize.Schema {
	return sanitize.Schema{
		sanitize.Text("fullName", 100),
		sanitize.Email("email"),
		sanitize.Text("phone", sanitize.MaxPhone),
		sanitize.Text("message", 5000),
		sanitize.OptionalText("company", 150),
		sanitize.OptionalPassThrough("attachmentUrl"),
		sanitize.OptionalText("locale", sanitize.MaxLocale),
	}
}
