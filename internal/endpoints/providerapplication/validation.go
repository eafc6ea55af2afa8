package providerapplication

import (
	"regexp"

	"submission-intake/internal/common/validation"
	"submission-intake/internal/pipeline/sanitize"
)

// Provider contacts are often landlines, so shorter numbers are allowed.
var phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]{7,20}$`)

var providerTypes = []string{"service", "product", "both"}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"companyName":            {Type: "string"},
			"nit":                    {Type: "string", Description: "Tax identification number"},
			"legalRepresentative":    {Type: "string"},
			"email":                  {Type: "string"},
			"phone":                  {Type: "string"},
			"address":                {Type: "string"},
			"providerType":           {Type: "string"},
			"operationalContactName": {Type: "string"},
			"dataConsent":            {Type: "boolean"},
			"locale":                 {Type: "string", Nullable: true},
			"recaptchaToken":         {Type: "string", Nullable: true},
		},
		AdditionalProperties: true,
	}
}

func GetRules() validation.RuleSet {
	return validation.RuleSet{
		{Field: "companyName", Code: "min_length", Message: "Company name must be at least 2 characters", Check: validation.MinTrimmedLength(2)},
		{Field: "nit", Code: "min_length", Message: "NIT must be at least 5 characters", Check: validation.MinTrimmedLength(5)},
		{Field: "legalRepresentative", Code: "min_length", Message: "Legal representative must be at least 3 characters", Check: validation.MinTrimmedLength(3)},
		{Field: "email", Code: "format", Message: "A valid email address is required", Check: validation.Email()},
		{Field: "phone", Code: "format", Message: "A valid phone number is required", Check: validation.Matches(phonePattern)},
		{Field: "address", Code: "min_length", Message: "Address must be at least 10 characters", Check: validation.MinTrimmedLength(10)},
		{Field: "providerType", Code: "enum", Message: "Provider type must be one of: service, product, both", Check: validation.OneOf(providerTypes...)},
		{Field: "operationalContactName", Code: "min_length", Message: "Operational contact name must be at least 3 characters", Check: validation.MinTrimmedLength(3)},
		{Field: "dataConsent", Code: "consent", Message: "You must accept the data processing policy", Check: validation.IsTrue()},
	}
}

func GetSanitizeSchema() sanitize.Schema {
	return sanitize.Schema{
		sanitize.Text("companyName", 150),
		sanitize.Text("nit", 30),
		sanitize.Text("legalRepresentative", 150),
		sanitize.Email("email"),
		sanitize.Text("phone", sanitize.MaxPhone),
		sanitize.Text("address", 250),
		sanitize.PassThrough("providerType"),
		sanitize.Text("operationalContactName", 150),
		sanitize.PassThrough("dataConsent"),
		sanitize.OptionalText("locale", sanitize.MaxLocale),
	}
}
