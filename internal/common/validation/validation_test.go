package validation

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Field checks
// ==========================

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"ana@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"bad", false},
		{"no-tld@example", false},
		{"@example.com", false},
		{"a b@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+57 300 123 4567"))
	assert.True(t, ValidatePhone("(601) 555-0100"))
	assert.False(t, ValidatePhone("123"))
	assert.False(t, ValidatePhone("300-ABC-4567"))
}

func TestChecks(t *testing.T) {
	tests := []struct {
		name  string
		check Check
		value interface{}
		want  bool
	}{
		{"min length counts runes", MinTrimmedLength(2), "Ñu", true},
		{"min length trims", MinTrimmedLength(2), "  J  ", false},
		{"min length rejects absent", MinTrimmedLength(2), nil, false},
		{"min length rejects numbers", MinTrimmedLength(2), float64(12345), false},
		{"non empty", NonEmpty(), "https://cms/resume.pdf", true},
		{"non empty blank", NonEmpty(), "   ", false},
		{"email trimmed", Email(), "  ana@example.com ", true},
		{"phone", Phone(), "+57 300 123 4567", true},
		{"one of", OneOf("service", "product", "both"), "both", true},
		{"one of is case sensitive", OneOf("service", "product", "both"), "Service", false},
		{"is true", IsTrue(), true, true},
		{"is true rejects false", IsTrue(), false, false},
		{"is true rejects string", IsTrue(), "true", false},
		{"matches", Matches(regexp.MustCompile(`^\d{3}$`)), "123", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.value))
		})
	}
}

// ==========================
// Rule sets
// ==========================

func testRules() RuleSet {
	return RuleSet{
		{Field: "name", Message: "name too short", Check: MinTrimmedLength(2)},
		{Field: "email", Message: "email invalid", Check: Email()},
		{Field: "email", Message: "email required", Check: NonEmpty()},
		{Field: "consent", Message: "consent required", Check: IsTrue()},
	}
}

func TestRuleSet_AccumulatesAllErrors(t *testing.T) {
	result := testRules().Validate(map[string]interface{}{
		"name":  "J",
		"email": "",
	})

	assert.False(t, result.Valid)
	assert.Equal(t, []string{"name too short", "email invalid", "email required", "consent required"}, result.GetErrorMessages())
	assert.True(t, result.HasErrors("email"))
}

func TestRuleSet_Valid(t *testing.T) {
	result := testRules().Validate(map[string]interface{}{
		"name":    "Ana",
		"email":   "ana@example.com",
		"consent": true,
	})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

// ==========================
// Shape check
// ==========================

func testSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"companyName": {Type: "string"},
			"dataConsent": {Type: "boolean"},
			"locale":      {Type: "string", Nullable: true},
		},
		AdditionalProperties: true,
	}
}

func TestCheckShape(t *testing.T) {
	t.Run("valid types", func(t *testing.T) {
		result, err := CheckShape(map[string]interface{}{
			"companyName": "Acme",
			"dataConsent": true,
			"locale":      nil,
			"extra":       42,
		}, testSchema())
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("wrong types are reported per field", func(t *testing.T) {
		result, err := CheckShape(map[string]interface{}{
			"companyName": 12,
			"dataConsent": "yes",
		}, testSchema())
		require.NoError(t, err)
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, "companyName", result.Errors[0].Field)
		assert.Equal(t, "dataConsent", result.Errors[1].Field)
		assert.Contains(t, result.Errors[1].Message, "dataConsent")
	})

	t.Run("absent fields are left to the rule tables", func(t *testing.T) {
		result, err := CheckShape(map[string]interface{}{}, testSchema())
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})
}

func TestSchemaToMap_Nullable(t *testing.T) {
	doc := testSchema().ToMap()
	props := doc["properties"].(map[string]interface{})
	assert.Equal(t, []string{"string", "null"}, props["locale"].(map[string]interface{})["type"])
	assert.Equal(t, "boolean", props["dataConsent"].(map[string]interface{})["type"])
}
