package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Check reports whether a single field value satisfies a rule. The value is
// whatever the JSON decoder produced, or nil when the field is absent.
type Check func(value interface{}) bool

// Rule ties a field to a predicate and the message shown when it fails.
type Rule struct {
	Field   string
	Code    string
	Message string
	Check   Check
}

// RuleSet is a declarative rule table for one submission type.
type RuleSet []Rule

// Validate evaluates every rule and accumulates one error per failed rule.
// There is no early return.
func (rs RuleSet) Validate(fields map[string]interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}
	for _, rule := range rs {
		if rule.Check(fields[rule.Field]) {
			continue
		}
		result.Errors = append(result.Errors, ValidationError{
			Field:   rule.Field,
			Message: rule.Message,
			Code:    rule.Code,
		})
	}
	result.Valid = len(result.Errors) == 0
	return result
}

func trimmedString(value interface{}) (string, bool) {
	s, ok := value.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// MinTrimmedLength requires a string of at least n characters after trimming.
func MinTrimmedLength(n int) Check {
	return func(value interface{}) bool {
		s, ok := trimmedString(value)
		return ok && utf8.RuneCountInString(s) >= n
	}
}

// NonEmpty requires a string with visible content.
func NonEmpty() Check {
	return MinTrimmedLength(1)
}

// Matches requires the trimmed string to match re.
func Matches(re *regexp.Regexp) Check {
	return func(value interface{}) bool {
		s, ok := trimmedString(value)
		return ok && re.MatchString(s)
	}
}

// Email requires a local@domain.tld address.
func Email() Check {
	return Matches(emailPattern)
}

// Phone requires an optional leading + followed by at least 10 digits,
// spaces, hyphens or parentheses.
func Phone() Check {
	return Matches(phonePattern)
}

// OneOf requires the string to equal one of the allowed values exactly.
func OneOf(allowed ...string) Check {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(value interface{}) bool {
		s, ok := value.(string)
		if !ok {
			return false
		}
		_, found := set[s]
		return found
	}
}

// IsTrue requires the JSON boolean true. Strings such as "true" do not count.
func IsTrue() Check {
	return func(value interface{}) bool {
		b, ok := value.(bool)
		return ok && b
	}
}
