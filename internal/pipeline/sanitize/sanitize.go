// Package sanitize normalises already-validated submissions before they
// are forwarded. It never rejects input.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

// Field describes how one output field is normalised.
type Field struct {
	Name string
	// MaxLength caps string values in runes; zero means no cap. Strings
	// are always trimmed, other values (booleans, ids) pass through.
	MaxLength int
	Lowercase bool
	// Optional fields that are absent or blank are emitted as null.
	Optional bool
}

// Text is a required capped string field.
func Text(name string, maxLength int) Field {
	return Field{Name: name, MaxLength: maxLength}
}

// OptionalText is a capped string field that becomes null when blank.
func OptionalText(name string, maxLength int) Field {
	return Field{Name: name, MaxLength: maxLength, Optional: true}
}

// Email is a required lowercased field capped at 254 runes.
func Email(name string) Field {
	return Field{Name: name, MaxLength: MaxEmail, Lowercase: true}
}

// PassThrough copies a validated value, trimming it when it is a string.
func PassThrough(name string) Field {
	return Field{Name: name}
}

// OptionalPassThrough is PassThrough with null for absent or blank values.
func OptionalPassThrough(name string) Field {
	return Field{Name: name, Optional: true}
}

// Shared caps.
const (
	MaxEmail  = 254
	MaxPhone  = 30
	MaxLocale = 5
)

// Schema is the ordered list of fields that make up a sanitized submission.
// Input keys not named in the schema are dropped.
type Schema []Field

// Apply returns a new map holding exactly the schema's fields.
func (s Schema) Apply(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(s))
	for _, f := range s {
		out[f.Name] = f.apply(fields[f.Name])
	}
	return out
}

func (f Field) apply(value interface{}) interface{} {
	str, isString := value.(string)
	if !isString {
		if value == nil && f.Optional {
			return nil
		}
		return value
	}
	cleaned := String(str, f.MaxLength, f.Lowercase)
	if cleaned == "" && f.Optional {
		return nil
	}
	return cleaned
}

// String trims, optionally lowercases, and caps s at maxLength runes.
// Applying it twice yields the same result as applying it once.
func String(s string, maxLength int, lowercase bool) string {
	s = strings.TrimSpace(s)
	if lowercase {
		s = strings.ToLower(s)
	}
	if maxLength > 0 && utf8.RuneCountInString(s) > maxLength {
		s = strings.TrimSpace(truncateRunes(s, maxLength))
	}
	return s
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
