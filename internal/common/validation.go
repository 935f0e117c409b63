package common

import (
	"fmt"
	"strings"
)

// ValidationError is a per-field, non-fatal finding. Validators collect these;
// they never abort a pipeline.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator collects validation errors in the order they were found.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Add records a finding for fieldName.
func (v *Validator) Add(fieldName string, value interface{}, message string) *Validator {
	v.errors = append(v.errors, ValidationError{Field: fieldName, Value: value, Message: message})
	return v
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Messages returns the human-readable messages only.
func (v *Validator) Messages() []string {
	out := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		out = append(out, err.Message)
	}
	return out
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required fails on nil or blank strings.
func Required(message string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		if value == nil {
			return &ValidationError{Field: fieldName, Value: value, Message: message}
		}
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return &ValidationError{Field: fieldName, Value: value, Message: message}
			}
		case *string:
			if v == nil || strings.TrimSpace(*v) == "" {
				return &ValidationError{Field: fieldName, Value: value, Message: message}
			}
		}
		return nil
	}
}

// OneOf fails when a non-empty string is outside allowed.
func OneOf(message string, allowed ...string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		s, ok := value.(string)
		if !ok || s == "" {
			return nil
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return &ValidationError{Field: fieldName, Value: value, Message: message}
	}
}
