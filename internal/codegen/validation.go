package codegen

import (
	"fmt"
	"strings"

	"github.com/kenfreee/doctrine-json-odm/internal/fields"
)

// TagValidator handles validation of odm tags
type TagValidator struct {
	reservedKeys []string
}

// NewTagValidator creates a new tag validator
func NewTagValidator() *TagValidator {
	return &TagValidator{
		reservedKeys: []string{fields.ReservedKey},
	}
}

// ValidateStruct validates the keys of every field of info in place and
// returns the problems found.
func (tv *TagValidator) ValidateStruct(info *StructInfo) []ValidationError {
	var errors []ValidationError

	seen := make(map[string]string, len(info.Fields))
	for i := range info.Fields {
		field := &info.Fields[i]
		if field.Skip {
			continue
		}

		for _, msg := range tv.ValidateFieldKey(field.Name, field.Key) {
			errors = append(errors, tv.fail(field, msg))
		}

		if other, dup := seen[field.Key]; dup {
			errors = append(errors, tv.fail(field, fmt.Sprintf("key '%s' already used by field '%s'", field.Key, other)))
			continue
		}
		seen[field.Key] = field.Name
	}

	if info.IsGeneric {
		errors = append(errors, ValidationError{
			Field:   info.StructName,
			Key:     "",
			Message: "generic types cannot be registered",
		})
	}
	return errors
}

// ValidateFieldKey validates the data key of a single field
func (tv *TagValidator) ValidateFieldKey(fieldName, key string) []string {
	var errors []string

	for _, reserved := range tv.reservedKeys {
		if key == reserved {
			errors = append(errors, fmt.Sprintf("key '%s' of field '%s' is reserved for the type name", key, fieldName))
		}
	}
	if strings.TrimSpace(key) != key {
		errors = append(errors, fmt.Sprintf("key '%s' of field '%s' has surrounding whitespace", key, fieldName))
	}
	return errors
}

func (tv *TagValidator) fail(field *FieldInfo, msg string) ValidationError {
	field.IsValid = false
	field.ValidationErrors = append(field.ValidationErrors, msg)
	return ValidationError{Field: field.Name, Key: field.Key, Message: msg}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Key     string
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return fmt.Sprintf("field '%s' key '%s': %s", ve.Field, ve.Key, ve.Message)
}
