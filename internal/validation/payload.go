package validation

import (
	"encoding/json"

	playground "github.com/go-playground/validator/v10"

	"github.com/pionia-project/pionia/internal/errors"
)

// structValidator is shared; the validator is safe for concurrent use.
var structValidator = playground.New(playground.WithRequiredStructEnabled())

// BindPayload decodes a payload map into a tagged struct and runs
// `validate` struct-tag validation on it. Failures surface as
// InvalidData with per-field details.
func BindPayload(payload map[string]any, target any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.InvalidData("Invalid payload: %v", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return errors.InvalidData("Invalid payload: %v", err)
	}
	return ValidateStruct(target)
}

// ValidateStruct runs struct-tag validation on an already-bound struct.
func ValidateStruct(target any) error {
	err := structValidator.Struct(target)
	if err == nil {
		return nil
	}
	validationErrs, ok := err.(playground.ValidationErrors)
	if !ok {
		return errors.InvalidData("Request validation failed: %v", err)
	}
	fields := make([]errors.FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, errors.FieldError{
			Field:   fe.Field(),
			Message: fe.Tag(),
		})
	}
	return errors.InvalidFields(fields)
}
