package shared

import (
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/currency"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs tag-based validation on an input DTO and reports the
// first problem as a validation-kind error.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return Wrap(KindValidation, "invalid input", err)
	}
	return nil
}

// ValidateCurrency checks the code against the ISO 4217 registry.
func ValidateCurrency(code string) error {
	if _, err := currency.ParseISO(code); err != nil {
		return Validation("shared: currency must be an ISO 4217 code")
	}
	return nil
}
