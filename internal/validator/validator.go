package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// E.164-ish: optional +, leading non-zero digit, up to 15 digits total.
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// Register custom "notblank" validator - rejects whitespace-only strings
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	// Register custom "phone" validator used by the OTP issuance DTOs
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true
		}
		return phonePattern.MatchString(str)
	})

	return v
}
