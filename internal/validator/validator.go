package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// New creates a validator instance with the custom rules registered, so the
// handlers and tests always validate identically.
func New() *validator.Validate {
	v := validator.New()

	// "notblank" rejects whitespace-only strings. Coupon codes, labels and
	// order ids must carry meaningful content, not just pass "required".
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // not a string, other rules handle it
		}
		return strings.TrimSpace(str) != ""
	})

	return v
}
