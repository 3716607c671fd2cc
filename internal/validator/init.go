package validator

import (
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	// Initialize validation
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// Struct validates s against its `validate` tags with the process-wide validator.
func Struct(s any) error {
	return validate.Struct(s)
}
