package validator

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "unique":
		return "must not contain duplicates"
	case "min":
		return minMessage(err)
	case "max":
		return maxMessage(err)
	default:
		return "is invalid"
	}
}

func minMessage(err validator.FieldError) string {
	switch err.Kind() {
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("must contain at least %s item(s)", err.Param())
	case reflect.String:
		return fmt.Sprintf("must be at least %s characters long", err.Param())
	default:
		return fmt.Sprintf("must be at least %s", err.Param())
	}
}

func maxMessage(err validator.FieldError) string {
	switch err.Kind() {
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("must contain at most %s item(s)", err.Param())
	case reflect.String:
		return fmt.Sprintf("must be at most %s characters long", err.Param())
	default:
		return fmt.Sprintf("must be at most %s", err.Param())
	}
}
