package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New builds a validator that reports field names from json tags so error
// messages match the wire format.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Details converts validator errors into a map[field]message for API
// error details.
func Details(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = formatFieldError(fe)
	}
	return out
}

// FirstMessage returns the first field error as a single human-readable
// sentence, or an empty string when err is not a validation error.
func FirstMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ""
	}
	fe := verrs[0]
	return fmt.Sprintf("The %s field %s.", strings.ReplaceAll(fe.Field(), "_", " "), formatFieldError(fe))
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()

	switch tag {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + param + " characters long"
	case "max":
		return "must be at most " + param + " characters long"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email"
	case "datetime":
		return "must be a valid date in format " + param
	default:
		if param != "" {
			return fmt.Sprintf("failed validation '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("failed validation '%s'", tag)
	}
}
