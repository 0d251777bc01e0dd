package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"storefront/internal/apperror"

	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator that reports fields by their JSON names
// and knows the notblank rule.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for reserved tags.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// validateStruct runs the struct rules and converts failures to a validation error.
func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperror.Validation(err.Error())
	}
	details := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, fieldMessage(e))
	}
	return apperror.Validation("validation failed", details...)
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("field '%s' is required and must not be blank", e.Field())
	case "gt":
		return fmt.Sprintf("field '%s' must be greater than %s", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("field '%s' must be greater than or equal to %s", e.Field(), e.Param())
	default:
		return fmt.Sprintf("field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
}
