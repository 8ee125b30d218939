package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/proportfolio/gallery/internal/models"
)

// validateStruct runs the struct's validate tags and converts the first failure to a ValidationError
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	fe := fieldErrs[0]
	field := toSnakeCase(fe.Field())
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		msg = fmt.Sprintf("%s must not be empty", field)
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return &models.ValidationError{Field: field, Message: msg}
}

func toSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
