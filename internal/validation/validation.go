// Package validation binds and validates request bodies.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/apperr"
)

var validate = validator.New()

// Struct validates v against its `validate` tags. Failures wrap apperr.ErrInvalidRequest.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		msgs := FormatValidationError(err)
		if len(msgs) == 0 {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidRequest, err)
		}
		return fmt.Errorf("%w: %s", apperr.ErrInvalidRequest, strings.Join(msgs, "; "))
	}
	return nil
}

// Bind parses the JSON body of c into dst and validates it.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", apperr.ErrInvalidRequest)
	}
	return Struct(dst)
}

// FormatValidationError renders validator errors as human readable messages.
func FormatValidationError(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	errs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errs = append(errs, fmt.Sprintf("%s is required", field))
		case "email":
			errs = append(errs, fmt.Sprintf("%s must be a valid email", field))
		case "min":
			errs = append(errs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "max":
			errs = append(errs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		case "gt":
			errs = append(errs, fmt.Sprintf("%s must be greater than %s", field, e.Param()))
		case "gte":
			errs = append(errs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "nefield":
			errs = append(errs, fmt.Sprintf("%s must differ from %s", field, e.Param()))
		default:
			errs = append(errs, fmt.Sprintf("%s is invalid (%s)", field, e.Tag()))
		}
	}
	return errs
}
