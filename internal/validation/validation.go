// Package validation checks command structs through validator tags and turns failures
// into validation errors.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldError is the client-visible description of one failed rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Failed reports whether any failure matches rule.
func Failed(failed []FieldError, rule string) bool {
	for _, fe := range failed {
		if fe.Rule == rule {
			return true
		}
	}
	return false
}

// Static returns a MessageFunc that always answers message.
func Static(message string) MessageFunc {
	return func([]FieldError) string { return message }
}

// MessageFunc picks the client message from the failed rules, in struct field order.
type MessageFunc func(failed []FieldError) string

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v. On failure it returns a validation error whose message comes from
// message and whose details list every failed field.
func Struct(v any, message MessageFunc) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Validation("Invalid request").Wrap(err)
	}

	details := make([]FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}

	return apperror.Validation(message(details)).WithDetails(details)
}
