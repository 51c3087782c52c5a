// Package validator provides struct validation utilities with custom validators.
package validator

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/pkg/domain/charge"
	"github.com/hromada/backoffice/pkg/domain/cnap"
	"github.com/hromada/backoffice/pkg/domain/receipt"
	"github.com/hromada/backoffice/pkg/domain/registry"
	"github.com/hromada/backoffice/pkg/domain/shared"
)

// Validator wraps the go-playground validator with custom validations.
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// Is lets callers match ValidationErrors with shared.ErrValidation.
func (v ValidationErrors) Is(target error) bool {
	return target == shared.ErrValidation
}

// New creates a new Validator with custom validators registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimal amounts are compared as numbers by gt/gte/lt/lte.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("tax_number", stringRule(shared.IsTaxNumber))
	_ = v.RegisterValidation("edrpou", stringRule(shared.IsEDRPOU))
	_ = v.RegisterValidation("iban_ua", stringRule(shared.IsIBANUA))
	_ = v.RegisterValidation("sort_direction", stringRule(func(s string) bool {
		s = strings.ToLower(s)
		return s == "asc" || s == "desc"
	}))
	_ = v.RegisterValidation("charge_status", stringRule(func(s string) bool {
		_, err := charge.ParseStatus(s)
		return err == nil
	}))
	_ = v.RegisterValidation("receipt_status", stringRule(func(s string) bool {
		_, err := receipt.ParseStatus(s)
		return err == nil
	}))
	_ = v.RegisterValidation("account_status", stringRule(func(s string) bool {
		_, err := cnap.ParseAccountStatus(s)
		return err == nil
	}))
	_ = v.RegisterValidation("registry_status", stringRule(func(s string) bool {
		_, err := registry.ParseStatus(s)
		return err == nil
	}))

	return &Validator{validate: v}
}

// stringRule adapts a string predicate. Empty values pass so that
// "required" alone decides whether a field must be present.
func stringRule(ok func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		return ok(value)
	}
}

// Validate validates a struct and returns ValidationErrors if validation fails.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return err
	}

	result := make(ValidationErrors, 0, len(validationErrors))
	for _, e := range validationErrors {
		result = append(result, ValidationError{
			Field:   e.Field(),
			Message: formatErrorMessage(e),
		})
	}
	return result
}

func formatErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "datetime":
		return "must be a date in format YYYY-MM-DD"
	case "tax_number":
		return "must be a 10-digit tax number or an 8-digit EDRPOU code"
	case "edrpou":
		return "must be an 8-digit EDRPOU code"
	case "iban_ua":
		return "must be a valid Ukrainian IBAN"
	case "sort_direction":
		return "must be one of: asc, desc"
	case "charge_status":
		names := make([]string, 0, len(charge.AllStatuses()))
		for _, s := range charge.AllStatuses() {
			names = append(names, string(s))
		}
		return "must be one of: " + strings.Join(names, ", ")
	case "receipt_status":
		return "must be one of: issued, paid, cancelled"
	case "account_status":
		return "must be one of: pending, paid, cancelled"
	case "registry_status":
		return "must be one of: draft, published, archived"
	default:
		return fmt.Sprintf("failed on '%s' validation", e.Tag())
	}
}
