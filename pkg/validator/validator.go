// ==============================================================================
// VALIDATOR PACKAGE - pkg/validator/validator.go
// ==============================================================================
package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var ethAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := &Validator{
		validate: validator.New(),
	}
	v.registerCustomValidations()
	return v
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		// Format validation errors
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMessages []string
			for _, e := range validationErrors {
				errMessages = append(errMessages, fmt.Sprintf(
					"Field '%s' failed validation '%s'",
					e.Field(),
					e.Tag(),
				))
			}
			return fmt.Errorf("validation failed: %v", errMessages)
		}
		return err
	}
	return nil
}

// ValidateStructured returns a map of field -> error message for frontend usage
func (v *Validator) ValidateStructured(i interface{}) map[string]string {
	errs := make(map[string]string)
	if err := v.validate.Struct(i); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				msg := fmt.Sprintf("failed validation on '%s'", e.Tag())
				switch e.Tag() {
				case "required":
					msg = "This field is required"
				case "min":
					msg = fmt.Sprintf("Must be at least %s", e.Param())
				case "max":
					msg = fmt.Sprintf("Must be at most %s", e.Param())
				case "eth_address":
					msg = "Invalid wallet address (expected 0x followed by 40 hex characters)"
				case "oneof":
					msg = fmt.Sprintf("Must be one of: %s", e.Param())
				}
				errs[e.Field()] = msg
			}
		} else {
			errs["_global"] = err.Error()
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// IsEthAddress reports whether s looks like a 20-byte hex address.
func IsEthAddress(s string) bool {
	return ethAddressRe.MatchString(strings.TrimSpace(s))
}

func (v *Validator) registerCustomValidations() {
	// Register decimal.Decimal to be validated as float64 for gt/lt checks
	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := val.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.validate.RegisterValidation("eth_address", func(fl validator.FieldLevel) bool {
		return IsEthAddress(fl.Field().String())
	})
}
