package http

import (
	"errors"
	"reflect"
	"strings"

	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/principal"

	"github.com/go-playground/validator/v10"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// report json field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// amounts validate as their decimal text
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if a, ok := field.Interface().(amount.Amount); ok {
			return a.String()
		}
		return nil
	}, amount.Amount{})

	// 20-byte hex account address
	_ = v.RegisterValidation("address", func(fl validator.FieldLevel) bool {
		return principal.Valid(fl.Field().String())
	})
	// strictly positive base-unit amount
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		a, err := amount.Parse(fl.Field().String())
		return err == nil && !a.IsZero()
	})
	// basis points, 0..10000
	_ = v.RegisterValidation("bps", func(fl validator.FieldLevel) bool {
		return fl.Field().Uint() <= amount.BasisPoints
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "address":
			out = append(out, FieldError{Field: field, Message: "must be a 20-byte hex address"})
		case "amount":
			out = append(out, FieldError{Field: field, Message: "must be a positive integer amount in base units"})
		case "bps":
			out = append(out, FieldError{Field: field, Message: "must be between 0 and 10000 basis points"})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		case "max":
			out = append(out, FieldError{Field: field, Message: "must be at most " + e.Param() + " characters"})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
