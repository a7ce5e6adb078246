// Package validator wraps go-playground/validator with JSON field naming and
// the price and phone tags used by catalog requests.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ghuser/storefront/pkg/httpx"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		// ignore unexported or explicitly ignored
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("price", validatePrice)
	_ = validate.RegisterValidation("phone", validatePhone)
}

// validatePrice accepts strings holding a non-negative decimal with at most
// two fractional digits ("500", "499.99").
func validatePrice(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Round(2))
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

// validatePhone accepts local and international numbers; spaces and dashes
// between digit groups are ignored.
func validatePhone(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	s := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(fl.Field().String()))
	return phonePattern.MatchString(s)
}

// Validate runs struct-level validation using go-playground/validator tags.
func Validate(s any) error {
	return validate.Struct(s)
}

// Var validates a single value against tag, e.g. Var(price, "required,price").
func Var(field any, tag string) error {
	return validate.Var(field, tag)
}

// FormatValidationErrors maps each failing field (by its JSON name) to a
// message suitable for API clients. Errors that are not validation errors
// yield an empty map.
func FormatValidationErrors(err error) map[string]string {
	out := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return out
	}
	for _, e := range ve {
		out[e.Field()] = fieldMessage(e)
	}
	return out
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "min":
		return fmt.Sprintf("Minimum length is %s", e.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", e.Param())
	case "price":
		return "Must be a non-negative amount with at most two decimals"
	case "phone":
		return "Must be a phone number"
	}
	return fmt.Sprintf("Validation failed on '%s'", e.Tag())
}

// ValidateRequest decodes the JSON body into T and validates it. On failure
// the error response is already written and ok is false.
//
// Bodies cut short by http.MaxBytesReader get 413; anything else that does
// not decode gets 400 "Invalid JSON".
func ValidateRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.JSONError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		httpx.JSONError(w, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	if err := Validate(&req); err != nil {
		httpx.JSONFieldErrors(w, FormatValidationErrors(err))
		return nil, false
	}
	return &req, true
}
