package api

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hypernova-labs/client-service/internal/models"
)

var (
	phonePattern       = regexp.MustCompile(`^[+]?[0-9\s\-()]{7,20}$`)
	countryCodePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)
)

const (
	phoneMessage       = "Phone number must be valid (7-20 digits, may include +, spaces, hyphens, parentheses)"
	countryCodeMessage = "Country code must be a valid ISO 3166-1 alpha-2 code (2 letters)"
)

// RequestValidator valida los requests ya normalizados
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator crea el validador con las reglas phone y country_code
func NewRequestValidator() *RequestValidator {
	v := validator.New()

	// Usar el nombre JSON del campo en los errores
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("country_code", func(fl validator.FieldLevel) bool {
		return isCountryCode(fl.Field().String())
	})

	return &RequestValidator{validate: v}
}

// Validate retorna los errores por campo, o nil si el request es válido
func (rv *RequestValidator) Validate(req interface{}) []models.FieldError {
	err := rv.validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []models.FieldError{{Field: "body", Message: err.Error()}}
	}

	details := make([]models.FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		details = append(details, models.FieldError{
			Field:         fe.Field(),
			Message:       fieldMessage(fe),
			RejectedValue: rejectedValue(fe),
		})
	}
	return details
}

func isCountryCode(code string) bool {
	return countryCodePattern.MatchString(strings.TrimSpace(code))
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabel(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", label, fe.Param())
	case "email":
		return "Email must be a valid email address"
	case "phone":
		return phoneMessage
	case "country_code":
		return countryCodeMessage
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// fieldLabel convierte first_name en "First name"
func fieldLabel(field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func rejectedValue(fe validator.FieldError) interface{} {
	if fe.Tag() == "required" {
		return nil
	}
	return fe.Value()
}
