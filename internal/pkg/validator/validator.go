package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Plan type validation
	validate.RegisterValidation("plan_type", func(fl validator.FieldLevel) bool {
		plan := fl.Field().String()
		validPlans := []string{"standard", "premium", "unlimited", ""}
		for _, p := range validPlans {
			if plan == p {
				return true
			}
		}
		return false
	})

	// Payment status validation
	validate.RegisterValidation("payment_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		validStatuses := []string{"pending", "success", "failed"}
		for _, s := range validStatuses {
			if strings.EqualFold(status, s) {
				return true
			}
		}
		return false
	})

	// Position name: non-empty, no leading/trailing whitespace
	validate.RegisterValidation("position", func(fl validator.FieldLevel) bool {
		position := fl.Field().String()
		return position != "" && position == strings.TrimSpace(position)
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "uuid":
			errors[field] = "Invalid UUID format"
		case "e164":
			errors[field] = "Invalid phone number format"
		case "plan_type":
			errors[field] = "Invalid plan type. Must be: standard, premium, or unlimited"
		case "payment_status":
			errors[field] = "Invalid status. Must be: pending, success, or failed"
		case "position":
			errors[field] = "Position must be non-empty without surrounding whitespace"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
