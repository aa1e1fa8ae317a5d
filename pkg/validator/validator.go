package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/gabrielmatsan/brev-ly/pkg/response"
)

var validate *validator.Validate

var shortCodeRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func init() {
	validate = validator.New()

	validate.RegisterValidation("shortcode", validateShortCode)
}

func Validate(data interface{}) []response.ValidationError {
	var validationErrors []response.ValidationError

	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, response.ValidationError{
				Field:   err.Field(),
				Message: getErrorMessage(err),
			})
		}
	}

	return validationErrors
}

func validateShortCode(fl validator.FieldLevel) bool {
	return shortCodeRe.MatchString(fl.Field().String())
}

func getErrorMessage(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, err.Param())
	case "shortcode":
		return fmt.Sprintf("%s may only contain letters, digits, - and _", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
