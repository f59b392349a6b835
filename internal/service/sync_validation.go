package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// JSONFieldName reports struct fields by their json name in validation errors.
func JSONFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// NewValidator returns the validator used for dashboard requests.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(JSONFieldName)
	return validate
}

func (s *platformSyncService) validate(req interface{}) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return newValidationError("", "invalid request: %v", err)
	}
	fe := fieldErrors[0]
	return &ValidationError{Field: fe.Field(), Message: validationMessage(fe)}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "FinalScore":
		return "Final score must be between 0 and 100."
	case "CompletionPercentage":
		return "Completion percentage must be between 0 and 100."
	case "Rating":
		return "Rating must be between 1 and 5."
	case "Reviewers":
		return "Select at least one reviewer."
	}

	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required."
	case "max":
		return field + " must be at most " + fe.Param() + " characters."
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "gte":
		return field + " must be at least " + fe.Param() + "."
	default:
		return field + " is invalid."
	}
}
