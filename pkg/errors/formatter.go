package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func msgForTag(tag string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "email", "waitlist_email":
		return "Invalid email address"
	case "min":
		return "Value is too short or too small"
	case "max":
		return "Value is too long or too large"
	default:
		return "Invalid value"
	}
}

// JSONFieldName resolves a struct field to the name it carries on the wire.
func JSONFieldName(structType reflect.Type, fieldName string) string {
	if structType == nil {
		return fieldName
	}

	field, found := structType.FieldByName(fieldName)
	if !found {
		return fieldName
	}

	jsonTag := field.Tag.Get("json")
	if jsonTag == "" || jsonTag == "-" {
		return fieldName
	}

	return strings.Split(jsonTag, ",")[0]
}

func structTypeOf(model interface{}) reflect.Type {
	if model == nil {
		return nil
	}
	structType := reflect.TypeOf(model)
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	return structType
}

func formatFieldError(structType reflect.Type, fieldError validator.FieldError) ValidationErrorResponse {
	message := msgForTag(fieldError.Tag())

	if fieldError.Param() != "" {
		switch fieldError.Tag() {
		case "min":
			message = fmt.Sprintf("Must be at least %s characters", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Must not exceed %s characters", fieldError.Param())
		}
	}

	return ValidationErrorResponse{
		Field:   JSONFieldName(structType, fieldError.StructField()),
		Message: message,
	}
}

// FormatValidationErrors turns binding errors into field/message pairs. Malformed JSON yields an empty list.
func FormatValidationErrors(err error, model interface{}) []ValidationErrorResponse {
	var errorsList []ValidationErrorResponse

	if err == nil {
		return errorsList
	}

	var jsonErr *json.UnmarshalTypeError
	if errors.As(err, &jsonErr) {
		return []ValidationErrorResponse{
			{
				Field:   jsonErr.Field,
				Message: fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", jsonErr.Field, jsonErr.Type, jsonErr.Value),
			},
		}
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		structType := structTypeOf(model)

		errorsList = make([]ValidationErrorResponse, len(validationErrors))
		for i, fieldError := range validationErrors {
			errorsList[i] = formatFieldError(structType, fieldError)
		}
	}

	return errorsList
}

// FirstValidationError reports only the first failing field, in struct declaration order.
func FirstValidationError(err error, model interface{}) (ValidationErrorResponse, bool) {
	all := FormatValidationErrors(err, model)
	if len(all) == 0 {
		return ValidationErrorResponse{}, false
	}
	return all[0], true
}
