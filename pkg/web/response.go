// Package web defines common components for a web application.
package web

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Response holds the common response type for all APIs.
type Response struct {
	Data           any    `json:"data,omitempty"`
	Error          string `json:"error,omitempty"`
	ReasonCode     string `json:"reason_code,omitempty"`
	OutcomeUnknown bool   `json:"outcome_unknown,omitempty"`
}

// Error wraps a given err into json frinedly struct.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// Failure returns failure response carrying the machine readable reason code.
func Failure(err error, reasonCode string, outcomeUnknown bool) Response {
	return Response{Error: err.Error(), ReasonCode: reasonCode, OutcomeUnknown: outcomeUnknown}
}

// BindError turns a request binding error into a response naming the first invalid field.
func BindError(err error) Response {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		field := ve[0]
		return Response{Error: field.Field() + GetErrorMsg(field)}
	}

	return Error(err)
}

// GetErrorMsg returns a human readable suffix for the failed validation tag.
func GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return " field is required"
	case "min":
		return fmt.Sprintf(" must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf(" must be at most %s", fe.Param())
	case "email":
		return " must be a valid email"
	case "accounttype":
		return " must be one of savings, current, salary"
	case "money":
		return " must be a positive amount with at most 2 decimals"
	}

	return " is invalid"
}
