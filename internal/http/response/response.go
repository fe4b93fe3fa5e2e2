// Package response contains the types and helpers for the unified JSON
// envelope returned by all HTTP handlers, and the mapping from the error
// taxonomy to HTTP status codes.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"subscription-manager/internal/lib/apperr"
)

// Response is the standard JSON envelope.
// Status is "OK" or "Error"; Error carries the message on failure; Data
// carries the payload on success.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse is the failure envelope shape.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK is the status value of a successful response.
	StatusOK = "OK"
	// StatusError is the status value of a failed response.
	StatusError = "Error"
)

// OK returns a successful Response with no payload.
func OK() Response {
	return Response{Status: StatusOK}
}

// StatusOKWithData returns a successful Response carrying data.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error returns a failed response with the given message.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError formats validator violations into a single error message.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be greater than %s", err.Field(), err.Param()))
		case "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s characters", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// FromError maps a service error to an HTTP status and a caller-facing
// message. Unclassified errors get status 500 and the fallback message so
// internals never leak.
func FromError(err error, fallback string) (int, string) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest, errMsg(err)
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized, errMsg(err)
	case apperr.KindForbidden:
		return http.StatusForbidden, errMsg(err)
	case apperr.KindNotFound:
		return http.StatusNotFound, errMsg(err)
	case apperr.KindConflict:
		return http.StatusConflict, errMsg(err)
	default:
		return http.StatusInternalServerError, fallback
	}
}

func errMsg(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return err.Error()
}
