// Package errors provides RFC 7807 Problem Details for HTTP APIs.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ProblemDetail represents an RFC 7807 Problem Details response.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`
	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`
	// Status is the HTTP status code for this occurrence.
	Status int `json:"status"`
	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`
	// Instance is a URI reference that identifies the specific occurrence.
	Instance string `json:"instance,omitempty"`
	// Extensions holds additional problem-specific properties.
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Error implements the error interface.
func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with an additional extension property.
// The receiver's extensions map is never mutated.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	extensions := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		extensions[k] = v
	}
	extensions[key] = value
	p.Extensions = extensions
	return p
}

// Common problem types as URI references.
const (
	TypeValidation   = "/problems/validation-error"
	TypeNotFound     = "/problems/not-found"
	TypeConflict     = "/problems/conflict"
	TypeInternal     = "/problems/internal-error"
	TypeUnauthorized = "/problems/unauthorized"
	TypeForbidden    = "/problems/forbidden"
	TypeBadRequest   = "/problems/bad-request"
	TypeInvalidState = "/problems/invalid-state"
	TypeRateLimited  = "/problems/rate-limited"
)

func template(problemType, title string, status int) ProblemDetail {
	return ProblemDetail{Type: problemType, Title: title, Status: status}
}

// Problem templates. Copy them with WithDetail or WithExtension before use.
var (
	ErrNotFound        = template(TypeNotFound, "Resource Not Found", http.StatusNotFound)
	ErrValidation      = template(TypeValidation, "Validation Error", http.StatusBadRequest)
	ErrBadRequest      = template(TypeBadRequest, "Bad Request", http.StatusBadRequest)
	ErrConflict        = template(TypeConflict, "Conflict", http.StatusConflict)
	ErrInternal        = template(TypeInternal, "Internal Server Error", http.StatusInternalServerError)
	ErrUnauthorized    = template(TypeUnauthorized, "Unauthorized", http.StatusUnauthorized)
	ErrForbidden       = template(TypeForbidden, "Forbidden", http.StatusForbidden)
	ErrInvalidState    = template(TypeInvalidState, "Invalid Order State", http.StatusConflict)
	ErrTooManyRequests = template(TypeRateLimited, "Too Many Requests", http.StatusTooManyRequests)
)

// NewValidationProblem creates a validation error with field-level details.
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrValidation.WithExtension("fields", fieldErrors)
}

// ValidationProblemFrom lists validator field errors under "fields". Other errors become the detail.
func ValidationProblemFrom(err error) ProblemDetail {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ErrValidation.WithDetail(err.Error())
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fmt.Sprintf("failed %q rule", fe.Tag())
	}
	return NewValidationProblem(fields).WithDetail("request failed validation")
}
