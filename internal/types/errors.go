package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across services and repositories. Handlers map
// these onto HTTP status codes in one place.
var (
	ErrNotFound        = errors.New("requested resource not found")
	ErrConflict        = errors.New("resource already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrValidation      = errors.New("validation failed")
	ErrInternal        = errors.New("internal server error")
)

// Token verification failures. All three map to 401, but callers log them
// distinctly and tests assert on the exact failure mode.
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenWrongType = errors.New("wrong token type")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors aggregates field-level failures for a 400 response.
// It wraps ErrValidation so errors.Is still works at the handler level.
type ValidationErrors struct {
	Fields []FieldError
}

func (v *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v *ValidationErrors) Unwrap() error { return ErrValidation }

// Add appends a field failure and returns the receiver for chaining.
func (v *ValidationErrors) Add(field, message string) *ValidationErrors {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
	return v
}

// HasErrors reports whether any field failed validation.
func (v *ValidationErrors) HasErrors() bool { return len(v.Fields) > 0 }
