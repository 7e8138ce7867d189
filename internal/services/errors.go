package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ValidationError reports malformed or out-of-range input. Fields maps the
// field's name in the API (camelCase body field, or "path."/"query." for
// parameters) to what is wrong with it.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// orNil lets callers accumulate field errors and return nil when there are none.
func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// translate maps storage errors onto the service taxonomy. Uniqueness and
// foreign key violations are the last line of defence against racing
// requests and surface as conflicts.
func translate(err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &NotFoundError{Message: notFound}
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ConflictError{Message: conflict}
	}

	var (
		validation *ValidationError
		nf         *NotFoundError
		cf         *ConflictError
		authn      *AuthenticationError
		authz      *AuthorizationError
	)
	if errors.As(err, &validation) || errors.As(err, &nf) || errors.As(err, &cf) ||
		errors.As(err, &authn) || errors.As(err, &authz) {
		return err
	}
	return fmt.Errorf("storage: %w", err)
}
