package handlers

import (
	"errors"
	"sort"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"github.com/gdg-garage/ecopoints-api/internal/services"
)

// humaError maps service errors onto HTTP problems. Anything outside the
// service taxonomy is logged and reported as a bare 500.
func humaError(log logrus.FieldLogger, err error) error {
	var (
		validation *services.ValidationError
		authn      *services.AuthenticationError
		authz      *services.AuthorizationError
		notFound   *services.NotFoundError
		conflict   *services.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		fields := make([]string, 0, len(validation.Fields))
		for field := range validation.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		details := make([]error, 0, len(fields))
		for _, field := range fields {
			details = append(details, &huma.ErrorDetail{
				Message:  validation.Fields[field],
				Location: fieldLocation(field),
			})
		}
		return huma.Error400BadRequest("validation failed", details...)
	case errors.As(err, &authn):
		return huma.Error401Unauthorized(authn.Message)
	case errors.As(err, &authz):
		return huma.Error403Forbidden(authz.Message)
	case errors.As(err, &notFound):
		return huma.Error404NotFound(notFound.Message)
	case errors.As(err, &conflict):
		return huma.Error409Conflict(conflict.Message)
	}

	log.WithError(err).Error("request failed")
	return huma.Error500InternalServerError("internal error")
}

// fieldLocation places a validation field in the request. Bare names are body
// fields; path and query parameters arrive already prefixed.
func fieldLocation(field string) string {
	if strings.Contains(field, ".") {
		return field
	}
	return "body." + field
}
