// Package apierror converts scheduler error responses into typed errors.
//
// Every non-2xx response becomes either a *DomainError (one message not
// attributable to a field) or a *ValidationError (field location to message).
// Both carry the HTTP status of the response.
package apierror

import (
	"fmt"
	"maps"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrorKey is the reserved error map key for messages not tied to a field
const ErrorKey = "__ERROR__"

// DomainError is a failure that is not attributable to a specific field
type DomainError struct {
	Status  int
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// ValidationError maps field locations to messages
type ValidationError struct {
	Status int
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// StatusCode returns the HTTP status carried by err, or 0 when err does not
// originate from a scheduler response
func StatusCode(err error) int {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Status
	}

	return 0
}

// ToErrorMap flattens err into the map shape used for rendering.
// Field errors keep their locations, everything else is stored under ErrorKey.
func ToErrorMap(err error) map[string]string {
	if err == nil {
		return nil
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return maps.Clone(validationErr.Fields)
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return map[string]string{ErrorKey: domainErr.Message}
	}

	return map[string]string{ErrorKey: err.Error()}
}

// HTTPStatus picks the status the console API should answer with for err
func HTTPStatus(err error) int {
	if status := StatusCode(err); status >= 400 {
		return status
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusBadGateway
}
