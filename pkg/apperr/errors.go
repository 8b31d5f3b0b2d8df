// Package apperr holds the error taxonomy shared by every client layer.
//
// Callers compare with errors.Is against the sentinel kinds:
//
//	if errors.Is(err, apperr.ErrAuth) { ... }
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuth covers bad credentials and expired or invalid sessions.
	ErrAuth = errors.New("authentication failed")
	// ErrValidation covers rejected input such as a duplicate email or username.
	ErrValidation = errors.New("validation failed")
	// ErrNetwork covers an unreachable service or a broken transport.
	ErrNetwork = errors.New("network error")
	// ErrNotFound covers stale references to spots that no longer exist.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx answer from the remote service.
type APIError struct {
	Status int
	Detail string
	Kind   error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Unwrap exposes the error kind so errors.Is works against the sentinels.
func (e *APIError) Unwrap() error {
	return e.Kind
}

// KindForStatus maps an HTTP status code onto the taxonomy.
func KindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// FromStatus builds an APIError for the given status and detail message.
func FromStatus(status int, detail string) *APIError {
	return &APIError{
		Status: status,
		Detail: detail,
		Kind:   KindForStatus(status),
	}
}

// Network wraps a transport failure.
func Network(err error) error {
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// IsUnauthorized reports whether err is a 401 from the remote service.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
