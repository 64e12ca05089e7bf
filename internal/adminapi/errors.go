package adminapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("adminapi: not found")
	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("adminapi: unauthorized")
	// ErrUnavailable is returned while the circuit breaker rejects calls.
	ErrUnavailable = errors.New("adminapi: unavailable")
	// ErrNotAdmin is returned when a login succeeds for a non-admin account.
	ErrNotAdmin = errors.New("adminapi: access denied: admins only")
	// ErrEmptyID is returned when a resource id is empty.
	ErrEmptyID = errors.New("adminapi: empty id")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("adminapi: http %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("adminapi: http %d", e.Code)
}

// Is maps status codes onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	}
	return false
}

// Temporary reports whether the failure is on the server side.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}
