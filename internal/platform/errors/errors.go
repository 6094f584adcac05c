package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrNoCredential = errors.New("no credential: authenticate first")
	ErrUnauthorized = errors.New("unauthorized")
	ErrSuperseded   = errors.New("request superseded by a newer one")
	ErrCacheMiss    = errors.New("cache miss")
)

// NetworkError means no transport strategy produced a response.
type NetworkError struct {
	Target   string
	Attempts []error
}

func (e *NetworkError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("network error: %s", e.Target)
	}
	msgs := make([]string, 0, len(e.Attempts))
	for _, err := range e.Attempts {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("network error: %s: %s", e.Target, strings.Join(msgs, "; "))
}

func (e *NetworkError) Unwrap() []error { return e.Attempts }

// ProtocolError means a response arrived but was not usable.
type ProtocolError struct {
	Target string
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %s: %v", e.Target, e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol error: %s: %s", e.Target, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// APIError is a non-success status from a resource endpoint other than 401.
type APIError struct {
	Status   int
	Endpoint string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Endpoint)
}

// AuthError is a rejection from the identity endpoint. Message is already
// human readable.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string { return e.Message }
