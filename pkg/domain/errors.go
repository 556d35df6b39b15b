package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error taxonomy for the enhancement engine.
var (
	ErrValidation           = errors.New("invalid transformation request")
	ErrCredential           = errors.New("credential unavailable")
	ErrUnauthorized         = errors.New("remote service rejected credential")
	ErrRemoteService        = errors.New("remote service error")
	ErrRemoteContentInvalid = errors.New("remote content failed structural check")
	ErrFallbackExhausted    = errors.New("local fallback failed")
	ErrRegistryInvalid      = errors.New("invalid registry")
	ErrRemoteUnavailable    = errors.New("remote service unavailable")
)

// DomainError wraps errors with a machine-readable code.
//
//nolint:revive // Name is intentionally verbose to distinguish domain-layer errors
type DomainError struct {
	Err     error
	Code    string
	Message string
	Details map[string]any
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the code, message and details; the wrapped chain is
// flattened into the message.
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	}{
		Code:    ErrorCode(e),
		Message: e.Error(),
		Details: e.Details,
	})
}

// ValidationError reports a malformed transformation request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// RemoteServiceError is a non-2xx answer from the completion endpoint.
type RemoteServiceError struct {
	StatusCode int
	Body       string
}

func (e *RemoteServiceError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote service returned status %d: %s", e.StatusCode, e.Body)
}

// Unwrap exposes ErrUnauthorized for 401 answers so callers can invalidate credentials.
func (e *RemoteServiceError) Unwrap() []error {
	if e.StatusCode == 401 {
		return []error{ErrRemoteService, ErrUnauthorized}
	}
	return []error{ErrRemoteService}
}

// ErrorCode maps an error onto the stable code used in documentation and JSON output.
func ErrorCode(err error) string {
	var de *DomainError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &de) && de.Code != "":
		return de.Code
	case errors.Is(err, ErrValidation):
		return "VALIDATION_FAILED"
	case errors.Is(err, ErrCredential):
		return "CREDENTIAL_UNAVAILABLE"
	case errors.Is(err, ErrUnauthorized):
		return "REMOTE_UNAUTHORIZED"
	case errors.Is(err, ErrRemoteService):
		return "REMOTE_FAILED"
	case errors.Is(err, ErrRemoteContentInvalid):
		return "REMOTE_CONTENT_INVALID"
	case errors.Is(err, ErrRemoteUnavailable):
		return "REMOTE_UNAVAILABLE"
	case errors.Is(err, ErrFallbackExhausted):
		return "FALLBACK_FAILED"
	default:
		return "INTERNAL"
	}
}
