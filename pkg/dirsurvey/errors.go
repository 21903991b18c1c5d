package dirsurvey

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// FieldError is a single field-level validation message from the service.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when the service rejects request parameters
// (400/422) with field-level messages.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "dirsurvey: validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "dirsurvey: " + strings.Join(parts, "; ")
}

// NotFoundError is returned for a 404: the id is unknown or not visible to
// the caller.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dirsurvey: extrapolation %s not found", e.ID)
}

// AuthError is returned for a 401 that persists after the single
// refresh-and-retry.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return "dirsurvey: authentication failed"
	}
	return "dirsurvey: authentication failed: " + e.Detail
}

// PermissionError is returned for a 403.
type PermissionError struct {
	Detail string
}

func (e *PermissionError) Error() string {
	return "dirsurvey: permission denied: " + e.Detail
}

// ServerError is returned for any 5xx.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("dirsurvey: server error HTTP %d: %s", e.Status, e.Body)
}

// RequestError is returned for 4xx statuses not covered by a more specific
// type.
type RequestError struct {
	Status  int
	Details string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("dirsurvey: HTTP %d: %s", e.Status, e.Details)
}

// NetworkError wraps a transport failure where no HTTP response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "dirsurvey: network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the underlying failure was a network timeout.
func (e *NetworkError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsRetryable reports whether an error from this package is safe to retry:
// transport failures that never produced a response, and the transient server
// statuses (429, 502, 503, 504). Validation, auth, permission, and not-found
// failures are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		switch srvErr.Status {
		case 502, 503, 504:
			return true
		}
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Status == 429 {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"no such host",
		"temporary failure in name resolution",
		"tls handshake timeout",
		"i/o timeout",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
