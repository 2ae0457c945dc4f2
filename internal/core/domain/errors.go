package domain

import "errors"

var (
	// ErrTransport marks catalog failures below HTTP: network, timeout,
	// malformed body.
	ErrTransport = errors.New("catalog transport failure")

	// ErrServiceStatus marks a non-success status from the catalog.
	ErrServiceStatus = errors.New("catalog service failure")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrAuthUnavailable    = errors.New("auth service unavailable")
)

// FailureKind names the failure class of err for logs and metrics.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrServiceStatus):
		return "service"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}
