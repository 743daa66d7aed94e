// Package apperr holds the sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoSession    = errors.New("no active session")

	// ErrTransport covers unreachable endpoints and non-2xx responses.
	ErrTransport = errors.New("remote transport failure")
	// ErrProtocol covers unparseable bodies and a status other than "success".
	ErrProtocol = errors.New("remote protocol failure")
	// ErrDisabled is returned when no http(s) endpoint is configured.
	ErrDisabled = errors.New("remote endpoint disabled")

	ErrAnalysisFailed = errors.New("image analysis failed")
)

// Remote reports whether err is any of the remote gateway failures.
// Callers that must not distinguish failure kinds use this single check.
func Remote(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrProtocol) || errors.Is(err, ErrDisabled)
}
