package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrUpstream        = errors.New("upstream failure")
)

// UpstreamError carries the status an external collaborator answered with,
// so the transport can tell a rejected request from an unreachable service.
type UpstreamError struct {
	Service string
	Status  int
	Err     error
}

func (e *UpstreamError) Error() string { return e.Service + ": " + e.Err.Error() }

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstream, e.Err} }
