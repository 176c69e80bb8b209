// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Callers add context with github.com/pkg/errors and match
// with errors.Is.
var (
	// Header codec errors
	ErrTruncatedHeader  = errors.New("ipw: truncated header")
	ErrInvalidHeader    = errors.New("ipw: invalid header")
	ErrUnsupportedProto = errors.New("ipw: unsupported protocol")

	// Payload encoding errors
	ErrInvalidPayload = errors.New("ipw: invalid payload")

	// Address resolution errors
	ErrNoMatch = errors.New("ipw: frame does not match")
	ErrNoReply = errors.New("ipw: no reply received")

	// Host errors
	ErrNoInterface = errors.New("ipw: no usable interface")

	// Configuration errors
	ErrConfigInvalid = errors.New("ipw: invalid configuration")
)
