package resolver

import "errors"

var (
	// ErrUnresolved is returned when no signal allowed resolution, including
	// an exhaustive scan finding nothing. Surfaced to callers as an
	// authentication failure; the scan is not retried because the data is
	// authoritative at read time.
	ErrUnresolved = errors.New("tenant unresolved")

	// ErrInvalidIdentifier is returned when a transport-level signal is
	// malformed, e.g. a non-numeric tenant ID header.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)
