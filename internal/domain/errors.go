package domain

import "errors"

var (
	// ErrUnresponsive is returned when the daemon did not answer before the call deadline
	ErrUnresponsive = errors.New("backend unresponsive")

	// ErrProtocol is returned when a reply cannot be decoded
	ErrProtocol = errors.New("protocol error")

	// ErrUnknownBackend is returned for a backend name outside the supported set
	ErrUnknownBackend = errors.New("unknown backend")
)
