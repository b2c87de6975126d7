package watchtower

import "errors"

var (
	// Transport failure, timeout or unexpected status
	ErrUnavailable = errors.New("watchtower unavailable")

	// Request reached the gateway and got refused
	ErrRejected = errors.New("rejected by watchtower")

	ErrFailedToParse  = errors.New("failed to parse watchtower response")
	ErrUnknownNetwork = errors.New("no watchtower configured for network")
)
