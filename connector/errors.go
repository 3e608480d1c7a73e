package connector

import "errors"

var (
	// ErrMissingToken indicates no API credential was configured.
	ErrMissingToken = errors.New("source API token required")

	// ErrNoChannels indicates a Slack connector with no channels to poll.
	ErrNoChannels = errors.New("at least one channel id required")

	// ErrPollFailed indicates a source poll failed.
	ErrPollFailed = errors.New("source poll failed")
)
