package deadletter

import "errors"

var (
	// ErrStoreRequired is returned when a dead letter store is not provided.
	ErrStoreRequired = errors.New("dead letter store required")

	// ErrProcessorRequired is returned when a replay processor is not provided.
	ErrProcessorRequired = errors.New("processor required")

	// ErrInvalidThreshold indicates a non-positive depth alert threshold.
	ErrInvalidThreshold = errors.New("depth threshold must be positive")

	// ErrNilClock indicates a nil time source was supplied.
	ErrNilClock = errors.New("clock must not be nil")
)
