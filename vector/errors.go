package vector

import "errors"

var (
	// ErrRecordStoreRequired is returned when a record store is not provided.
	ErrRecordStoreRequired = errors.New("record store required")

	// ErrInvalidVector indicates an empty or zero query vector.
	ErrInvalidVector = errors.New("invalid query vector")

	// ErrInvalidLimit indicates a non-positive result limit.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
