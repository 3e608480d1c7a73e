package detect

import "errors"

// ErrStateStoreRequired is returned when a state store is not provided.
var ErrStateStoreRequired = errors.New("state store required")
