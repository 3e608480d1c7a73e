package redact

import "errors"

var (
	// ErrRedactionFailed indicates the redactor could not process an item.
	// The item must be held back, never forwarded unredacted.
	ErrRedactionFailed = errors.New("redaction failed")

	// ErrInvalidPattern indicates a configured pattern failed to compile.
	ErrInvalidPattern = errors.New("invalid redaction pattern")
)
