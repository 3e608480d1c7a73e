// Copyright 2026 Veldt Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"time"
)

// ValidateContentItem validates a ContentItem according to domain rules.
//
// Validation rules:
//   - SourceID must not be empty
//   - RawText must not be empty
//   - Source must be a known SourceType
//   - Timestamp must not be in the future
//   - ContentHash must be set (use NewContentItem)
//
// NOT validated:
//   - Author and URL (optional, source-dependent)
func ValidateContentItem(item *ContentItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidContentItem)
	}

	if item.SourceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, ErrEmptySourceID)
	}

	if item.RawText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, ErrEmptyText)
	}

	if err := ValidateSourceType(item.Source); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, err)
	}

	if !IsValidTimestamp(item.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, ErrInvalidTimestamp)
	}

	if item.ContentHash == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, ErrMissingContentHash)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - ID must be set (hash-derived, never zero for non-empty input)
//   - Text must not be empty
//   - SourceID must not be empty
//   - TokenCount must be positive
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.ID == 0 {
		return fmt.Errorf("%w: id not set", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.SourceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySourceID)
	}

	if chunk.TokenCount <= 0 {
		return fmt.Errorf("%w: token count must be positive", ErrInvalidChunk)
	}

	return nil
}

// ValidateSourceType validates that a SourceType has a known value.
func ValidateSourceType(source SourceType) error {
	switch source {
	case SourceSlack, SourceNotion, SourceDrive:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSourceType, source)
	}
}

// IsValidTimestamp returns true if the timestamp is not in the future.
// A small clock-skew allowance of one minute is tolerated.
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now().Add(time.Minute))
}
