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

import "errors"

// Domain validation errors
var (
	// ErrInvalidContentItem indicates a ContentItem failed validation.
	ErrInvalidContentItem = errors.New("invalid content item")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidSourceType indicates an unknown SourceType value.
	ErrInvalidSourceType = errors.New("invalid source type")

	// ErrEmptyText indicates the text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptySourceID indicates the SourceID field is empty.
	ErrEmptySourceID = errors.New("source id cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrMissingContentHash indicates a ContentItem without a content hash.
	ErrMissingContentHash = errors.New("content hash not set")
)
