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


package chunk

import "errors"

var (
	// ErrTokenizerRequired indicates no tokenizer was provided.
	ErrTokenizerRequired = errors.New("tokenizer is required")

	// ErrItemRequired indicates a nil item was provided.
	ErrItemRequired = errors.New("item is required")

	// ErrInvalidChunkSize indicates a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap indicates the overlap is negative or not smaller
	// than the chunk size.
	ErrInvalidOverlap = errors.New("overlap must be non-negative and smaller than chunk size")

	// ErrEncodingUnavailable indicates the token encoding could not be
	// loaded.
	ErrEncodingUnavailable = errors.New("token encoding unavailable")
)
