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

package query

import (
	"errors"

	"github.com/veldt-labs/curio/ai"
)

var (
	// ErrIndexRequired indicates a nil vector index.
	ErrIndexRequired = errors.New("query: vector index is required")

	// ErrProviderRequired indicates a nil embedder or summarizer.
	ErrProviderRequired = errors.New("query: embedder and summarizer are required")

	// ErrEmptyQuestion indicates an empty question.
	ErrEmptyQuestion = errors.New("query: question is empty")

	// ErrInvalidTopK indicates a non-positive topK.
	ErrInvalidTopK = errors.New("query: topK must be positive")

	// ErrInvalidTimeout indicates a non-positive timeout.
	ErrInvalidTimeout = errors.New("query: timeout must be positive")

	// ErrInvalidThreshold indicates a cluster threshold outside (0, 1).
	ErrInvalidThreshold = errors.New("query: cluster threshold must be in (0, 1)")

	// ErrInvalidWindow indicates a non-positive digest window.
	ErrInvalidWindow = errors.New("query: digest window must be positive")

	// ErrQueryTimeout indicates the per-request deadline expired before
	// an answer could be produced. Safe to retry.
	ErrQueryTimeout = errors.New("query: request timed out")
)

// IsRetryable reports whether the failure is transient and the caller
// should try the question again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrQueryTimeout) || ai.IsRetryable(err)
}
