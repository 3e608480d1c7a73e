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

package reembed

import "errors"

var (
	// ErrRecordStoreRequired indicates a nil record store.
	ErrRecordStoreRequired = errors.New("reembed: record store is required")

	// ErrEmbedderRequired indicates a nil embedder.
	ErrEmbedderRequired = errors.New("reembed: embedder is required")

	// ErrInvalidConfig indicates non-positive batch, interval or retry
	// settings.
	ErrInvalidConfig = errors.New("reembed: invalid configuration")

	// ErrBatchMismatch indicates the provider returned the wrong number
	// of embeddings for a batch.
	ErrBatchMismatch = errors.New("reembed: embedding count mismatch")
)
