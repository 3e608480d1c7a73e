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

package pipeline

import "errors"

var (
	// ErrNoConnectors indicates the pipeline was built without sources.
	ErrNoConnectors = errors.New("pipeline: at least one connector is required")

	// ErrStageRequired indicates a nil stage dependency.
	ErrStageRequired = errors.New("pipeline: all stage dependencies are required")

	// ErrInvalidBatchSize indicates a batch size outside [1, MaxBatchSize].
	ErrInvalidBatchSize = errors.New("pipeline: invalid batch size")

	// ErrInvalidRetry indicates a non-positive retry attempt count or a
	// negative base delay.
	ErrInvalidRetry = errors.New("pipeline: invalid retry policy")

	// ErrCycleFailed wraps per-source failures from one cycle.
	ErrCycleFailed = errors.New("pipeline: ingest cycle failed")

	// ErrRedactionFailed indicates content was dropped because redaction
	// could not complete.
	ErrRedactionFailed = errors.New("pipeline: redaction failed")

	// ErrUnknownStage indicates a dead letter entry with an
	// unrecognized stage.
	ErrUnknownStage = errors.New("pipeline: unknown stage")
)
