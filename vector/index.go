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


package vector

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/storage"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 100 * time.Millisecond
)

// Index implements Store over a storage.RecordStore. Namespaces map
// one-to-one to source types; ranking is a full scan per namespace with
// cosine scoring.
type Index struct {
	records     storage.RecordStore
	minScore    float32
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

var _ Store = (*Index)(nil)

// Option configures an Index.
type Option func(*Index) error

// WithMinScore filters query results below the similarity threshold.
// Default is 0: every record ranks.
func WithMinScore(min float32) Option {
	return func(i *Index) error {
		i.minScore = min
		return nil
	}
}

// WithRetry sets the write retry policy.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(i *Index) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		i.maxAttempts = maxAttempts
		i.baseDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// NewIndex creates a vector index over the record store.
func NewIndex(records storage.RecordStore, opts ...Option) (*Index, error) {
	if records == nil {
		return nil, ErrRecordStoreRequired
	}

	i := &Index{
		records:     records,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		logger:      slog.Default().With("component", "vector-index"),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// Upsert writes records keyed by chunk id, retrying transient storage
// failures with backoff.
func (i *Index) Upsert(ctx context.Context, records ...*core.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	err := RetryWithBackoff(ctx, func() error {
		return i.records.PutRecords(ctx, records...)
	}, i.maxAttempts, i.baseDelay)
	if err != nil {
		i.logger.Error("upsert failed", "count", len(records), "err", err)
		return err
	}

	i.logger.Debug("records upserted", "count", len(records))
	return nil
}

// Query returns the top matches within one namespace, ordered by cosine
// similarity descending with newest-first timestamp tie-break.
func (i *Index) Query(ctx context.Context, namespace string, vector []float32, limit int) ([]core.Match, error) {
	if len(vector) == 0 {
		return nil, ErrInvalidVector
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	var matches []core.Match
	err := i.records.ForEachRecord(ctx, namespace, func(record *core.EmbeddingRecord) error {
		if len(record.Vector) == 0 {
			return nil
		}
		score := CosineSimilarity(vector, record.Vector)
		if score >= i.minScore {
			matches = append(matches, core.Match{Record: record, Score: score})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rankMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// QueryAll fans the query out across all source namespaces and merges
// the results into one ranked list.
func (i *Index) QueryAll(ctx context.Context, vector []float32, limit int) ([]core.Match, error) {
	if len(vector) == 0 {
		return nil, ErrInvalidVector
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	var merged []core.Match
	for _, source := range core.SourceTypes {
		matches, err := i.Query(ctx, source.Namespace(), vector, limit)
		if err != nil {
			return nil, err
		}
		merged = append(merged, matches...)
	}

	rankMatches(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// Get returns one record by chunk id, or storage.ErrNotFound.
func (i *Index) Get(ctx context.Context, namespace string, id core.ID) (*core.EmbeddingRecord, error) {
	return i.records.GetRecord(ctx, namespace, id)
}

// Delete removes records by chunk id, retrying transient storage
// failures with backoff.
func (i *Index) Delete(ctx context.Context, namespace string, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}

	return RetryWithBackoff(ctx, func() error {
		return i.records.DeleteRecords(ctx, namespace, ids...)
	}, i.maxAttempts, i.baseDelay)
}

// RecordsSince returns records indexed at or after the given time.
func (i *Index) RecordsSince(ctx context.Context, namespace string, since time.Time) ([]*core.EmbeddingRecord, error) {
	return i.records.RecordsSince(ctx, namespace, since)
}

// rankMatches sorts by score descending; equal scores rank the newer
// content first.
func rankMatches(matches []core.Match) {
	slices.SortFunc(matches, func(a, b core.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Record.Timestamp.After(b.Record.Timestamp) {
			return -1
		}
		if a.Record.Timestamp.Before(b.Record.Timestamp) {
			return 1
		}
		return 0
	})
}
