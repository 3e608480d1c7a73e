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

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/veldt-labs/curio/ai"
	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/storage"
	"github.com/veldt-labs/curio/vector"
)

// Config holds configuration for one reembedding run.
type Config struct {
	// BatchSize is the number of records embedded per request.
	BatchSize int

	// ReportInterval is how often progress is reported (record count).
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates the vector of every indexed chunk, namespace by
// namespace. Used when switching embedding models: chunk text, summaries
// and metadata survive, only the vectors are replaced.
type Reembedder struct {
	records  storage.RecordStore
	embedder ai.Embedder
	config   *Config
	progress io.Writer
}

// NewReembedder creates a reembedder.
// progress: where to write progress output (typically os.Stderr).
func NewReembedder(records storage.RecordStore, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if records == nil {
		return nil, ErrRecordStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 || config.ReportInterval <= 0 || config.MaxRetries <= 0 {
		return nil, ErrInvalidConfig
	}

	return &Reembedder{
		records:  records,
		embedder: embedder,
		config:   config,
		progress: progress,
	}, nil
}

// Run reembeds every record in every namespace. Progress is reported to
// the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.countRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "index is empty, nothing to reembed\n")
		return nil
	}

	fmt.Fprintf(r.progress, "reembedding %d records (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	for _, source := range core.SourceTypes {
		err := r.eachBatch(ctx, source.Namespace(), func(batch []*core.EmbeddingRecord) error {
			if err := r.processBatch(ctx, batch); err != nil {
				return err
			}
			processed += len(batch)
			tracker.Update(processed)
			return nil
		})
		if err != nil {
			return fmt.Errorf("namespace %s: %w", source.Namespace(), err)
		}
	}

	tracker.Finish()
	return nil
}

// processBatch embeds the batch texts and writes the updated records
// back. Vectors are normalized for cosine similarity.
func (r *Reembedder) processBatch(ctx context.Context, batch []*core.EmbeddingRecord) error {
	texts := make([]string, len(batch))
	for i, record := range batch {
		texts[i] = record.Text
	}

	var embeddings [][]float32
	err := vector.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = r.embedder.EmbedTexts(ctx, texts)
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w",
			r.config.MaxRetries, err)
	}

	if len(embeddings) != len(batch) {
		return fmt.Errorf("%w: expected %d, got %d", ErrBatchMismatch, len(batch), len(embeddings))
	}

	for i, record := range batch {
		record.Vector = vector.Normalize(embeddings[i])
	}
	return r.records.PutRecords(ctx, batch...)
}

// eachBatch walks one namespace in batches of the configured size.
func (r *Reembedder) eachBatch(ctx context.Context, namespace string, fn func([]*core.EmbeddingRecord) error) error {
	batch := make([]*core.EmbeddingRecord, 0, r.config.BatchSize)

	err := r.records.ForEachRecord(ctx, namespace, func(record *core.EmbeddingRecord) error {
		batch = append(batch, record)
		if len(batch) == r.config.BatchSize {
			full := batch
			batch = make([]*core.EmbeddingRecord, 0, r.config.BatchSize)
			return fn(full)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

func (r *Reembedder) countRecords(ctx context.Context) (int, error) {
	total := 0
	for _, source := range core.SourceTypes {
		err := r.records.ForEachRecord(ctx, source.Namespace(), func(*core.EmbeddingRecord) error {
			total++
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
