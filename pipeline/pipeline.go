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

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/veldt-labs/curio/ai"
	"github.com/veldt-labs/curio/chunk"
	"github.com/veldt-labs/curio/connector"
	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/deadletter"
	"github.com/veldt-labs/curio/detect"
	"github.com/veldt-labs/curio/redact"
	"github.com/veldt-labs/curio/vector"
)

// MaxBatchSize caps the number of chunks sent in one embedding request.
const MaxBatchSize = 100

// Pipeline orchestrates one ingest cycle: poll every source, detect
// changes, redact, chunk, embed, summarize and upsert. Sources run
// concurrently on a worker pool; a failure in one source never stalls
// the others.
type Pipeline struct {
	connectors  []connector.Connector
	detector    *detect.Detector
	redactor    *redact.Redactor
	chunker     *chunk.Chunker
	embedder    *ai.MeteredEmbedder
	summarizer  *ai.MeteredSummarizer
	index       *vector.Index
	deadletters *deadletter.Handler
	pool        *ants.Pool
	batchSize   int
	maxRetries  int
	retryDelay  time.Duration
	now         func() time.Time
	logger      *slog.Logger

	mu       sync.Mutex
	lastPoll map[core.SourceType]time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent source
// processing. Default is one worker per connector.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets the embedding batch size.
// Values above MaxBatchSize are rejected.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 || size > MaxBatchSize {
			return ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithRetry sets the backoff policy for transient provider errors:
// maxAttempts per call, baseDelay doubling on each retry.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 || baseDelay < 0 {
			return ErrInvalidRetry
		}
		p.maxRetries = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now != nil {
			p.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingest pipeline over the given stages.
func NewPipeline(
	connectors []connector.Connector,
	detector *detect.Detector,
	redactor *redact.Redactor,
	chunker *chunk.Chunker,
	embedder *ai.MeteredEmbedder,
	summarizer *ai.MeteredSummarizer,
	index *vector.Index,
	deadletters *deadletter.Handler,
	opts ...Option,
) (*Pipeline, error) {
	if len(connectors) == 0 {
		return nil, ErrNoConnectors
	}
	if detector == nil || redactor == nil || chunker == nil {
		return nil, ErrStageRequired
	}
	if embedder == nil || summarizer == nil {
		return nil, ErrStageRequired
	}
	if index == nil || deadletters == nil {
		return nil, ErrStageRequired
	}

	pool, err := ants.NewPool(len(connectors))
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		connectors:  connectors,
		detector:    detector,
		redactor:    redactor,
		chunker:     chunker,
		embedder:    embedder,
		summarizer:  summarizer,
		index:       index,
		deadletters: deadletters,
		pool:        pool,
		batchSize:   MaxBatchSize,
		maxRetries:  3,
		retryDelay:  time.Second,
		now:         time.Now,
		logger:      slog.Default().With("component", "pipeline"),
		lastPoll:    make(map[core.SourceType]time.Time),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// RunCycle polls every source once and processes what changed. Sources
// run concurrently; per-source failures are collected and joined, never
// fatal to the other sources. The cycle is idempotent: re-running over
// unchanged content produces no new records.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	started := p.now().UTC()

	var wg sync.WaitGroup
	errs := make([]error, len(p.connectors))

	for i, conn := range p.connectors {
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.cycleSource(ctx, conn, started); err != nil {
				errs[i] = fmt.Errorf("source %s: %w", conn.Source(), err)
			}
		})
		if submitErr != nil {
			errs[i] = submitErr
			wg.Done()
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrCycleFailed, err)
	}

	p.logger.Info("ingest cycle complete", "sources", len(p.connectors),
		"duration", p.now().UTC().Sub(started))
	return nil
}

// ProcessDeadLetters replays every due dead-lettered chunk.
func (p *Pipeline) ProcessDeadLetters(ctx context.Context) error {
	return p.deadletters.ProcessDue(ctx, p)
}

// RetryDeadLetter replays one entry regardless of its schedule.
func (p *Pipeline) RetryDeadLetter(ctx context.Context, id core.ID, stage core.Stage) error {
	return p.deadletters.Retry(ctx, id, stage, p)
}

// Release releases the worker pool. The pipeline should not be used
// after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// cycleSource runs the full stage sequence for one connector.
func (p *Pipeline) cycleSource(ctx context.Context, conn connector.Connector, started time.Time) error {
	source := conn.Source()
	logger := p.logger.With("source", source)

	p.mu.Lock()
	since := p.lastPoll[source]
	p.mu.Unlock()

	items, err := conn.Poll(ctx, since)
	if err != nil {
		return err
	}

	processed, skipped := 0, 0
	var itemErrs []error
	for _, item := range items {
		ok, err := p.processItem(ctx, item, logger)
		if err != nil {
			itemErrs = append(itemErrs, fmt.Errorf("item %s: %w", item.SourceID, err))
			continue
		}
		if ok {
			processed++
		} else {
			skipped++
		}
	}

	if err := p.propagateDeletions(ctx, conn, logger); err != nil {
		itemErrs = append(itemErrs, err)
	}

	p.mu.Lock()
	p.lastPoll[source] = started
	p.mu.Unlock()

	logger.Info("source cycle complete",
		"polled", len(items), "processed", processed, "skipped", skipped,
		"failed", len(itemErrs))
	return errors.Join(itemErrs...)
}

// processItem runs one item through detect, redact, chunk, embed,
// summarize and upsert. The second return is false when the item was
// skipped as unchanged. Source state is committed only after every chunk
// has been upserted or dead-lettered, so a crash mid-item replays it on
// the next cycle.
func (p *Pipeline) processItem(ctx context.Context, item core.ContentItem, logger *slog.Logger) (bool, error) {
	change, previous, err := p.detector.Check(ctx, item)
	if err != nil {
		return false, err
	}
	if change == detect.ChangeUnchanged {
		return false, nil
	}

	// Fail closed: content that cannot be redacted never reaches the
	// chunker or the index.
	redacted, err := p.redactor.RedactItem(item)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrRedactionFailed, err)
	}

	chunks, err := p.chunker.Split(redacted)
	if err != nil {
		return false, err
	}

	chunkIDs := make([]core.ID, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = c.ID
	}

	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))
		if err := p.processBatch(ctx, chunks[start:end]); err != nil {
			return false, err
		}
	}

	// Tombstone chunks that no longer exist in the edited item.
	if change == detect.ChangeUpdated && previous != nil {
		if stale := staleChunkIDs(previous.ChunkIDs, chunkIDs); len(stale) > 0 {
			if err := p.index.Delete(ctx, item.Source.Namespace(), stale...); err != nil {
				return false, err
			}
			logger.Debug("tombstoned stale chunks", "item", item.SourceID, "count", len(stale))
		}
	}

	if err := p.detector.Commit(ctx, item, chunkIDs, p.now().UTC()); err != nil {
		return false, err
	}
	return true, nil
}

// processBatch embeds and summarizes one batch of chunks and upserts the
// results. Provider failures dead-letter the affected chunks instead of
// failing the batch.
func (p *Pipeline) processBatch(ctx context.Context, chunks []core.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var vectors [][]float32
	err := p.retryTransient(ctx, func() error {
		var embedErr error
		vectors, embedErr = p.embedder.EmbedTexts(ctx, texts)
		return embedErr
	})
	if err != nil {
		for _, c := range chunks {
			if dlErr := p.deadletters.Record(ctx, c, core.StageEmbed, err); dlErr != nil {
				return dlErr
			}
		}
		p.logger.Warn("embedding batch dead-lettered", "chunks", len(chunks), "error", err)
		return nil
	}

	records := make([]*core.EmbeddingRecord, 0, len(chunks))
	for i, c := range chunks {
		var summary string
		err := p.retryTransient(ctx, func() error {
			var sumErr error
			summary, sumErr = p.summarizer.Summarize(ctx, c.Text)
			return sumErr
		})
		if err != nil {
			// The record is still upserted without a summary; the
			// replay fills it in.
			if dlErr := p.deadletters.Record(ctx, c, core.StageSummarize, err); dlErr != nil {
				return dlErr
			}
			summary = ""
		}
		records = append(records, newRecord(c, vectors[i], summary, p.now().UTC()))
	}

	return p.index.Upsert(ctx, records...)
}

// retryTransient retries op with exponential backoff while the error is
// transient (rate limits, timeouts). Permanent errors, budget exhaustion
// included, stop the retry loop immediately.
func (p *Pipeline) retryTransient(ctx context.Context, op func() error) error {
	var permanent error
	err := vector.RetryWithBackoff(ctx, func() error {
		err := op()
		if err != nil && !ai.IsRetryable(err) {
			permanent = err
			return nil
		}
		return err
	}, p.maxRetries, p.retryDelay)
	if permanent != nil {
		return permanent
	}
	return err
}

// propagateDeletions tombstones every item the source no longer has.
func (p *Pipeline) propagateDeletions(ctx context.Context, conn connector.Connector, logger *slog.Logger) error {
	liveIDs, err := conn.LiveIDs(ctx)
	if err != nil {
		return err
	}

	deleted, err := p.detector.Deleted(ctx, conn.Source(), liveIDs)
	if err != nil {
		return err
	}

	for _, state := range deleted {
		if len(state.ChunkIDs) > 0 {
			if err := p.index.Delete(ctx, state.Source.Namespace(), state.ChunkIDs...); err != nil {
				return err
			}
		}
		if err := p.detector.Forget(ctx, state.Source, state.SourceID); err != nil {
			return err
		}
		logger.Info("deleted item tombstoned", "item", state.SourceID, "chunks", len(state.ChunkIDs))
	}
	return nil
}

// newRecord builds the persisted record for one embedded chunk.
func newRecord(c core.Chunk, vec []float32, summary string, indexedAt time.Time) *core.EmbeddingRecord {
	return &core.EmbeddingRecord{
		ChunkID:   c.ID,
		Vector:    vec,
		Summary:   summary,
		Namespace: c.Source.Namespace(),
		Text:      c.Text,
		Source:    c.Source,
		SourceID:  c.SourceID,
		Author:    c.Author,
		Timestamp: c.Timestamp,
		URL:       c.URL,
		IndexedAt: indexedAt,
	}
}

// staleChunkIDs returns the previous ids absent from the current set.
func staleChunkIDs(previous, current []core.ID) []core.ID {
	live := make(map[core.ID]struct{}, len(current))
	for _, id := range current {
		live[id] = struct{}{}
	}

	var stale []core.ID
	for _, id := range previous {
		if _, ok := live[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}
