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


package deadletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/storage"
)

// MaxRetries is the number of scheduled retries before an entry is
// parked for manual review.
const MaxRetries = 2

// retryDelays holds the wait before retry attempt n+1.
var retryDelays = [MaxRetries]time.Duration{5 * time.Minute, 15 * time.Minute}

// Processor replays the failed stage for one dead-lettered chunk.
// Implemented by the ingestion pipeline.
type Processor interface {
	// Replay re-runs the entry's stage with its stored chunk payload.
	// A nil return means the work completed and the entry can be
	// discarded.
	Replay(ctx context.Context, entry *core.DeadLetterEntry) error
}

// DepthAlertFunc is invoked when the queue depth reaches the configured
// threshold. It must not block.
type DepthAlertFunc func(depth int)

// Handler owns the dead letter queue: recording failures, scheduling
// retries with growing delays, and parking exhausted entries for manual
// review. Failed work never stalls the rest of a pipeline cycle.
type Handler struct {
	store          storage.DeadLetterStore
	now            func() time.Time
	depthThreshold int
	depthAlert     DepthAlertFunc
	logger         *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler) error

// WithDepthAlert sets a hook fired when the queue depth reaches
// threshold after a new failure is recorded.
func WithDepthAlert(threshold int, fn DepthAlertFunc) Option {
	return func(h *Handler) error {
		if threshold <= 0 {
			return ErrInvalidThreshold
		}
		h.depthThreshold = threshold
		h.depthAlert = fn
		return nil
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) error {
		if now == nil {
			return ErrNilClock
		}
		h.now = now
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) error {
		if logger == nil {
			logger = slog.Default()
		}
		h.logger = logger
		return nil
	}
}

// NewHandler creates a dead letter handler over the store.
func NewHandler(store storage.DeadLetterStore, opts ...Option) (*Handler, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	h := &Handler{
		store:  store,
		now:    time.Now,
		logger: slog.Default().With("component", "deadletter"),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Record stores a fresh stage failure and schedules its first retry.
// Recording the same (chunk, stage) again before the retry runs just
// refreshes the error, it never burns a retry attempt.
func (h *Handler) Record(ctx context.Context, chunk core.Chunk, stage core.Stage, cause error) error {
	now := h.now().UTC()

	entry, err := h.store.GetEntry(ctx, chunk.ID, stage)
	if errors.Is(err, storage.ErrNotFound) {
		entry = &core.DeadLetterEntry{
			ChunkID:      chunk.ID,
			Stage:        stage,
			State:        core.DeadLetterFailed,
			AttemptCount: 0,
			NextRetryAt:  now.Add(retryDelays[0]),
			Chunk:        chunk,
			CreatedAt:    now,
		}
	} else if err != nil {
		return err
	}

	entry.LastError = cause.Error()
	entry.UpdatedAt = now
	if err := h.store.SaveEntry(ctx, entry); err != nil {
		return err
	}

	h.logger.Warn("stage failure dead-lettered",
		"chunk_id", chunk.ID,
		"stage", stage.String(),
		"next_retry_at", entry.NextRetryAt,
		"err", cause)

	h.checkDepth(ctx)
	return nil
}

// Due returns entries whose retry is due at the given time, oldest
// schedule first. Entries parked for manual review are never due.
func (h *Handler) Due(ctx context.Context, now time.Time) ([]*core.DeadLetterEntry, error) {
	entries, err := h.store.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	due := entries[:0]
	for _, entry := range entries {
		if entry.State == core.DeadLetterManualReview {
			continue
		}
		if !entry.NextRetryAt.After(now) {
			due = append(due, entry)
		}
	}
	return due, nil
}

// ProcessDue replays every due entry. A successful replay discards the
// entry; a failed one escalates it. Errors from individual entries are
// logged, not returned, so one poisoned chunk can't block the queue.
func (h *Handler) ProcessDue(ctx context.Context, processor Processor) error {
	if processor == nil {
		return ErrProcessorRequired
	}

	due, err := h.Due(ctx, h.now().UTC())
	if err != nil {
		return err
	}

	for _, entry := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.retry(ctx, entry, processor); err != nil {
			h.logger.Error("dead letter retry bookkeeping failed",
				"chunk_id", entry.ChunkID, "err", err)
		}
	}
	return nil
}

// Retry replays one entry immediately, regardless of its schedule.
// Used by operators after fixing the underlying cause.
func (h *Handler) Retry(ctx context.Context, id core.ID, stage core.Stage, processor Processor) error {
	if processor == nil {
		return ErrProcessorRequired
	}

	entry, err := h.store.GetEntry(ctx, id, stage)
	if err != nil {
		return err
	}
	return h.retry(ctx, entry, processor)
}

// List returns all queue entries.
func (h *Handler) List(ctx context.Context) ([]*core.DeadLetterEntry, error) {
	return h.store.ListEntries(ctx)
}

// Depth returns the current queue depth.
func (h *Handler) Depth(ctx context.Context) (int, error) {
	return h.store.CountEntries(ctx)
}

// retry replays one entry and applies the outcome: discard on success,
// escalate on failure.
func (h *Handler) retry(ctx context.Context, entry *core.DeadLetterEntry, processor Processor) error {
	replayErr := processor.Replay(ctx, entry)
	if replayErr == nil {
		h.logger.Info("dead letter replay succeeded",
			"chunk_id", entry.ChunkID, "stage", entry.Stage.String(),
			"attempt", entry.AttemptCount+1)
		return h.store.DeleteEntry(ctx, entry.ChunkID, entry.Stage)
	}

	now := h.now().UTC()
	entry.AttemptCount++
	entry.LastError = replayErr.Error()
	entry.UpdatedAt = now

	if entry.AttemptCount >= MaxRetries {
		entry.State = core.DeadLetterManualReview
		entry.NextRetryAt = time.Time{}
		h.logger.Error("dead letter retries exhausted, parked for manual review",
			"chunk_id", entry.ChunkID, "stage", entry.Stage.String(), "err", replayErr)
	} else {
		entry.State = core.DeadLetterRetrying
		entry.NextRetryAt = now.Add(retryDelays[entry.AttemptCount])
		h.logger.Warn("dead letter replay failed, rescheduled",
			"chunk_id", entry.ChunkID, "stage", entry.Stage.String(),
			"attempt", entry.AttemptCount, "next_retry_at", entry.NextRetryAt, "err", replayErr)
	}

	if err := h.store.SaveEntry(ctx, entry); err != nil {
		return fmt.Errorf("saving escalated entry: %w", err)
	}
	return nil
}

// checkDepth fires the depth alert when the queue has grown to the
// threshold.
func (h *Handler) checkDepth(ctx context.Context) {
	if h.depthAlert == nil {
		return
	}
	depth, err := h.store.CountEntries(ctx)
	if err != nil {
		h.logger.Error("failed to count dead letter entries", "err", err)
		return
	}
	if depth >= h.depthThreshold {
		h.logger.Warn("dead letter queue depth at threshold",
			"depth", depth, "threshold", h.depthThreshold)
		h.depthAlert(depth)
	}
}
