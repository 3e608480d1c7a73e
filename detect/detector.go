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


package detect

import (
	"context"
	"log/slog"
	"time"

	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/storage"
)

// Change classifies a polled item against its stored processing state.
type Change int

const (
	// ChangeNew means the item has never been processed.
	ChangeNew Change = iota + 1
	// ChangeUpdated means the item was processed before with different
	// content.
	ChangeUpdated
	// ChangeUnchanged means the stored content hash matches; the item
	// must be skipped without touching any external API.
	ChangeUnchanged
)

// String returns the change classification name.
func (c Change) String() string {
	switch c {
	case ChangeNew:
		return "new"
	case ChangeUpdated:
		return "updated"
	case ChangeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Detector decides, per polled item, whether downstream processing is
// needed. State is committed only after the item's chunks are safely in
// the index, so a crash between the two replays the item rather than
// losing it.
type Detector struct {
	states storage.StateStore
	logger *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDetector creates a change detector over the state store.
func NewDetector(states storage.StateStore, opts ...Option) (*Detector, error) {
	if states == nil {
		return nil, ErrStateStoreRequired
	}

	d := &Detector{
		states: states,
		logger: slog.Default().With("component", "detect"),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Check classifies the item. For updated items the returned previous
// state carries the chunk ids the old content produced, so the caller
// can tombstone them after the replacement lands.
func (d *Detector) Check(ctx context.Context, item core.ContentItem) (Change, *core.SourceState, error) {
	if err := core.ValidateContentItem(&item); err != nil {
		return 0, nil, err
	}

	previous, err := d.states.GetSourceState(ctx, item.Source, item.SourceID)
	if err != nil {
		return 0, nil, err
	}
	if previous == nil {
		return ChangeNew, nil, nil
	}
	if previous.ContentHash == item.ContentHash {
		d.logger.Debug("item unchanged, skipping",
			"source", item.Source, "source_id", item.SourceID)
		return ChangeUnchanged, previous, nil
	}
	return ChangeUpdated, previous, nil
}

// Commit records that the item's current content is fully indexed under
// the given chunk ids. Call only after the upsert (or dead-lettering of
// its failures) has completed.
func (d *Detector) Commit(ctx context.Context, item core.ContentItem, chunkIDs []core.ID, processedAt time.Time) error {
	return d.states.SaveSourceState(ctx, &core.SourceState{
		Source:      item.Source,
		SourceID:    item.SourceID,
		ContentHash: item.ContentHash,
		ChunkIDs:    chunkIDs,
		ProcessedAt: processedAt.UTC(),
	})
}

// Deleted returns the stored states of items the source no longer has,
// given the full set of source ids currently live upstream. Their chunks
// must be tombstoned and the states dropped.
func (d *Detector) Deleted(ctx context.Context, source core.SourceType, liveIDs []string) ([]*core.SourceState, error) {
	live := make(map[string]struct{}, len(liveIDs))
	for _, id := range liveIDs {
		live[id] = struct{}{}
	}

	var deleted []*core.SourceState
	err := d.states.ForEachSourceState(ctx, source, func(state *core.SourceState) error {
		if _, ok := live[state.SourceID]; !ok {
			deleted = append(deleted, state)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Forget drops the stored state for an item, after its chunks have been
// tombstoned.
func (d *Detector) Forget(ctx context.Context, source core.SourceType, sourceID string) error {
	return d.states.DeleteSourceState(ctx, source, sourceID)
}
