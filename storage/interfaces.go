package storage

import (
	"context"
	"time"

	"github.com/veldt-labs/curio/core"
)

// RecordStore persists embedding records partitioned by namespace.
// Implementations must be thread-safe and support concurrent access.
type RecordStore interface {
	// PutRecords upserts embedding records keyed by (namespace, chunk id).
	// Writing an existing key overwrites it; re-ingestion never duplicates.
	PutRecords(ctx context.Context, records ...*core.EmbeddingRecord) error

	// GetRecord retrieves a record by namespace and chunk id.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, namespace string, id core.ID) (*core.EmbeddingRecord, error)

	// DeleteRecords removes records by chunk id. Missing ids are ignored
	// so tombstone replays are safe.
	DeleteRecords(ctx context.Context, namespace string, ids ...core.ID) error

	// ForEachRecord calls fn for every record in the namespace. Iteration
	// stops on the first error from fn.
	ForEachRecord(ctx context.Context, namespace string, fn func(*core.EmbeddingRecord) error) error

	// RecordsSince returns records in the namespace indexed at or after
	// the given time, ordered by IndexedAt ascending.
	RecordsSince(ctx context.Context, namespace string, since time.Time) ([]*core.EmbeddingRecord, error)
}

// StateStore persists per-source-item processing state used for change
// detection and tombstone-and-replace.
type StateStore interface {
	// SaveSourceState persists the state for its (source, source id) pair,
	// overwriting any previous state.
	SaveSourceState(ctx context.Context, state *core.SourceState) error

	// GetSourceState returns the state for the pair, or nil when the item
	// has never been processed.
	GetSourceState(ctx context.Context, source core.SourceType, sourceID string) (*core.SourceState, error)

	// ForEachSourceState calls fn for every stored state of the source.
	ForEachSourceState(ctx context.Context, source core.SourceType, fn func(*core.SourceState) error) error

	// DeleteSourceState removes the state for the pair. Missing pairs are
	// ignored.
	DeleteSourceState(ctx context.Context, source core.SourceType, sourceID string) error
}

// DeadLetterStore persists failed pipeline work for scheduled retry.
type DeadLetterStore interface {
	// SaveEntry persists the entry keyed by (chunk id, stage),
	// overwriting any previous entry for that pair.
	SaveEntry(ctx context.Context, entry *core.DeadLetterEntry) error

	// GetEntry retrieves an entry by chunk id and stage.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID, stage core.Stage) (*core.DeadLetterEntry, error)

	// ListEntries returns all entries, ordered by chunk id.
	ListEntries(ctx context.Context) ([]*core.DeadLetterEntry, error)

	// DeleteEntry removes an entry. Missing entries are ignored.
	DeleteEntry(ctx context.Context, id core.ID, stage core.Stage) error

	// CountEntries returns the number of stored entries.
	CountEntries(ctx context.Context) (int, error)
}

// LedgerStore persists budget ledger snapshots per API.
type LedgerStore interface {
	// SaveLedger persists the snapshot for its API, overwriting any
	// previous one.
	SaveLedger(ctx context.Context, snapshot core.LedgerSnapshot) error

	// LoadLedger returns the persisted snapshot for the API, or nil when
	// none exists.
	LoadLedger(ctx context.Context, api string) (*core.LedgerSnapshot, error)
}

// TransactionManager executes a function within a storage transaction.
type TransactionManager interface {
	// WithTransaction executes fn within a transaction. If fn returns an
	// error, the transaction is rolled back; otherwise it is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
