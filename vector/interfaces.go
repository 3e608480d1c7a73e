package vector

import (
	"context"
	"time"

	"github.com/veldt-labs/curio/core"
)

// Store is the vector index the pipeline writes to and queries read
// from. Implementations must be thread-safe.
type Store interface {
	// Upsert writes embedding records keyed by chunk id within their
	// namespace. Writing an existing id overwrites it, so replaying a
	// batch after a crash never duplicates.
	Upsert(ctx context.Context, records ...*core.EmbeddingRecord) error

	// Query returns the top matches for the vector within one namespace,
	// ordered by cosine similarity descending. Equal scores are broken by
	// content timestamp, newest first.
	Query(ctx context.Context, namespace string, vector []float32, limit int) ([]core.Match, error)

	// QueryAll fans the query out across all namespaces and merges the
	// per-namespace results into one ranked list.
	QueryAll(ctx context.Context, vector []float32, limit int) ([]core.Match, error)

	// Get returns one record by chunk id.
	Get(ctx context.Context, namespace string, id core.ID) (*core.EmbeddingRecord, error)

	// Delete removes records by chunk id. Missing ids are ignored.
	Delete(ctx context.Context, namespace string, ids ...core.ID) error

	// RecordsSince returns records indexed at or after the given time,
	// ordered by indexed-at ascending.
	RecordsSince(ctx context.Context, namespace string, since time.Time) ([]*core.EmbeddingRecord, error)
}
