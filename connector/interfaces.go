package connector

import (
	"context"
	"time"

	"github.com/veldt-labs/curio/core"
)

// Connector pulls content items from one external knowledge source.
// Implementations must be thread-safe.
type Connector interface {
	// Source returns the source type this connector serves.
	Source() core.SourceType

	// Poll returns the items created or modified at or after since.
	// Items carry raw text; nothing downstream of the redactor ever
	// sees it.
	Poll(ctx context.Context, since time.Time) ([]core.ContentItem, error)

	// LiveIDs enumerates the source ids of every item currently live
	// upstream. The pipeline diffs the result against stored state to
	// propagate upstream deletions.
	LiveIDs(ctx context.Context) ([]string, error)
}
