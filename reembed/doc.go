// Package reembed regenerates the vectors of all indexed chunks in
// batches, for migrating the index to a new embedding model without
// re-ingesting the sources.
package reembed
