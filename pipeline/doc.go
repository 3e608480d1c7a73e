// Package pipeline orchestrates ingest cycles: polling sources,
// detecting changes, redacting, chunking, embedding and upserting into
// the vector index. Provider failures are parked in the dead letter
// queue and replayed by the same pipeline.
//
// A cycle is idempotent: chunk ids derive from content, re-ingesting
// unchanged items produces no new records, and source state is committed
// only after the item's chunks are safely indexed or dead-lettered.
package pipeline
