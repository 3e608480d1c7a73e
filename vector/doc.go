// Package vector provides the namespaced vector index the pipeline
// writes embedding records to and queries read from.
//
// Upserts are idempotent by chunk id. Queries rank by cosine similarity
// with a newest-first timestamp tie-break, and can fan out across all
// source namespaces.
package vector
