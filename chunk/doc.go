// Package chunk splits redacted content into bounded token-length
// segments with overlap for embedding.
//
// Chunk boundaries are deterministic: re-chunking identical text yields
// identical segments and identical chunk IDs, so re-ingestion after a
// crash never produces duplicates downstream. Boundaries prefer sentence
// and paragraph ends when one falls in the tail half of the token window.
package chunk
