// Package query serves questions and periodic digests from the vector
// index. Both operations are read-only: they embed through the shared
// cost ledger, retrieve ranked matches and hand the results to the
// summarizer for synthesis.
package query
