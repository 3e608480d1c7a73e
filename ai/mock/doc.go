// Package mock provides test doubles for the ai interfaces.
//
// The mocks default to deterministic behavior (hash-derived unit vectors,
// truncation summaries) so tests run without external services, and
// expose function fields for injecting custom behavior per test.
package mock
