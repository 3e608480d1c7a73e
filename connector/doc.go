// Package connector defines the source connector interface and shared
// client plumbing.
//
// A connector polls one external system for new and modified content and
// can enumerate the ids currently live there, which the pipeline uses to
// propagate upstream deletions. Each implementation wraps its vendor SDK
// behind the same small interface and throttles itself with a token
// bucket rate limiter.
//
// Implementations live in the slack, notion and drive sub-packages.
package connector
