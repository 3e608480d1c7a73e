// Package detect decides which polled items need processing.
//
// Items are classified by content hash against per-item stored state:
// new, updated, or unchanged. Unchanged items are skipped before any
// external API is touched. State commits only after an item's chunks are
// in the index, so processing is at-least-once, never lossy.
package detect
