// Package notion ingests pages shared with a Notion integration, using
// the search endpoint for discovery and block children for page text.
package notion
