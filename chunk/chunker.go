// Copyright 2026 Veldt Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunk

import (
	"log/slog"
	"strings"

	"github.com/veldt-labs/curio/core"
)

const (
	// DefaultMaxTokens is the target chunk size in tokens.
	DefaultMaxTokens = 500
	// DefaultOverlapTokens is the number of tokens shared between
	// consecutive chunks.
	DefaultOverlapTokens = 50
)

// Chunker splits redacted text into bounded token-length segments with
// overlap, preserving source attribution per chunk.
//
// Chunking is deterministic and restartable: identical input yields
// identical chunk boundaries and IDs (ID = hash of source id + start
// token offset).
type Chunker struct {
	tokenizer Tokenizer
	maxTokens int
	overlap   int
	logger    *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithMaxTokens sets the target chunk size in tokens.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) error {
		if n <= 0 {
			return ErrInvalidChunkSize
		}
		c.maxTokens = n
		return nil
	}
}

// WithOverlapTokens sets the overlap between consecutive chunks.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) error {
		if n < 0 {
			return ErrInvalidOverlap
		}
		c.overlap = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewChunker creates a chunker over the given tokenizer.
func NewChunker(tokenizer Tokenizer, opts ...Option) (*Chunker, error) {
	if tokenizer == nil {
		return nil, ErrTokenizerRequired
	}

	c := &Chunker{
		tokenizer: tokenizer,
		maxTokens: DefaultMaxTokens,
		overlap:   DefaultOverlapTokens,
		logger:    slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.overlap >= c.maxTokens {
		return nil, ErrInvalidOverlap
	}
	return c, nil
}

// Split chunks one redacted item. Only redacted items are accepted; raw
// text never reaches this stage.
//
// Boundaries prefer sentence or paragraph ends within the tail half of the
// window; a hard token cut is used only when no boundary exists there.
func (c *Chunker) Split(item *core.RedactedItem) ([]core.Chunk, error) {
	if item == nil {
		return nil, ErrItemRequired
	}

	text := item.RedactedText
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("empty text provided for chunking", "source_id", item.Item.SourceID)
		return nil, nil
	}

	tokens := c.tokenizer.Encode(text)
	total := len(tokens)

	if total <= c.maxTokens {
		return []core.Chunk{c.makeChunk(item, text, 0, total, 0)}, nil
	}

	var chunks []core.Chunk
	start, index := 0, 0
	for start < total {
		end := start + c.maxTokens
		if end > total {
			end = total
		} else if end < total {
			end = c.adjustToBoundary(tokens, start, end)
		}

		chunkText := c.tokenizer.Decode(tokens[start:end])
		chunks = append(chunks, c.makeChunk(item, chunkText, start, end, index))

		if end >= total {
			break
		}
		start = end - c.overlap
		index++
	}

	c.logger.Info("item chunked",
		"source_id", item.Item.SourceID,
		"tokens", total,
		"chunks", len(chunks))

	return chunks, nil
}

// adjustToBoundary moves the cut backwards to the last sentence or
// paragraph boundary in the tail half of the window. Returns the original
// end when no boundary exists there.
func (c *Chunker) adjustToBoundary(tokens []int, start, end int) int {
	floor := start + c.maxTokens/2
	if min := start + c.overlap + 1; floor < min {
		floor = min
	}

	for i := end - 1; i >= floor; i-- {
		if endsBoundary(c.tokenizer.Decode(tokens[i : i+1])) {
			return i + 1
		}
	}
	return end
}

// endsBoundary reports whether a decoded token terminates a sentence or
// paragraph.
func endsBoundary(tokenText string) bool {
	if strings.Contains(tokenText, "\n") {
		return true
	}
	trimmed := strings.TrimRight(tokenText, " \t")
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

func (c *Chunker) makeChunk(item *core.RedactedItem, text string, start, end, index int) core.Chunk {
	return core.Chunk{
		ID:         core.ChunkID(item.Item.SourceID, start),
		Text:       text,
		TokenCount: end - start,
		StartToken: start,
		EndToken:   end,
		Index:      index,
		Source:     item.Item.Source,
		SourceID:   item.Item.SourceID,
		Author:     item.Item.Author,
		Timestamp:  item.Item.Timestamp,
		URL:        item.Item.URL,
	}
}
