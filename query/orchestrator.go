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

package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/veldt-labs/curio/ai"
	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/vector"
)

// DefaultTopK is the number of matches retrieved per question.
const DefaultTopK = 10

// DefaultTimeout bounds one Answer call end to end.
const DefaultTimeout = 3 * time.Second

// NoResultsMessage is returned when nothing in the index matches.
const NoResultsMessage = "I couldn't find anything relevant in the knowledge base."

// Source attributes part of an answer to one indexed chunk.
type Source struct {
	Source   core.SourceType
	SourceID string
	Author   string
	URL      string
	Score    float32
}

// Answer is the synthesized response to one question.
type Answer struct {
	Question string
	Text     string
	Sources  []Source
}

// Orchestrator serves questions and digests from the vector index.
// All of its operations are read-only with respect to the index.
type Orchestrator struct {
	index      *vector.Index
	embedder   ai.Embedder
	summarizer ai.Summarizer
	topK       int
	timeout    time.Duration
	threshold  float32
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithTopK sets how many matches feed each answer.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(o *Orchestrator) error {
		if k < 1 {
			return ErrInvalidTopK
		}
		o.topK = k
		return nil
	}
}

// WithTimeout bounds one Answer call.
// Default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d <= 0 {
			return ErrInvalidTimeout
		}
		o.timeout = d
		return nil
	}
}

// WithClusterThreshold sets the cosine similarity above which digest
// records join the same cluster. Default is 0.80.
func WithClusterThreshold(threshold float32) Option {
	return func(o *Orchestrator) error {
		if threshold <= 0 || threshold >= 1 {
			return ErrInvalidThreshold
		}
		o.threshold = threshold
		return nil
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates a query orchestrator.
func NewOrchestrator(index *vector.Index, embedder ai.Embedder, summarizer ai.Summarizer, opts ...Option) (*Orchestrator, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil || summarizer == nil {
		return nil, ErrProviderRequired
	}

	o := &Orchestrator{
		index:      index,
		embedder:   embedder,
		summarizer: summarizer,
		topK:       DefaultTopK,
		timeout:    DefaultTimeout,
		threshold:  0.80,
		now:        time.Now,
		logger:     slog.Default().With("component", "query"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Answer embeds the question, retrieves the closest chunks across all
// namespaces and synthesizes a response with source attribution. The
// whole call is bounded by the configured timeout; exceeding it yields
// ErrQueryTimeout, which callers may retry.
func (o *Orchestrator) Answer(ctx context.Context, question string) (*Answer, error) {
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	started := o.now()

	queryVec, err := o.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, o.wrapTimeout(err)
	}

	matches, err := o.index.QueryAll(ctx, queryVec, o.topK)
	if err != nil {
		return nil, o.wrapTimeout(err)
	}

	if len(matches) == 0 {
		return &Answer{Question: question, Text: NoResultsMessage}, nil
	}

	passages := make([]string, len(matches))
	sources := make([]Source, len(matches))
	for i, match := range matches {
		passages[i] = passageText(match.Record)
		sources[i] = Source{
			Source:   match.Record.Source,
			SourceID: match.Record.SourceID,
			Author:   match.Record.Author,
			URL:      match.Record.URL,
			Score:    match.Score,
		}
	}

	text, err := o.summarizer.Synthesize(ctx, question, passages)
	if err != nil {
		return nil, o.wrapTimeout(err)
	}

	o.logger.Info("question answered", "matches", len(matches),
		"elapsed", o.now().Sub(started))
	return &Answer{Question: question, Text: text, Sources: sources}, nil
}

// wrapTimeout converts a deadline failure into the retryable query
// timeout error; other errors pass through.
func (o *Orchestrator) wrapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrQueryTimeout, err)
	}
	return err
}

// passageText prefers the chunk summary for synthesis, falling back to
// the chunk text, with the source system named for attribution.
func passageText(record *core.EmbeddingRecord) string {
	text := record.Summary
	if text == "" {
		text = record.Text
	}
	return fmt.Sprintf("(%s) %s", record.Source, text)
}
