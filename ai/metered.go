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


package ai

import (
	"context"
	"fmt"

	"github.com/veldt-labs/curio/budget"
)

// TokenCounter estimates the token count of a text. Must match the
// tokenizer of the metered model closely enough for cost estimation.
type TokenCounter func(text string) int

// MeteredEmbedder wraps an Embedder with budget enforcement. Every call
// reserves its estimated cost first; a call that would cross the cap is
// never made and surfaces budget.ErrBudgetExceeded.
type MeteredEmbedder struct {
	inner  Embedder
	ledger *budget.Ledger
	count  TokenCounter
	model  string
}

var _ Embedder = (*MeteredEmbedder)(nil)

// NewMeteredEmbedder wraps an embedder with budget enforcement for the
// given model.
func NewMeteredEmbedder(inner Embedder, ledger *budget.Ledger, count TokenCounter, model string) (*MeteredEmbedder, error) {
	if inner == nil || ledger == nil || count == nil || model == "" {
		return nil, fmt.Errorf("%w: embedder, ledger, counter and model are required", ErrEmbeddingFailed)
	}
	return &MeteredEmbedder{inner: inner, ledger: ledger, count: count, model: model}, nil
}

// EmbedText meters a single embedding call.
func (m *MeteredEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return []float32{}, nil
	}
	return vectors[0], nil
}

// EmbedTexts meters a batch embedding call. The reservation is settled
// with the token estimate; embedding input maps one-to-one to billed
// tokens, so the estimate is the bill.
func (m *MeteredEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	tokens := 0
	for _, text := range texts {
		tokens += m.count(text)
	}

	reservation, err := m.ledger.Reserve(budget.APIEmbeddings, m.model, tokens)
	if err != nil {
		return nil, err
	}

	vectors, err := m.inner.EmbedTexts(ctx, texts)
	if err != nil {
		reservation.Release()
		return nil, err
	}

	if err := reservation.Commit(ctx, tokens); err != nil {
		return nil, err
	}
	return vectors, nil
}

// MeteredSummarizer wraps a Summarizer with budget enforcement.
type MeteredSummarizer struct {
	inner     Summarizer
	ledger    *budget.Ledger
	count     TokenCounter
	model     string
	maxOutput int
}

var _ Summarizer = (*MeteredSummarizer)(nil)

// NewMeteredSummarizer wraps a summarizer with budget enforcement for
// the given model. maxOutput is the per-call completion token bound used
// in the cost estimate.
func NewMeteredSummarizer(inner Summarizer, ledger *budget.Ledger, count TokenCounter, model string, maxOutput int) (*MeteredSummarizer, error) {
	if inner == nil || ledger == nil || count == nil || model == "" {
		return nil, fmt.Errorf("%w: summarizer, ledger, counter and model are required", ErrSummarizationFailed)
	}
	if maxOutput <= 0 {
		maxOutput = 256
	}
	return &MeteredSummarizer{inner: inner, ledger: ledger, count: count, model: model, maxOutput: maxOutput}, nil
}

// Summarize meters a single summarization call.
func (m *MeteredSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	return m.metered(ctx, m.count(text), func(ctx context.Context) (string, error) {
		return m.inner.Summarize(ctx, text)
	})
}

// Synthesize meters a question-answering call.
func (m *MeteredSummarizer) Synthesize(ctx context.Context, question string, passages []string) (string, error) {
	tokens := m.count(question)
	for _, p := range passages {
		tokens += m.count(p)
	}
	return m.metered(ctx, tokens, func(ctx context.Context) (string, error) {
		return m.inner.Synthesize(ctx, question, passages)
	})
}

// metered runs call under a reservation sized at the input estimate plus
// the completion bound. The output side is settled with the bound; the
// overestimate is released implicitly at commit since the reservation is
// replaced by committed spend of the same size.
func (m *MeteredSummarizer) metered(ctx context.Context, inputTokens int, call func(context.Context) (string, error)) (string, error) {
	tokens := inputTokens + m.maxOutput

	reservation, err := m.ledger.Reserve(budget.APICompletions, m.model, tokens)
	if err != nil {
		return "", err
	}

	result, err := call(ctx)
	if err != nil {
		reservation.Release()
		return "", err
	}

	actual := inputTokens + m.count(result)
	if err := reservation.Commit(ctx, actual); err != nil {
		return "", err
	}
	return result, nil
}
