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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/veldt-labs/curio/ai"
)

// Summarizer implements ai.Summarizer using OpenAI-compatible chat APIs.
type Summarizer struct {
	client    llms.Model
	maxTokens int
	logger    *slog.Logger
}

// newSummarizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSummarizer(config *ai.Config) (*Summarizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrSummarizationFailed, err)
	}

	return &Summarizer{
		client:    client,
		maxTokens: config.MaxSummaryTokens,
		logger:    slog.Default().With("component", "openai-summarizer"),
	}, nil
}

// NewSummarizer creates a new summarizer using the provided configuration.
//
// Returns ai.Summarizer interface to enforce abstraction.
func NewSummarizer(config *ai.Config) (ai.Summarizer, error) {
	return newSummarizer(config)
}

// Summarize produces a one-to-two sentence summary of the text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ai.ErrEmptyInput
	}
	return s.generate(ctx, summarySystemPrompt, text)
}

// Synthesize answers a question from the given source passages.
func (s *Summarizer) Synthesize(ctx context.Context, question string, passages []string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ai.ErrEmptyInput
	}
	return s.generate(ctx, synthesisSystemPrompt, buildSynthesisPrompt(question, passages))
}

func (s *Summarizer) generate(ctx context.Context, system, user string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	response, err := s.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.0),
		llms.WithMaxTokens(s.maxTokens))
	if err != nil {
		s.logger.Error("failed to generate content", "err", err)
		return "", fmt.Errorf("%w: %w", ai.ErrSummarizationFailed, err)
	}

	if len(response.Choices) < 1 {
		s.logger.Warn("no choices returned from model")
		return "", fmt.Errorf("%w: empty response", ai.ErrSummarizationFailed)
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
