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
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "https://api.openai.com/v1", or a local OpenAI-compatible
	// server such as "http://localhost:11434/v1".
	EmbeddingHost string

	// CompletionHost is the base URL for the summarization service API.
	CompletionHost string

	// EmbeddingModel is the model identifier for text embeddings.
	// Example: "text-embedding-3-small"
	EmbeddingModel string

	// CompletionModel is the model identifier for summarization.
	// Example: "gpt-4o-mini"
	CompletionModel string

	// APIKey authenticates against the hosts. Use "none" for local
	// services that don't require authentication.
	APIKey string

	// MaxSummaryTokens bounds the completion length of a single summary.
	// Default: 256
	MaxSummaryTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithCompletionHost sets the summarization service host URL.
func WithCompletionHost(host string) ConfigOption {
	return func(c *Config) {
		c.CompletionHost = host
	}
}

// WithHost sets both embedding and completion hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.CompletionHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithCompletionModel sets the summarization model identifier.
func WithCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CompletionModel = model
	}
}

// WithAPIKey sets the API key for both hosts.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithMaxSummaryTokens bounds the completion length of a single summary.
func WithMaxSummaryTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxSummaryTokens = n
	}
}

// DefaultConfig returns a Config targeting the OpenAI API.
func DefaultConfig() *Config {
	defaultHost := "https://api.openai.com/v1"
	return &Config{
		EmbeddingHost:    defaultHost,
		CompletionHost:   defaultHost,
		EmbeddingModel:   "text-embedding-3-small",
		CompletionModel:  "gpt-4o-mini",
		APIKey:           "none",
		MaxSummaryTokens: 256,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    ai.WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which OpenAI-compatible
// APIs (OpenAI, Ollama, LocalAI, vLLM) require.
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
	if c.CompletionHost != "" && !strings.HasSuffix(c.CompletionHost, "/v1") {
		c.CompletionHost = strings.TrimSuffix(c.CompletionHost, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.CompletionHost == "" {
		return errors.New("ai config: CompletionHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.CompletionModel == "" {
		return errors.New("ai config: CompletionModel is required")
	}
	if c.APIKey == "" {
		return errors.New("ai config: APIKey is required")
	}
	if c.MaxSummaryTokens <= 0 {
		return errors.New("ai config: MaxSummaryTokens must be positive")
	}
	return nil
}
