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


// Package ai provides abstractions for the AI services curio calls.
//
// The package defines interfaces for text embedding and summarization.
// The pipeline and query layers depend on these abstractions rather than
// concrete implementations.
//
//   - Embedder: generates vector embeddings from text
//   - Summarizer: condenses text and answers questions from passages
//   - Provider: aggregates both for convenient initialization
//
// Two implementation sub-packages exist:
//
//   - ai/openai: production implementation over OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external services
//
// Production constructors (openai.NewProvider, openai.NewEmbedder) return
// interface types to enforce abstraction. Mock constructors return
// concrete types so tests can inject behavior and assert call counts.
//
// The Metered* wrappers in this package add budget enforcement around
// any Embedder or Summarizer: estimated cost is reserved before each
// call and reconciled after, so a provider call can never start once the
// monthly cap is reached.
package ai
