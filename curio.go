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

package curio

import (
	"context"
	"io"
	"log/slog"

	"github.com/veldt-labs/curio/ai"
	"github.com/veldt-labs/curio/ai/openai"
	"github.com/veldt-labs/curio/budget"
	"github.com/veldt-labs/curio/chunk"
	"github.com/veldt-labs/curio/connector"
	"github.com/veldt-labs/curio/deadletter"
	"github.com/veldt-labs/curio/detect"
	"github.com/veldt-labs/curio/pipeline"
	"github.com/veldt-labs/curio/query"
	"github.com/veldt-labs/curio/redact"
	"github.com/veldt-labs/curio/reembed"
	"github.com/veldt-labs/curio/storage"
	"github.com/veldt-labs/curio/storage/badger"
	"github.com/veldt-labs/curio/vector"
)

// Database bundles the storage backend, the AI provider and the cost
// ledger behind one handle. It is the entry point for embedding curio
// into a program; the CLI is a thin wrapper over it.
type Database struct {
	backend     *badger.Backend
	records     storage.RecordStore
	states      storage.StateStore
	deadletters storage.DeadLetterStore
	ledgers     storage.LedgerStore
	provider    ai.Provider
	config      *ai.Config
	ledger      *budget.Ledger
	tokenizer   chunk.Tokenizer
	index       *vector.Index
	handler     *deadletter.Handler
	logger      *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig   *ai.Config
	inMemory   bool
	budgetOpts []budget.Option
}

// WithAIConfig overrides the default AI provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithInMemory opens the backend without touching disk.
// State does not survive the process; intended for tests and dry runs.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithBudgetOptions passes extra options to the cost ledger, such as
// custom monthly budgets or an alert hook.
func WithBudgetOptions(opts ...budget.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.budgetOpts = append(o.budgetOpts, opts...)
	}
}

// NewDatabase opens the backend at filePath and wires up the stores,
// the AI provider, the cost ledger and the vector index.
func NewDatabase(ctx context.Context, filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	records, err := badger.NewRecordStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	states, err := badger.NewStateStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	deadletters, err := badger.NewDeadLetterStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	ledgers, err := badger.NewLedgerStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		backend.Close()
		return nil, err
	}

	budgetOpts := append([]budget.Option{budget.WithStore(ledgers)}, options.budgetOpts...)
	ledger, err := budget.NewLedger(ctx, budgetOpts...)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	tokenizer, err := chunk.NewTiktokenTokenizer(chunk.DefaultEncoding)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	index, err := vector.NewIndex(records)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	handler, err := deadletter.NewHandler(deadletters)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:     backend,
		records:     records,
		states:      states,
		deadletters: deadletters,
		ledgers:     ledgers,
		provider:    provider,
		config:      options.aiConfig,
		ledger:      ledger,
		tokenizer:   tokenizer,
		index:       index,
		handler:     handler,
		logger:      slog.Default(),
	}, nil
}

// Close releases the AI provider and the storage backend.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Index exposes the vector index for read access.
func (db *Database) Index() *vector.Index {
	return db.index
}

// Ledger exposes the cost ledger for spend inspection.
func (db *Database) Ledger() *budget.Ledger {
	return db.ledger
}

// DeadLetters exposes the dead letter handler for inspection and
// manual retries.
func (db *Database) DeadLetters() *deadletter.Handler {
	return db.handler
}

// NewIngestPipeline builds the full ingest pipeline over the given
// connectors, with every stage wired to the shared stores, provider and
// ledger.
func (db *Database) NewIngestPipeline(connectors []connector.Connector, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	detector, err := detect.NewDetector(db.states)
	if err != nil {
		return nil, err
	}

	redactor, err := redact.NewRedactor()
	if err != nil {
		return nil, err
	}

	chunker, err := chunk.NewChunker(db.tokenizer)
	if err != nil {
		return nil, err
	}

	embedder, err := ai.NewMeteredEmbedder(db.provider.Embedder(), db.ledger,
		db.tokenizer.Count, db.config.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	summarizer, err := ai.NewMeteredSummarizer(db.provider.Summarizer(), db.ledger,
		db.tokenizer.Count, db.config.CompletionModel, db.config.MaxSummaryTokens)
	if err != nil {
		return nil, err
	}

	return pipeline.NewPipeline(connectors, detector, redactor, chunker,
		embedder, summarizer, db.index, db.handler, opts...)
}

// NewOrchestrator builds the query/digest orchestrator, with the
// embedder metered through the shared ledger.
func (db *Database) NewOrchestrator(opts ...query.Option) (*query.Orchestrator, error) {
	embedder, err := ai.NewMeteredEmbedder(db.provider.Embedder(), db.ledger,
		db.tokenizer.Count, db.config.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	summarizer, err := ai.NewMeteredSummarizer(db.provider.Summarizer(), db.ledger,
		db.tokenizer.Count, db.config.CompletionModel, db.config.MaxSummaryTokens)
	if err != nil {
		return nil, err
	}

	return query.NewOrchestrator(db.index, embedder, summarizer, opts...)
}

// NewReembedder builds a reembedder over the record store. Embedding
// calls are metered through the shared ledger like any other stage.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	embedder, err := ai.NewMeteredEmbedder(db.provider.Embedder(), db.ledger,
		db.tokenizer.Count, db.config.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	return reembed.NewReembedder(db.records, embedder, config, progress)
}
