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

package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/curio/ai"
	"github.com/veldt-labs/curio/ai/mock"
	"github.com/veldt-labs/curio/budget"
	"github.com/veldt-labs/curio/chunk"
	"github.com/veldt-labs/curio/connector"
	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/deadletter"
	"github.com/veldt-labs/curio/detect"
	"github.com/veldt-labs/curio/pipeline"
	"github.com/veldt-labs/curio/redact"
	storagebadger "github.com/veldt-labs/curio/storage/badger"
	"github.com/veldt-labs/curio/vector"
)

// fakeConnector is an in-memory connector.Connector.
type fakeConnector struct {
	mu     sync.Mutex
	source core.SourceType
	items  []core.ContentItem
	live   []string
}

func (f *fakeConnector) Source() core.SourceType { return f.source }

func (f *fakeConnector) Poll(_ context.Context, _ time.Time) ([]core.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items, nil
}

func (f *fakeConnector) LiveIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live, nil
}

func (f *fakeConnector) set(items []core.ContentItem, live []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
	f.live = live
}

// clock is a mutable test time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	pipeline   *pipeline.Pipeline
	connector  *fakeConnector
	stores     *storagebadger.Stores
	index      *vector.Index
	handler    *deadletter.Handler
	embedder   *mock.MockEmbedder
	summarizer *mock.MockSummarizer
	tokenizer  *chunk.WordTokenizer
	clock      *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	stores, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	clk := &clock{now: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)}

	detector, err := detect.NewDetector(stores.States)
	require.NoError(t, err)

	redactor, err := redact.NewRedactor()
	require.NoError(t, err)

	tokenizer := chunk.NewWordTokenizer()
	chunker, err := chunk.NewChunker(tokenizer)
	require.NoError(t, err)

	ledger, err := budget.NewLedger(ctx, budget.WithClock(clk.Now))
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	summarizer := mock.NewMockSummarizer()

	metered, err := ai.NewMeteredEmbedder(embedder, ledger, tokenizer.Count, "text-embedding-3-small")
	require.NoError(t, err)
	meteredSum, err := ai.NewMeteredSummarizer(summarizer, ledger, tokenizer.Count, "gpt-4o-mini", 64)
	require.NoError(t, err)

	index, err := vector.NewIndex(stores.Records)
	require.NoError(t, err)

	handler, err := deadletter.NewHandler(stores.DeadLetters, deadletter.WithClock(clk.Now))
	require.NoError(t, err)

	conn := &fakeConnector{source: core.SourceSlack}

	p, err := pipeline.NewPipeline(
		[]connector.Connector{conn},
		detector, redactor, chunker, metered, meteredSum, index, handler,
		pipeline.WithClock(clk.Now),
		pipeline.WithRetry(3, time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(p.Release)

	return &harness{
		pipeline:   p,
		connector:  conn,
		stores:     stores,
		index:      index,
		handler:    handler,
		embedder:   embedder,
		summarizer: summarizer,
		tokenizer:  tokenizer,
		clock:      clk,
	}
}

func slackItem(id, text string) core.ContentItem {
	return core.NewContentItem(
		core.SourceSlack, id, text, "U01",
		time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		"https://app.slack.com/archives/C1/p1",
	)
}

func TestRunCycleEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	item := slackItem("C1/1001", "the deployment runbook lives in the wiki")
	h.connector.set([]core.ContentItem{item}, []string{item.SourceID})

	require.NoError(t, h.pipeline.RunCycle(ctx))

	queryVec := mock.DeterministicVector(item.RawText, 384)
	matches, err := h.index.Query(ctx, core.SourceSlack.Namespace(), queryVec, 5)
	require.NoError(t, err)

	require.Len(t, matches, 1)
	record := matches[0].Record
	assert.Equal(t, core.ChunkID(item.SourceID, 0), record.ChunkID)
	assert.Equal(t, item.RawText, record.Text)
	assert.Equal(t, "U01", record.Author)
	assert.NotEmpty(t, record.Summary)

	// Re-running over unchanged content spends nothing.
	embedCalls := h.embedder.CallCount()
	require.NoError(t, h.pipeline.RunCycle(ctx))
	assert.Equal(t, embedCalls, h.embedder.CallCount())

	matches, err = h.index.Query(ctx, core.SourceSlack.Namespace(), queryVec, 5)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRunCycleReplacesEditedItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	item := slackItem("C1/1001", "original wording of the announcement")
	h.connector.set([]core.ContentItem{item}, []string{item.SourceID})
	require.NoError(t, h.pipeline.RunCycle(ctx))

	edited := slackItem("C1/1001", "edited wording of the announcement")
	h.connector.set([]core.ContentItem{edited}, []string{edited.SourceID})
	require.NoError(t, h.pipeline.RunCycle(ctx))

	// Still one record for the item, carrying the edited text.
	var records []*core.EmbeddingRecord
	err := h.stores.Records.ForEachRecord(ctx, core.SourceSlack.Namespace(), func(r *core.EmbeddingRecord) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, edited.RawText, records[0].Text)
}

func TestRunCycleTombstonesDeletedItems(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	item := slackItem("C1/1001", "message that will be deleted upstream")
	h.connector.set([]core.ContentItem{item}, []string{item.SourceID})
	require.NoError(t, h.pipeline.RunCycle(ctx))

	h.connector.set(nil, nil)
	require.NoError(t, h.pipeline.RunCycle(ctx))

	queryVec := mock.DeterministicVector(item.RawText, 384)
	matches, err := h.index.Query(ctx, core.SourceSlack.Namespace(), queryVec, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	state, err := h.stores.States.GetSourceState(ctx, core.SourceSlack, item.SourceID)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestEmbedFailureDeadLetters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("provider unavailable")
	}

	item := slackItem("C1/2001", "chunk that cannot be embedded right now")
	h.connector.set([]core.ContentItem{item}, []string{item.SourceID})
	require.NoError(t, h.pipeline.RunCycle(ctx))

	entries, err := h.handler.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.StageEmbed, entries[0].Stage)
	assert.Equal(t, core.DeadLetterFailed, entries[0].State)

	// No record and no committed state: the next cycle retries the item.
	queryVec := mock.DeterministicVector(item.RawText, 384)
	matches, err := h.index.Query(ctx, core.SourceSlack.Namespace(), queryVec, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	state, err := h.stores.States.GetSourceState(ctx, core.SourceSlack, item.SourceID)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestRateLimitedEmbedRetriesWithinCycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Throttled twice, then the provider recovers. The batch must ride
	// out the rate limit inside the cycle, never the dead letter queue.
	calls := 0
	h.embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls < 3 {
			return nil, ai.ErrRateLimited
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, 384)
		}
		return vectors, nil
	}

	item := slackItem("C1/2101", "throttled once then indexed")
	h.connector.set([]core.ContentItem{item}, []string{item.SourceID})
	require.NoError(t, h.pipeline.RunCycle(ctx))

	assert.Equal(t, 3, calls)

	entries, err := h.handler.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	queryVec := mock.DeterministicVector(item.RawText, 384)
	matches, err := h.index.Query(ctx, core.SourceSlack.Namespace(), queryVec, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	state, err := h.stores.States.GetSourceState(ctx, core.SourceSlack, item.SourceID)
	require.NoError(t, err)
	assert.NotNil(t, state)
}

func TestRateLimitedEmbedDeadLettersAfterBackoff(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	calls := 0
	h.embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		calls++
		return nil, ai.ErrRateLimited
	}

	item := slackItem("C1/2102", "throttled past every retry")
	h.connector.set([]core.ContentItem{item}, []string{item.SourceID})
	require.NoError(t, h.pipeline.RunCycle(ctx))

	// Backoff exhausted all attempts before the residual error was
	// dead-lettered.
	assert.Equal(t, 3, calls)

	entries, err := h.handler.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.StageEmbed, entries[0].Stage)
	assert.Contains(t, entries[0].LastError, "rate limited")
}

func TestDeadLetterReplayRecovers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("provider unavailable")
	}

	item := slackItem("C1/2001", "chunk that recovers on replay")
	h.connector.set([]core.ContentItem{item}, []string{item.SourceID})
	require.NoError(t, h.pipeline.RunCycle(ctx))

	// Provider comes back; the entry becomes due after the first delay.
	h.embedder.EmbedTextsFunc = nil
	h.clock.Advance(6 * time.Minute)

	require.NoError(t, h.pipeline.ProcessDeadLetters(ctx))

	entries, err := h.handler.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	queryVec := mock.DeterministicVector(item.RawText, 384)
	matches, err := h.index.Query(ctx, core.SourceSlack.Namespace(), queryVec, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.NotEmpty(t, matches[0].Record.Summary)
}

func TestSummarizeFailureStillIndexes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.summarizer.SummarizeFunc = func(context.Context, string) (string, error) {
		return "", errors.New("completion quota exhausted")
	}

	item := slackItem("C1/3001", "searchable even without a summary")
	h.connector.set([]core.ContentItem{item}, []string{item.SourceID})
	require.NoError(t, h.pipeline.RunCycle(ctx))

	queryVec := mock.DeterministicVector(item.RawText, 384)
	matches, err := h.index.Query(ctx, core.SourceSlack.Namespace(), queryVec, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Empty(t, matches[0].Record.Summary)

	entries, err := h.handler.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.StageSummarize, entries[0].Stage)

	// Replay fills the summary in on the existing record.
	h.summarizer.SummarizeFunc = nil
	h.clock.Advance(6 * time.Minute)
	require.NoError(t, h.pipeline.ProcessDeadLetters(ctx))

	matches, err = h.index.Query(ctx, core.SourceSlack.Namespace(), queryVec, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.NotEmpty(t, matches[0].Record.Summary)
}

func TestPIINeverReachesIndex(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	item := slackItem("C1/4001", "Contact me at alice@example.com for details")
	h.connector.set([]core.ContentItem{item}, []string{item.SourceID})
	require.NoError(t, h.pipeline.RunCycle(ctx))

	var records []*core.EmbeddingRecord
	err := h.stores.Records.ForEachRecord(ctx, core.SourceSlack.Namespace(), func(r *core.EmbeddingRecord) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotContains(t, records[0].Text, "alice@example.com")
	assert.Contains(t, records[0].Text, "[EMAIL_REDACTED]")
}

func TestNewPipelineValidation(t *testing.T) {
	_, err := pipeline.NewPipeline(nil, nil, nil, nil, nil, nil, nil, nil)
	assert.ErrorIs(t, err, pipeline.ErrNoConnectors)
}
