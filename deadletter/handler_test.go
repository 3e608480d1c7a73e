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


package deadletter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/deadletter"
	storagebadger "github.com/veldt-labs/curio/storage/badger"
)

// replayFunc adapts a function to the Processor interface.
type replayFunc func(ctx context.Context, entry *core.DeadLetterEntry) error

func (f replayFunc) Replay(ctx context.Context, entry *core.DeadLetterEntry) error {
	return f(ctx, entry)
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testChunk(id core.ID) core.Chunk {
	return core.Chunk{
		ID:        id,
		Text:      "chunk text",
		Source:    core.SourceSlack,
		SourceID:  "C1/1.2",
		Timestamp: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newTestHandler(t *testing.T, opts ...deadletter.Option) (*deadletter.Handler, *clock) {
	t.Helper()
	stores, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	c := &clock{now: time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)}
	opts = append(opts, deadletter.WithClock(c.Now))
	handler, err := deadletter.NewHandler(stores.DeadLetters, opts...)
	require.NoError(t, err)
	return handler, c
}

func TestRecordSchedulesFirstRetry(t *testing.T) {
	handler, c := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, handler.Record(ctx, testChunk(1), core.StageEmbed, errors.New("rate limited")))

	entries, err := handler.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.DeadLetterFailed, entries[0].State)
	assert.Equal(t, 0, entries[0].AttemptCount)
	assert.Equal(t, c.Now().Add(5*time.Minute), entries[0].NextRetryAt)

	// Not due before the delay elapses.
	due, err := handler.Due(ctx, c.Now())
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = handler.Due(ctx, c.Now().Add(5*time.Minute))
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestSuccessfulReplayDiscardsEntry(t *testing.T) {
	handler, c := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, handler.Record(ctx, testChunk(1), core.StageEmbed, errors.New("boom")))
	c.Advance(5 * time.Minute)

	replayed := 0
	err := handler.ProcessDue(ctx, replayFunc(func(ctx context.Context, entry *core.DeadLetterEntry) error {
		replayed++
		assert.Equal(t, core.ID(1), entry.ChunkID)
		assert.Equal(t, "chunk text", entry.Chunk.Text)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, replayed)

	depth, err := handler.Depth(ctx)
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func TestThreeFailuresParkForManualReview(t *testing.T) {
	handler, c := newTestHandler(t)
	ctx := context.Background()

	failing := replayFunc(func(context.Context, *core.DeadLetterEntry) error {
		return errors.New("provider still down")
	})

	// Initial failure schedules a retry in 5 minutes.
	require.NoError(t, handler.Record(ctx, testChunk(1), core.StageSummarize, errors.New("provider down")))

	// First retry fails: rescheduled 15 minutes out.
	c.Advance(5 * time.Minute)
	require.NoError(t, handler.ProcessDue(ctx, failing))

	entries, err := handler.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.DeadLetterRetrying, entries[0].State)
	assert.Equal(t, 1, entries[0].AttemptCount)
	assert.Equal(t, c.Now().Add(15*time.Minute), entries[0].NextRetryAt)

	// Second retry fails: parked for a human.
	c.Advance(15 * time.Minute)
	require.NoError(t, handler.ProcessDue(ctx, failing))

	entries, err = handler.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.DeadLetterManualReview, entries[0].State)
	assert.Equal(t, 2, entries[0].AttemptCount)

	// Parked entries are never due again.
	c.Advance(24 * time.Hour)
	due, err := handler.Due(ctx, c.Now())
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRecordAgainDoesNotBurnAttempts(t *testing.T) {
	handler, _ := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, handler.Record(ctx, testChunk(1), core.StageEmbed, errors.New("first")))
	require.NoError(t, handler.Record(ctx, testChunk(1), core.StageEmbed, errors.New("second")))

	entries, err := handler.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].AttemptCount)
	assert.Equal(t, "second", entries[0].LastError)
}

func TestManualRetryIgnoresSchedule(t *testing.T) {
	handler, _ := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, handler.Record(ctx, testChunk(1), core.StageEmbed, errors.New("boom")))

	// Retry immediately, well before NextRetryAt.
	err := handler.Retry(ctx, 1, core.StageEmbed,
		replayFunc(func(context.Context, *core.DeadLetterEntry) error { return nil }))
	require.NoError(t, err)

	depth, err := handler.Depth(ctx)
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func TestDepthAlertFiresAtThreshold(t *testing.T) {
	var alerted []int
	handler, _ := newTestHandler(t,
		deadletter.WithDepthAlert(2, func(depth int) { alerted = append(alerted, depth) }))
	ctx := context.Background()

	require.NoError(t, handler.Record(ctx, testChunk(1), core.StageEmbed, errors.New("boom")))
	assert.Empty(t, alerted)

	require.NoError(t, handler.Record(ctx, testChunk(2), core.StageEmbed, errors.New("boom")))
	assert.Equal(t, []int{2}, alerted)
}
