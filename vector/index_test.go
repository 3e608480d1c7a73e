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


package vector_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/curio/core"
	storagebadger "github.com/veldt-labs/curio/storage/badger"
	"github.com/veldt-labs/curio/vector"
)

func newTestIndex(t *testing.T) *vector.Index {
	t.Helper()
	stores, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	index, err := vector.NewIndex(stores.Records)
	require.NoError(t, err)
	return index
}

func record(id core.ID, source core.SourceType, vec []float32, timestamp time.Time) *core.EmbeddingRecord {
	return &core.EmbeddingRecord{
		ChunkID:   id,
		Vector:    vec,
		Namespace: source.Namespace(),
		Text:      "text",
		Source:    source,
		SourceID:  "item",
		Timestamp: timestamp,
		IndexedAt: timestamp.Add(time.Minute),
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	r := record(1, core.SourceSlack, []float32{1, 0, 0}, ts)
	require.NoError(t, index.Upsert(ctx, r))
	require.NoError(t, index.Upsert(ctx, r))

	matches, err := index.Query(ctx, "slack", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.ID(1), matches[0].Record.ChunkID)
}

func TestQueryRanksByCosineSimilarity(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, index.Upsert(ctx,
		record(1, core.SourceSlack, []float32{1, 0, 0}, ts),
		record(2, core.SourceSlack, []float32{0.9, 0.1, 0}, ts),
		record(3, core.SourceSlack, []float32{0, 1, 0}, ts),
	))

	matches, err := index.Query(ctx, "slack", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, core.ID(1), matches[0].Record.ChunkID)
	assert.Equal(t, core.ID(2), matches[1].Record.ChunkID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestQueryBreaksTiesByTimestamp(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	// Identical vectors score identically; the newer record must rank first.
	require.NoError(t, index.Upsert(ctx,
		record(1, core.SourceSlack, []float32{1, 0, 0}, older),
		record(2, core.SourceSlack, []float32{1, 0, 0}, newer),
	))

	matches, err := index.Query(ctx, "slack", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, core.ID(2), matches[0].Record.ChunkID)
	assert.Equal(t, core.ID(1), matches[1].Record.ChunkID)
}

func TestQueryAllMergesNamespaces(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, index.Upsert(ctx,
		record(1, core.SourceSlack, []float32{1, 0, 0}, ts),
		record(2, core.SourceNotion, []float32{0.9, 0.1, 0}, ts),
		record(3, core.SourceDrive, []float32{0.8, 0.2, 0}, ts),
	))

	matches, err := index.QueryAll(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, core.ID(1), matches[0].Record.ChunkID)
	assert.Equal(t, core.ID(2), matches[1].Record.ChunkID)
}

func TestQueryValidation(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	_, err := index.Query(ctx, "slack", nil, 10)
	assert.ErrorIs(t, err, vector.ErrInvalidVector)

	_, err = index.Query(ctx, "slack", []float32{1}, 0)
	assert.ErrorIs(t, err, vector.ErrInvalidLimit)
}

func TestDeleteRemovesFromRanking(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, index.Upsert(ctx,
		record(1, core.SourceSlack, []float32{1, 0, 0}, ts),
		record(2, core.SourceSlack, []float32{0, 1, 0}, ts),
	))
	require.NoError(t, index.Delete(ctx, "slack", 1))

	matches, err := index.Query(ctx, "slack", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.ID(2), matches[0].Record.ChunkID)
}

func TestMinScoreFiltersResults(t *testing.T) {
	stores, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	index, err := vector.NewIndex(stores.Records, vector.WithMinScore(0.5))
	require.NoError(t, err)
	ctx := context.Background()

	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, index.Upsert(ctx,
		record(1, core.SourceSlack, []float32{1, 0, 0}, ts),
		record(2, core.SourceSlack, []float32{0, 1, 0}, ts),
	))

	matches, err := index.Query(ctx, "slack", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.ID(1), matches[0].Record.ChunkID)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, vector.CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, vector.CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, vector.CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Zero(t, vector.CosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, vector.CosineSimilarity([]float32{0, 0}, []float32{0, 0}))
}

func TestNormalize(t *testing.T) {
	normalized := vector.Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, normalized[0], 1e-6)
	assert.InDelta(t, 0.8, normalized[1], 1e-6)
	assert.Equal(t, []float32{0, 0}, vector.Normalize([]float32{0, 0}))
}
