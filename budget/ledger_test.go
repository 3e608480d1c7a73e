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


package budget

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/curio/core"
)

const testModel = "text-embedding-3-small"

type memoryStore struct {
	mu        sync.Mutex
	snapshots map[string]core.LedgerSnapshot
}

func newMemoryStore() *memoryStore {
	return &memoryStore{snapshots: make(map[string]core.LedgerSnapshot)}
}

func (s *memoryStore) SaveLedger(_ context.Context, snapshot core.LedgerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.API] = snapshot
	return nil
}

func (s *memoryStore) LoadLedger(_ context.Context, api string) (*core.LedgerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.snapshots[api]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

func TestReserveCommitTracksSpend(t *testing.T) {
	ledger, err := NewLedger(context.Background())
	require.NoError(t, err)

	res, err := ledger.Reserve(APIEmbeddings, testModel, 1_000_000)
	require.NoError(t, err)
	require.NoError(t, res.Commit(context.Background(), 1_000_000))

	usd, tokens := ledger.Spend(APIEmbeddings)
	assert.InDelta(t, 0.02, usd, 1e-9)
	assert.Equal(t, int64(1_000_000), tokens)
}

func TestReserveRejectsOverBudget(t *testing.T) {
	ledger, err := NewLedger(context.Background(),
		WithMonthlyBudget(APIEmbeddings, 0.01))
	require.NoError(t, err)

	// 1M tokens cost 0.02, over the 0.01 cap.
	_, err = ledger.Reserve(APIEmbeddings, testModel, 1_000_000)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
}

func TestReleaseReturnsReservation(t *testing.T) {
	ledger, err := NewLedger(context.Background(),
		WithMonthlyBudget(APIEmbeddings, 0.02))
	require.NoError(t, err)

	res, err := ledger.Reserve(APIEmbeddings, testModel, 1_000_000)
	require.NoError(t, err)

	// A second full-cap reservation must wait for the first to settle.
	_, err = ledger.Reserve(APIEmbeddings, testModel, 1_000_000)
	require.ErrorIs(t, err, ErrBudgetExceeded)

	res.Release()
	_, err = ledger.Reserve(APIEmbeddings, testModel, 1_000_000)
	assert.NoError(t, err)
}

func TestConcurrentReservationsNeverExceedCap(t *testing.T) {
	// Cap admits exactly ten 100k-token calls at 0.02/1M tokens.
	ledger, err := NewLedger(context.Background(),
		WithMonthlyBudget(APIEmbeddings, 0.0201))
	require.NoError(t, err)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := ledger.Reserve(APIEmbeddings, testModel, 100_000)
			if err != nil {
				return
			}
			admitted.Add(1)
			require.NoError(t, res.Commit(context.Background(), 100_000))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), admitted.Load())
	usd, _ := ledger.Spend(APIEmbeddings)
	assert.InDelta(t, 0.02, usd, 1e-9)
}

func TestAlertFiresOncePerPeriod(t *testing.T) {
	var alerts atomic.Int64
	ledger, err := NewLedger(context.Background(),
		WithMonthlyBudget(APIEmbeddings, 0.02),
		WithAlertFunc(func(api string, spend, budget float64) {
			alerts.Add(1)
			assert.Equal(t, APIEmbeddings, api)
			assert.GreaterOrEqual(t, spend, budget*0.8)
		}))
	require.NoError(t, err)

	commit := func(tokens int) {
		res, err := ledger.Reserve(APIEmbeddings, testModel, tokens)
		require.NoError(t, err)
		require.NoError(t, res.Commit(context.Background(), tokens))
	}

	commit(700_000) // 0.014, 70%
	assert.Equal(t, int64(0), alerts.Load())

	commit(200_000) // 0.018, 90%
	assert.Equal(t, int64(1), alerts.Load())

	commit(50_000) // still over threshold, no second alert
	assert.Equal(t, int64(1), alerts.Load())
}

func TestPeriodRollsOverMonthly(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	ledger, err := NewLedger(context.Background(),
		WithMonthlyBudget(APIEmbeddings, 0.02),
		WithClock(clock))
	require.NoError(t, err)

	res, err := ledger.Reserve(APIEmbeddings, testModel, 1_000_000)
	require.NoError(t, err)
	require.NoError(t, res.Commit(context.Background(), 1_000_000))

	// At cap within the period.
	_, err = ledger.Reserve(APIEmbeddings, testModel, 100_000)
	require.ErrorIs(t, err, ErrBudgetExceeded)

	mu.Lock()
	now = time.Date(2026, 9, 1, 0, 0, 1, 0, time.UTC)
	mu.Unlock()

	_, err = ledger.Reserve(APIEmbeddings, testModel, 100_000)
	assert.NoError(t, err)
	usd, tokens := ledger.Spend(APIEmbeddings)
	assert.Zero(t, usd)
	assert.Zero(t, tokens)
}

func TestLedgerRestoresFromStore(t *testing.T) {
	store := newMemoryStore()

	first, err := NewLedger(context.Background(),
		WithMonthlyBudget(APIEmbeddings, 0.021),
		WithStore(store))
	require.NoError(t, err)

	res, err := first.Reserve(APIEmbeddings, testModel, 900_000)
	require.NoError(t, err)
	require.NoError(t, res.Commit(context.Background(), 900_000))

	second, err := NewLedger(context.Background(),
		WithMonthlyBudget(APIEmbeddings, 0.021),
		WithStore(store))
	require.NoError(t, err)

	usd, tokens := second.Spend(APIEmbeddings)
	assert.InDelta(t, 0.018, usd, 1e-9)
	assert.Equal(t, int64(900_000), tokens)

	// 0.018 spent leaves room for 100k (0.002) but not 200k.
	_, err = second.Reserve(APIEmbeddings, testModel, 200_000)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	_, err = second.Reserve(APIEmbeddings, testModel, 100_000)
	assert.NoError(t, err)
}

func TestUnknownModelRejected(t *testing.T) {
	ledger, err := NewLedger(context.Background())
	require.NoError(t, err)

	_, err = ledger.Reserve(APIEmbeddings, "made-up-model", 100)
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestDoubleCommitRejected(t *testing.T) {
	ledger, err := NewLedger(context.Background())
	require.NoError(t, err)

	res, err := ledger.Reserve(APIEmbeddings, testModel, 100)
	require.NoError(t, err)
	require.NoError(t, res.Commit(context.Background(), 100))
	assert.ErrorIs(t, res.Commit(context.Background(), 100), ErrReservationSettled)
}
