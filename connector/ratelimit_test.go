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

package connector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/curio/core"
)

func TestNewRateLimiterUsesSourceDefaults(t *testing.T) {
	for _, source := range core.SourceTypes {
		limiter := NewRateLimiter(source)
		require.NotNil(t, limiter, "source %s", source)
		assert.True(t, limiter.Allow())
	}
}

func TestNewRateLimiterUnknownSourceFallsBack(t *testing.T) {
	limiter := NewRateLimiter(core.SourceType("carrier-pigeon"))
	require.NotNil(t, limiter)
	assert.True(t, limiter.Allow())
}

func TestAllowExhaustsBurst(t *testing.T) {
	limiter := NewRateLimiterWithConfig(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2})

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())
}

func TestRecordRateLimitErrorBlocksAllow(t *testing.T) {
	limiter := NewRateLimiterWithConfig(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10})

	limiter.RecordRateLimitError(30)
	assert.False(t, limiter.Allow())
}

func TestWaitHonorsContextDuringBackoff(t *testing.T) {
	limiter := NewRateLimiterWithConfig(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10})
	limiter.RecordRateLimitError(60)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitAllowsWithinBurst(t *testing.T) {
	limiter := NewRateLimiterWithConfig(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 5})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}
}
