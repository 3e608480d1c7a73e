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
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/veldt-labs/curio/core"
)

// RateLimitConfig holds rate limiting configuration for a source API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimits provides conservative defaults per source, well
// below the published API limits to avoid hitting quotas.
var DefaultRateLimits = map[core.SourceType]RateLimitConfig{
	core.SourceSlack:  {RequestsPerSecond: 0.8, BurstSize: 2}, // Tier 3 methods allow ~50/min
	core.SourceNotion: {RequestsPerSecond: 2.5, BurstSize: 3}, // Notion allows 3/sec average
	core.SourceDrive:  {RequestsPerSecond: 8.0, BurstSize: 10},
}

// RateLimiter provides rate limiting for source API requests.
// It uses a token bucket with optional backoff for 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a rate limiter with the default configuration
// for the source.
func NewRateLimiter(source core.SourceType) *RateLimiter {
	cfg, ok := DefaultRateLimits[source]
	if !ok {
		cfg = RateLimitConfig{RequestsPerSecond: 1.0, BurstSize: 2}
	}
	return NewRateLimiterWithConfig(cfg)
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made without exceeding the rate
// limit. It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError records a 429 response and sets a backoff period.
func (r *RateLimiter) RecordRateLimitError(retryAfterSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfterSeconds <= 0 {
		retryAfterSeconds = 60
	}
	r.retryAt = time.Now().Add(time.Duration(retryAfterSeconds) * time.Second)
}

// Allow reports whether a request can be made immediately without
// blocking.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}
