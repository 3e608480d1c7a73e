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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veldt-labs/curio/core"
)

// API names the external services the ledger meters.
const (
	APIEmbeddings  = "embeddings"
	APICompletions = "completions"
)

// DefaultMonthlyBudgetUSD is the per-API spending cap applied when no
// explicit budget is configured.
const DefaultMonthlyBudgetUSD = 50.0

// alertThreshold is the utilization fraction at which the alert hook fires.
const alertThreshold = 0.8

// Store persists ledger snapshots so spending caps hold across restarts.
type Store interface {
	// SaveLedger persists the snapshot for its API, overwriting any
	// previous one.
	SaveLedger(ctx context.Context, snapshot core.LedgerSnapshot) error

	// LoadLedger returns the persisted snapshot for the API, or nil when
	// none exists.
	LoadLedger(ctx context.Context, api string) (*core.LedgerSnapshot, error)
}

// AlertFunc is invoked when an API first crosses the alert threshold
// within a budget period. It must not block.
type AlertFunc func(api string, spendUSD, budgetUSD float64)

// Ledger is a thread-safe monthly cost ledger. Every metered call
// reserves its estimated cost first, then commits actual usage or
// releases the reservation on failure. Reservations count against the
// cap, so concurrent callers can never jointly exceed it.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]*entry
	budgets map[string]float64
	costs   CostTable
	store   Store
	alert   AlertFunc
	now     func() time.Time
	logger  *slog.Logger
}

type entry struct {
	periodStart time.Time
	tokens      int64
	spendUSD    float64
	reservedUSD float64
	alerted     bool
}

// Option configures a Ledger.
type Option func(*Ledger) error

// WithMonthlyBudget sets the monthly spending cap in USD for one API.
func WithMonthlyBudget(api string, usd float64) Option {
	return func(l *Ledger) error {
		if usd <= 0 {
			return fmt.Errorf("%w: %s: %v", ErrInvalidBudget, api, usd)
		}
		l.budgets[api] = usd
		return nil
	}
}

// WithCostTable replaces the default per-model cost table.
func WithCostTable(table CostTable) Option {
	return func(l *Ledger) error {
		if len(table) == 0 {
			return ErrEmptyCostTable
		}
		l.costs = table
		return nil
	}
}

// WithAlertFunc sets the hook fired when an API crosses the alert
// threshold. Fired at most once per period per API.
func WithAlertFunc(fn AlertFunc) Option {
	return func(l *Ledger) error {
		l.alert = fn
		return nil
	}
}

// WithStore sets the snapshot store. Without one the ledger is
// in-memory only and resets on restart.
func WithStore(store Store) Option {
	return func(l *Ledger) error {
		l.store = store
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) error {
		if now == nil {
			return ErrNilClock
		}
		l.now = now
		return nil
	}
}

// NewLedger creates a ledger and restores persisted snapshots for both
// metered APIs when a store is configured.
func NewLedger(ctx context.Context, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		entries: make(map[string]*entry),
		budgets: map[string]float64{
			APIEmbeddings:  DefaultMonthlyBudgetUSD,
			APICompletions: DefaultMonthlyBudgetUSD,
		},
		costs:  DefaultCostTable(),
		now:    time.Now,
		logger: slog.Default().With("component", "budget"),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if l.store != nil {
		for api := range l.budgets {
			snapshot, err := l.store.LoadLedger(ctx, api)
			if err != nil {
				return nil, fmt.Errorf("restoring ledger for %s: %w", api, err)
			}
			if snapshot == nil {
				continue
			}
			l.entries[api] = &entry{
				periodStart: snapshot.PeriodStart,
				tokens:      snapshot.Tokens,
				spendUSD:    snapshot.SpendUSD,
				alerted:     snapshot.Alerted,
			}
		}
	}
	return l, nil
}

// Reservation holds an estimated cost against the cap until the call
// settles. Exactly one of Commit or Release must be called.
type Reservation struct {
	ledger *Ledger
	api    string
	model  string
	usd    float64
	done   bool
}

// Reserve checks the estimated call cost against the remaining budget
// and holds it. Returns ErrBudgetExceeded when the period's spend plus
// outstanding reservations would cross the cap; the caller must not make
// the API call in that case.
func (l *Ledger) Reserve(api, model string, tokens int) (*Reservation, error) {
	usd, err := l.costs.Cost(model, tokens)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.currentEntry(api)
	budget := l.budgets[api]
	if budget > 0 && e.spendUSD+e.reservedUSD+usd > budget {
		return nil, fmt.Errorf("%w: %s period spend %.4f + reserved %.4f + %.4f exceeds %.2f USD",
			ErrBudgetExceeded, api, e.spendUSD, e.reservedUSD, usd, budget)
	}
	e.reservedUSD += usd

	return &Reservation{ledger: l, api: api, model: model, usd: usd}, nil
}

// Commit settles the reservation with the actual token usage reported by
// the provider and persists the updated snapshot.
func (r *Reservation) Commit(ctx context.Context, tokens int) error {
	if r.done {
		return ErrReservationSettled
	}
	r.done = true

	usd, err := r.ledger.costs.Cost(r.model, tokens)
	if err != nil {
		// Unknown model on commit cannot happen after a successful
		// reserve with the same model; settle with the estimate.
		usd = r.usd
	}

	l := r.ledger
	l.mu.Lock()
	e := l.currentEntry(r.api)
	e.reservedUSD -= r.usd
	if e.reservedUSD < 0 {
		e.reservedUSD = 0
	}
	e.tokens += int64(tokens)
	e.spendUSD += usd
	snapshot := l.snapshotLocked(r.api, e)
	fireAlert := l.shouldAlertLocked(r.api, e)
	l.mu.Unlock()

	if fireAlert {
		l.logger.Warn("budget alert threshold crossed",
			"api", r.api,
			"spend_usd", snapshot.SpendUSD,
			"budget_usd", l.budgets[r.api])
		if l.alert != nil {
			l.alert(r.api, snapshot.SpendUSD, l.budgets[r.api])
		}
		snapshot.Alerted = true
	}

	if l.store != nil {
		if err := l.store.SaveLedger(ctx, snapshot); err != nil {
			return fmt.Errorf("persisting ledger for %s: %w", r.api, err)
		}
	}
	return nil
}

// Release returns the reservation to the budget after a failed call.
func (r *Reservation) Release() {
	if r.done {
		return
	}
	r.done = true

	l := r.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.currentEntry(r.api)
	e.reservedUSD -= r.usd
	if e.reservedUSD < 0 {
		e.reservedUSD = 0
	}
}

// Spend returns the committed spend and token count for the API in the
// current period.
func (l *Ledger) Spend(api string) (usd float64, tokens int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.currentEntry(api)
	return e.spendUSD, e.tokens
}

// Remaining returns the budget left for the API in the current period,
// net of outstanding reservations.
func (l *Ledger) Remaining(api string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.currentEntry(api)
	remaining := l.budgets[api] - e.spendUSD - e.reservedUSD
	if remaining < 0 {
		return 0
	}
	return remaining
}

// currentEntry returns the entry for the API, rolling the period over to
// the current month when the stored one is stale. Callers hold l.mu.
func (l *Ledger) currentEntry(api string) *entry {
	period := periodStart(l.now())
	e, ok := l.entries[api]
	if !ok || !e.periodStart.Equal(period) {
		if ok {
			l.logger.Info("budget period rolled over",
				"api", api,
				"previous_spend_usd", e.spendUSD,
				"previous_tokens", e.tokens)
		}
		e = &entry{periodStart: period}
		l.entries[api] = e
	}
	return e
}

func (l *Ledger) snapshotLocked(api string, e *entry) core.LedgerSnapshot {
	return core.LedgerSnapshot{
		API:         api,
		PeriodStart: e.periodStart,
		Tokens:      e.tokens,
		SpendUSD:    e.spendUSD,
		Alerted:     e.alerted,
	}
}

func (l *Ledger) shouldAlertLocked(api string, e *entry) bool {
	budget := l.budgets[api]
	if budget <= 0 || e.alerted || e.spendUSD < budget*alertThreshold {
		return false
	}
	e.alerted = true
	return true
}

// periodStart truncates a time to the first instant of its UTC month.
func periodStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
