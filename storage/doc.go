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


// Package storage provides the storage abstraction layer for curio.
//
// It defines store interfaces that decouple persistence from the
// pipeline, so different backends (BadgerDB, in-memory) are
// interchangeable.
//
//   - RecordStore: embedding records, partitioned by namespace
//   - StateStore: per-source-item processing state for change detection
//   - DeadLetterStore: failed work scheduled for retry
//   - LedgerStore: budget ledger snapshots
//   - TransactionManager: transaction support
//
// Public backend constructors return interface types to prevent
// accidental coupling to a specific backend. Values are serialized with
// mus-go via the Marshal*/Unmarshal* helpers in this package.
//
// All store implementations must be thread-safe, and every method
// accepts a context.Context for cancellation.
package storage
