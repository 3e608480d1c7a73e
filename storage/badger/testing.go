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


package badger

import "github.com/veldt-labs/curio/storage"

// Stores aggregates the per-concern stores sharing one backend.
type Stores struct {
	Records     storage.RecordStore
	States      storage.StateStore
	DeadLetters storage.DeadLetterStore
	Ledgers     storage.LedgerStore

	backend *Backend
}

// Close closes the shared backend.
func (s *Stores) Close() error {
	return s.backend.Close()
}

// NewStores creates all stores over one backend at the given path.
func NewStores(path string) (*Stores, error) {
	return newStores(path, false)
}

// NewMemoryStores creates all stores over one in-memory backend for
// testing. Caller must close the returned Stores when done.
func NewMemoryStores() (*Stores, error) {
	return newStores("", true)
}

func newStores(path string, inMemory bool) (*Stores, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	records, err := NewRecordStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	states, err := NewStateStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	deadLetters, err := NewDeadLetterStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	ledgers, err := NewLedgerStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Stores{
		Records:     records,
		States:      states,
		DeadLetters: deadLetters,
		Ledgers:     ledgers,
		backend:     backend,
	}, nil
}
