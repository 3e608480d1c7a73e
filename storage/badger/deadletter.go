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

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/storage"
)

// DeadLetterStore implements storage.DeadLetterStore for BadgerDB.
type DeadLetterStore struct {
	backend *Backend
}

var _ storage.DeadLetterStore = (*DeadLetterStore)(nil)

// NewDeadLetterStore creates a dead letter store over the backend.
//
// Returns storage.DeadLetterStore interface to enforce abstraction.
func NewDeadLetterStore(backend *Backend) (storage.DeadLetterStore, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &DeadLetterStore{backend: backend}, nil
}

// SaveEntry persists the entry keyed by (chunk id, stage).
func (s *DeadLetterStore) SaveEntry(ctx context.Context, entry *core.DeadLetterEntry) error {
	if entry == nil || entry.ChunkID == 0 {
		return fmt.Errorf("%w: entry with chunk id is required", storage.ErrInvalidQuery)
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDeadLetterKey(entry.ChunkID, entry.Stage)
		if err := tx.Set(key, storage.MarshalDeadLetterEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves an entry by chunk id and stage.
func (s *DeadLetterStore) GetEntry(ctx context.Context, id core.ID, stage core.Stage) (*core.DeadLetterEntry, error) {
	var entry *core.DeadLetterEntry
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDeadLetterKey(id, stage))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			entry, err = storage.UnmarshalDeadLetterEntry(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns all entries, ordered by chunk id.
func (s *DeadLetterStore) ListEntries(ctx context.Context) ([]*core.DeadLetterEntry, error) {
	var entries []*core.DeadLetterEntry

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(deadLetterPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var entry *core.DeadLetterEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalDeadLetterEntry(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}
			entries = append(entries, entry)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteEntry removes an entry. Missing entries are ignored.
func (s *DeadLetterStore) DeleteEntry(ctx context.Context, id core.ID, stage core.Stage) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeDeadLetterKey(id, stage)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CountEntries returns the number of stored entries.
func (s *DeadLetterStore) CountEntries(ctx context.Context) (int, error) {
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(deadLetterPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}
