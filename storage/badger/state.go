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

// StateStore implements storage.StateStore for BadgerDB.
type StateStore struct {
	backend *Backend
}

var _ storage.StateStore = (*StateStore)(nil)

// NewStateStore creates a source state store over the backend.
//
// Returns storage.StateStore interface to enforce abstraction.
func NewStateStore(backend *Backend) (storage.StateStore, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &StateStore{backend: backend}, nil
}

// SaveSourceState persists the state, overwriting any previous state for
// the same (source, source id) pair.
func (s *StateStore) SaveSourceState(ctx context.Context, state *core.SourceState) error {
	if state == nil || state.SourceID == "" {
		return fmt.Errorf("%w: state with source id is required", storage.ErrInvalidQuery)
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeStateKey(state.Source, state.SourceID)
		if err := tx.Set(key, storage.MarshalSourceState(state)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetSourceState returns the state for the pair, or nil when the item
// has never been processed.
func (s *StateStore) GetSourceState(ctx context.Context, source core.SourceType, sourceID string) (*core.SourceState, error) {
	var state *core.SourceState
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeStateKey(source, sourceID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			state, err = storage.UnmarshalSourceState(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// ForEachSourceState calls fn for every stored state of the source.
func (s *StateStore) ForEachSourceState(ctx context.Context, source core.SourceType, fn func(*core.SourceState) error) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeStateIterPrefix(source)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var state *core.SourceState
			err := iter.Item().Value(func(val []byte) error {
				var err error
				state, err = storage.UnmarshalSourceState(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}
			if err := fn(state); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// DeleteSourceState removes the state for the pair. Missing pairs are
// ignored.
func (s *StateStore) DeleteSourceState(ctx context.Context, source core.SourceType, sourceID string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeStateKey(source, sourceID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
