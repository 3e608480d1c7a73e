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
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/storage"
)

// RecordStore implements storage.RecordStore for BadgerDB.
type RecordStore struct {
	backend *Backend
}

var _ storage.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates a record store over the backend.
//
// Returns storage.RecordStore interface to enforce abstraction.
func NewRecordStore(backend *Backend) (storage.RecordStore, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &RecordStore{backend: backend}, nil
}

// PutRecords upserts embedding records keyed by (namespace, chunk id).
// The indexed-at time index is kept consistent: an overwrite removes the
// previous index entry before writing the new one.
func (s *RecordStore) PutRecords(ctx context.Context, records ...*core.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.Namespace == "" {
				return fmt.Errorf("%w: record %d has no namespace", storage.ErrInvalidQuery, record.ChunkID)
			}

			key := makeRecordKey(record.Namespace, record.ChunkID)
			if previous, err := readRecord(tx, key); err == nil {
				if err := tx.Delete(makeRecordTimeKey(previous.Namespace, previous.IndexedAt, previous.ChunkID)); err != nil {
					return err
				}
			} else if !errors.Is(err, storage.ErrNotFound) {
				return err
			}

			if err := tx.Set(key, storage.MarshalEmbeddingRecord(record)); err != nil {
				return err
			}
			if err := tx.Set(makeRecordTimeKey(record.Namespace, record.IndexedAt, record.ChunkID), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetRecord retrieves a record by namespace and chunk id.
func (s *RecordStore) GetRecord(ctx context.Context, namespace string, id core.ID) (*core.EmbeddingRecord, error) {
	var record *core.EmbeddingRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = readRecord(tx, makeRecordKey(namespace, id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecords removes records and their time index entries. Missing
// ids are ignored so tombstone replays are safe.
func (s *RecordStore) DeleteRecords(ctx context.Context, namespace string, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeRecordKey(namespace, id)
			record, err := readRecord(tx, key)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := tx.Delete(makeRecordTimeKey(record.Namespace, record.IndexedAt, record.ChunkID)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ForEachRecord calls fn for every record in the namespace.
func (s *RecordStore) ForEachRecord(ctx context.Context, namespace string, fn func(*core.EmbeddingRecord) error) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordIterPrefix(namespace)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// RecordsSince returns records indexed at or after the given time,
// ordered by indexed-at ascending. Uses the time index, so cost scales
// with the result size rather than the namespace size.
func (s *RecordStore) RecordsSince(ctx context.Context, namespace string, since time.Time) ([]*core.EmbeddingRecord, error) {
	var records []*core.EmbeddingRecord

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeRecordTimeIterPrefix(namespace)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makePartialRecordTimeKey(namespace, since)); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}
			id := core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))

			record, err := readRecord(tx, makeRecordKey(namespace, id))
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// readRecord reads and unmarshals a record inside a transaction.
func readRecord(tx *badger.Txn, key []byte) (*core.EmbeddingRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var record *core.EmbeddingRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalEmbeddingRecord(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return record, nil
}
