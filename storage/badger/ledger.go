package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/veldt-labs/curio/core"
	"github.com/veldt-labs/curio/storage"
)

// LedgerStore implements storage.LedgerStore for BadgerDB.
type LedgerStore struct {
	backend *Backend
}

var _ storage.LedgerStore = (*LedgerStore)(nil)

// NewLedgerStore creates a ledger snapshot store over the backend.
//
// Returns storage.LedgerStore interface to enforce abstraction.
func NewLedgerStore(backend *Backend) (storage.LedgerStore, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &LedgerStore{backend: backend}, nil
}

// SaveLedger persists the snapshot for its API.
func (s *LedgerStore) SaveLedger(ctx context.Context, snapshot core.LedgerSnapshot) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeLedgerKey(snapshot.API), storage.MarshalLedgerSnapshot(&snapshot)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadLedger returns the persisted snapshot for the API, or nil when
// none exists.
func (s *LedgerStore) LoadLedger(ctx context.Context, api string) (*core.LedgerSnapshot, error) {
	var snapshot *core.LedgerSnapshot
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeLedgerKey(api))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			snapshot, err = storage.UnmarshalLedgerSnapshot(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
