// Copyright 2025 Poiesic Systems
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
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/storage"
)

// LedgerRepository implements storage.LedgerRepository for BadgerDB.
type LedgerRepository struct {
	backend *Backend
}

var _ storage.LedgerRepository = (*LedgerRepository)(nil)

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(backend *Backend) *LedgerRepository {
	return &LedgerRepository{
		backend: backend,
	}
}

// Record persists an ingestion ledger entry.
func (r *LedgerRepository) Record(ctx context.Context, entry *core.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry.IngestedAt = time.Now().UTC().Truncate(time.Microsecond)
		if err := tx.Set(makeLedgerKey(entry.Fingerprint), storage.MarshalLedgerEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Lookup retrieves the ledger entry for a fingerprint.
// Returns nil, nil if no entry exists.
func (r *LedgerRepository) Lookup(ctx context.Context, fingerprint string) (*core.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entry *core.LedgerEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeLedgerKey(fingerprint))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			entry, unmarshalErr = storage.UnmarshalLedgerEntry(val)
			return unmarshalErr
		})
	}, false)

	return entry, err
}

// Close is a no-op; the backend is owned by the caller.
func (r *LedgerRepository) Close() error {
	return nil
}
