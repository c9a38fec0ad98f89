package badger

import (
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/storage"
)

// Key prefixes. Record keys are prefix followed by the big-endian ID, so a
// prefix scan visits records in ID order.
const (
	storyboardPrefix = "sbrec:"
	storyboardIDSeq  = "sbrecseq"
	ledgerPrefix     = "ledger:"
)

// makeStoryboardKey generates a key for a storyboard record by ID.
func makeStoryboardKey(id core.ID) []byte {
	return append([]byte(storyboardPrefix), storage.MarshalID(id)...)
}

// idFromStoryboardKey recovers the ID from a storyboard key.
func idFromStoryboardKey(key []byte) (core.ID, error) {
	return storage.UnmarshalID(key[len(storyboardPrefix):])
}

// makeLedgerKey generates a key for an ingestion ledger entry.
func makeLedgerKey(fingerprint string) []byte {
	return []byte(ledgerPrefix + fingerprint)
}
