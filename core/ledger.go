package core

import "time"

// LedgerEntry records that a source document was ingested.
type LedgerEntry struct {
	// Fingerprint identifies the source bytes (see Fingerprint).
	Fingerprint string
	// Source is the path the document was read from.
	Source string
	// RecordID is the stored storyboard created from the source.
	RecordID ID
	// IngestedAt is set by the ledger when the entry is recorded.
	IngestedAt time.Time
}
