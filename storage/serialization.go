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

package storage

import (
	"fmt"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/storyboard/core"
)

const idSize = 8

// IDMUS encodes an ID as 8 big-endian bytes so encoded IDs sort in numeric
// order. raw.Uint64 is little-endian and cannot be used for keys.
var IDMUS mus.Serializer[core.ID] = idMUS{}

type idMUS struct{}

func (s idMUS) Marshal(v core.ID, bs []byte) (n int) {
	_ = bs[idSize-1]
	for i := range idSize {
		bs[i] = byte(v >> (8 * (idSize - 1 - i)))
	}
	return idSize
}

func (s idMUS) Unmarshal(bs []byte) (v core.ID, n int, err error) {
	if len(bs) < idSize {
		return 0, 0, mus.ErrTooSmallByteSlice
	}
	for i := range idSize {
		v = v<<8 | core.ID(bs[i])
	}
	return v, idSize, nil
}

func (s idMUS) Size(v core.ID) (size int) {
	return idSize
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	if len(bs) < idSize {
		return 0, mus.ErrTooSmallByteSlice
	}
	return idSize, nil
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, IDMUS.Size(id))
	IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) != idSize {
		return 0, fmt.Errorf("%w: id needs %d bytes, got %d", ErrTruncatedData, idSize, len(data))
	}
	id, _, err := IDMUS.Unmarshal(data)
	return id, err
}

// Timestamps are stored as Unix microseconds and decoded as UTC.
var (
	timeMUS   = raw.TimeUnixMicroUTC
	vectorMUS = ord.NewSliceSer[float32](raw.Float32)
)

// StoryboardRecordMUS serializes a StoryboardRecord. Content is written as a
// length-prefixed byte slice, so it is returned exactly as stored.
var StoryboardRecordMUS mus.Serializer[core.StoryboardRecord] = storyboardRecordMUS{}

type storyboardRecordMUS struct{}

func (s storyboardRecordMUS) Marshal(v core.StoryboardRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ID, bs)
	n += ord.ByteSlice.Marshal(v.Content, bs[n:])
	n += vectorMUS.Marshal(v.Embedding, bs[n:])
	n += ord.String.Marshal(v.SchemeVersion, bs[n:])
	n += varint.Uint64.Marshal(v.Seq, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return n + timeMUS.Marshal(v.UpdatedAt, bs[n:])
}

func (s storyboardRecordMUS) Unmarshal(bs []byte) (v core.StoryboardRecord, n int, err error) {
	v.ID, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Content, n1, err = ord.ByteSlice.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Embedding, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if len(v.Embedding) == 0 {
		v.Embedding = nil
	}
	v.SchemeVersion, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Seq, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s storyboardRecordMUS) Size(v core.StoryboardRecord) (size int) {
	size = IDMUS.Size(v.ID)
	size += ord.ByteSlice.Size(v.Content)
	size += vectorMUS.Size(v.Embedding)
	size += ord.String.Size(v.SchemeVersion)
	size += varint.Uint64.Size(v.Seq)
	size += timeMUS.Size(v.InsertedAt)
	return size + timeMUS.Size(v.UpdatedAt)
}

func (s storyboardRecordMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// LedgerEntryMUS serializes a LedgerEntry.
var LedgerEntryMUS mus.Serializer[core.LedgerEntry] = ledgerEntryMUS{}

type ledgerEntryMUS struct{}

func (s ledgerEntryMUS) Marshal(v core.LedgerEntry, bs []byte) (n int) {
	n = ord.String.Marshal(v.Fingerprint, bs)
	n += ord.String.Marshal(v.Source, bs[n:])
	n += IDMUS.Marshal(v.RecordID, bs[n:])
	return n + timeMUS.Marshal(v.IngestedAt, bs[n:])
}

func (s ledgerEntryMUS) Unmarshal(bs []byte) (v core.LedgerEntry, n int, err error) {
	v.Fingerprint, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.RecordID, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.IngestedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s ledgerEntryMUS) Size(v core.LedgerEntry) (size int) {
	size = ord.String.Size(v.Fingerprint)
	size += ord.String.Size(v.Source)
	size += IDMUS.Size(v.RecordID)
	return size + timeMUS.Size(v.IngestedAt)
}

func (s ledgerEntryMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// MarshalStoryboardRecord serializes a StoryboardRecord to bytes.
func MarshalStoryboardRecord(record *core.StoryboardRecord) []byte {
	buf := make([]byte, StoryboardRecordMUS.Size(*record))
	StoryboardRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalStoryboardRecord deserializes a StoryboardRecord from bytes.
func UnmarshalStoryboardRecord(data []byte) (*core.StoryboardRecord, error) {
	record, n, err := StoryboardRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &record, nil
}

// MarshalLedgerEntry serializes a LedgerEntry to bytes.
func MarshalLedgerEntry(entry *core.LedgerEntry) []byte {
	buf := make([]byte, LedgerEntryMUS.Size(*entry))
	LedgerEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalLedgerEntry deserializes a LedgerEntry from bytes.
func UnmarshalLedgerEntry(data []byte) (*core.LedgerEntry, error) {
	entry, n, err := LedgerEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &entry, nil
}
