package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/poiesic/storyboard/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.Len(t, data, 8)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestMarshalID_SortsNumerically(t *testing.T) {
	assert.Less(t, string(MarshalID(9)), string(MarshalID(10)))
	assert.Less(t, string(MarshalID(255)), string(MarshalID(256)))
}

func TestUnmarshalID_Invalid(t *testing.T) {
	for _, data := range [][]byte{{}, {1, 2, 3}, make([]byte, 9)} {
		_, err := UnmarshalID(data)
		assert.ErrorIs(t, err, ErrTruncatedData)
	}
}

func TestMarshalUnmarshalStoryboardRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		record *core.StoryboardRecord
	}{
		{
			name: "without embedding",
			record: &core.StoryboardRecord{
				ID:         1,
				Content:    json.RawMessage(`{"moduleName":"Fire Safety"}`),
				Seq:        1,
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "with embedding",
			record: &core.StoryboardRecord{
				ID:            2,
				Content:       json.RawMessage(`{"moduleName":"Onboarding","scenes":[]}`),
				Embedding:     []float32{0.1, -0.25, 1e-7, 3.4028235e38},
				SchemeVersion: core.SchemeGemini,
				Seq:           2,
				InsertedAt:    now,
				UpdatedAt:     now.Add(time.Minute),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalStoryboardRecord(tt.record)

			decoded, err := UnmarshalStoryboardRecord(data)
			require.NoError(t, err)
			assert.Equal(t, tt.record, decoded)
		})
	}
}

func TestMarshalStoryboardRecord_ContentVerbatim(t *testing.T) {
	content := json.RawMessage("{\n  \"moduleName\" : \"Café ✓\",\n  \"tags\": [ ]\n}")

	data := MarshalStoryboardRecord(&core.StoryboardRecord{ID: 1, Content: content})

	decoded, err := UnmarshalStoryboardRecord(data)
	require.NoError(t, err)
	assert.Equal(t, []byte(content), []byte(decoded.Content))
}

func TestMarshalStoryboardRecord_ZeroTimes(t *testing.T) {
	record := &core.StoryboardRecord{ID: 3, Content: json.RawMessage(`{}`)}

	decoded, err := UnmarshalStoryboardRecord(MarshalStoryboardRecord(record))
	require.NoError(t, err)
	assert.True(t, decoded.InsertedAt.IsZero())
	assert.True(t, decoded.UpdatedAt.IsZero())
}

func TestUnmarshalStoryboardRecord_Invalid(t *testing.T) {
	valid := MarshalStoryboardRecord(&core.StoryboardRecord{
		ID:            9,
		Content:       json.RawMessage(`{"moduleName":"x"}`),
		Embedding:     []float32{1, 2},
		SchemeVersion: "test-2",
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short id", []byte{0, 0, 1}},
		{"truncated", valid[:len(valid)-3]},
		{"trailing bytes", append(append([]byte{}, valid...), 0xff)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalStoryboardRecord(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestMarshalUnmarshalLedgerEntry(t *testing.T) {
	entry := &core.LedgerEntry{
		Fingerprint: "0123456789abcdef",
		Source:      "decks/fire.pptx",
		RecordID:    7,
		IngestedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	data := MarshalLedgerEntry(entry)

	decoded, err := UnmarshalLedgerEntry(data)
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)

	_, err = UnmarshalLedgerEntry(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
