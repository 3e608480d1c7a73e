package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadLetterEntryMUSRoundTrip(t *testing.T) {
	entry := DeadLetterEntry{
		ChunkID:      ChunkID("C1/1700000000.000100", 0),
		Stage:        StageSummarize,
		State:        DeadLetterRetrying,
		AttemptCount: 1,
		LastError:    "summarization failed",
		NextRetryAt:  time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC),
		Chunk: Chunk{
			ID:         ChunkID("C1/1700000000.000100", 0),
			Text:       "restart the worker before deploying",
			TokenCount: 6,
			StartToken: 0,
			EndToken:   6,
			Index:      0,
			Source:     SourceSlack,
			SourceID:   "C1/1700000000.000100",
			Author:     "U42",
			Timestamp:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			URL:        "https://example.test/m",
		},
		CreatedAt: time.Date(2026, 3, 10, 9, 0, 1, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 10, 9, 0, 2, 0, time.UTC),
	}

	buf := make([]byte, DeadLetterEntryMUS.Size(entry))
	n := DeadLetterEntryMUS.Marshal(entry, buf)
	require.Equal(t, len(buf), n)

	decoded, n, err := DeadLetterEntryMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, entry, decoded)
}

func TestDeadLetterEntryMUSTruncated(t *testing.T) {
	entry := DeadLetterEntry{
		ChunkID: ChunkID("C1/1", 0),
		Chunk:   Chunk{ID: ChunkID("C1/1", 0), Text: "short"},
	}

	buf := make([]byte, DeadLetterEntryMUS.Size(entry))
	DeadLetterEntryMUS.Marshal(entry, buf)

	_, _, err := DeadLetterEntryMUS.Unmarshal(buf[:len(buf)/2])
	assert.Error(t, err)
}
