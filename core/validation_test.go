package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validItem() ContentItem {
	return NewContentItem(SourceNotion, "page-1", "quarterly planning notes", "maya", time.Now().Add(-time.Hour), "https://notion.test/page-1")
}

func TestValidateContentItem(t *testing.T) {
	t.Run("valid item", func(t *testing.T) {
		item := validItem()
		require.NoError(t, ValidateContentItem(&item))
	})

	t.Run("nil item", func(t *testing.T) {
		err := ValidateContentItem(nil)
		assert.ErrorIs(t, err, ErrInvalidContentItem)
	})

	t.Run("empty source id", func(t *testing.T) {
		item := validItem()
		item.SourceID = ""
		err := ValidateContentItem(&item)
		assert.ErrorIs(t, err, ErrEmptySourceID)
	})

	t.Run("empty text", func(t *testing.T) {
		item := validItem()
		item.RawText = ""
		err := ValidateContentItem(&item)
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("unknown source type", func(t *testing.T) {
		item := validItem()
		item.Source = SourceType("wiki")
		err := ValidateContentItem(&item)
		assert.ErrorIs(t, err, ErrInvalidSourceType)
	})

	t.Run("future timestamp", func(t *testing.T) {
		item := validItem()
		item.Timestamp = time.Now().Add(48 * time.Hour)
		err := ValidateContentItem(&item)
		assert.ErrorIs(t, err, ErrInvalidTimestamp)
	})

	t.Run("missing content hash", func(t *testing.T) {
		item := validItem()
		item.ContentHash = 0
		err := ValidateContentItem(&item)
		assert.ErrorIs(t, err, ErrMissingContentHash)
	})
}

func TestValidateChunk(t *testing.T) {
	valid := Chunk{
		ID:         ChunkID("page-1", 0),
		Text:       "quarterly planning notes",
		TokenCount: 4,
		Source:     SourceNotion,
		SourceID:   "page-1",
	}

	t.Run("valid chunk", func(t *testing.T) {
		chunk := valid
		require.NoError(t, ValidateChunk(&chunk))
	})

	t.Run("nil chunk", func(t *testing.T) {
		assert.ErrorIs(t, ValidateChunk(nil), ErrInvalidChunk)
	})

	t.Run("zero id", func(t *testing.T) {
		chunk := valid
		chunk.ID = 0
		assert.ErrorIs(t, ValidateChunk(&chunk), ErrInvalidChunk)
	})

	t.Run("empty text", func(t *testing.T) {
		chunk := valid
		chunk.Text = ""
		assert.ErrorIs(t, ValidateChunk(&chunk), ErrEmptyText)
	})

	t.Run("zero token count", func(t *testing.T) {
		chunk := valid
		chunk.TokenCount = 0
		assert.ErrorIs(t, ValidateChunk(&chunk), ErrInvalidChunk)
	})
}

func TestValidateSourceType(t *testing.T) {
	for _, source := range SourceTypes {
		assert.NoError(t, ValidateSourceType(source))
	}
	assert.ErrorIs(t, ValidateSourceType(SourceType("email")), ErrInvalidSourceType)
}

func TestMUSRoundTrip(t *testing.T) {
	ts := time.Date(2026, 5, 2, 16, 30, 0, 0, time.UTC)

	t.Run("chunk", func(t *testing.T) {
		chunk := Chunk{
			ID:         ChunkID("doc-7", 450),
			Text:       "rollback by redeploying the previous tag",
			TokenCount: 8,
			StartToken: 450,
			EndToken:   458,
			Index:      1,
			Source:     SourceDrive,
			SourceID:   "doc-7",
			Author:     "ops",
			Timestamp:  ts,
			URL:        "https://drive.test/doc-7",
		}
		bs := make([]byte, ChunkMUS.Size(chunk))
		n := ChunkMUS.Marshal(chunk, bs)
		require.Equal(t, len(bs), n)

		got, m, err := ChunkMUS.Unmarshal(bs)
		require.NoError(t, err)
		assert.Equal(t, n, m)
		assert.Equal(t, chunk, got)
	})

	t.Run("dead letter entry carries chunk payload", func(t *testing.T) {
		entry := DeadLetterEntry{
			ChunkID:      ChunkID("doc-7", 0),
			Stage:        StageEmbed,
			State:        DeadLetterRetrying,
			AttemptCount: 1,
			LastError:    "provider error: 500",
			NextRetryAt:  ts.Add(5 * time.Minute),
			Chunk: Chunk{
				ID:         ChunkID("doc-7", 0),
				Text:       "deploy steps",
				TokenCount: 2,
				EndToken:   2,
				Source:     SourceDrive,
				SourceID:   "doc-7",
				Timestamp:  ts,
			},
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		bs := make([]byte, DeadLetterEntryMUS.Size(entry))
		DeadLetterEntryMUS.Marshal(entry, bs)

		got, _, err := DeadLetterEntryMUS.Unmarshal(bs)
		require.NoError(t, err)
		assert.Equal(t, entry, got)
	})

	t.Run("source state", func(t *testing.T) {
		state := SourceState{
			Source:      SourceSlack,
			SourceID:    "C9/1700000000.1",
			ContentHash: HashContent("hello"),
			ChunkIDs:    []ID{1, 2, 3},
			ProcessedAt: ts,
		}
		bs := make([]byte, SourceStateMUS.Size(state))
		SourceStateMUS.Marshal(state, bs)

		got, _, err := SourceStateMUS.Unmarshal(bs)
		require.NoError(t, err)
		assert.Equal(t, state, got)
	})

	t.Run("ledger snapshot", func(t *testing.T) {
		snap := LedgerSnapshot{
			API:         "embedding",
			PeriodStart: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			Tokens:      123456,
			SpendUSD:    2.469,
			Alerted:     true,
		}
		bs := make([]byte, LedgerSnapshotMUS.Size(snap))
		LedgerSnapshotMUS.Marshal(snap, bs)

		got, _, err := LedgerSnapshotMUS.Unmarshal(bs)
		require.NoError(t, err)
		assert.Equal(t, snap, got)
	})
}
