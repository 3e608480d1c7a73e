package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for every persisted core type. Timestamps are stored as
// Unix microseconds; vectors use the fixed-size float32 encoding.

// IDMUS is the MUS serializer for ID.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

var (
	idSliceMUS  = ord.NewSliceSer[ID](IDMUS)
	vectorMUS   = ord.NewSliceSer[float32](raw.Float32)
	timeMUS     = timeMicroMUS{}
)

// timeMicroMUS serializes time.Time as Unix microseconds in UTC.
type timeMicroMUS struct{}

func (timeMicroMUS) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (timeMicroMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func (timeMicroMUS) Size(v time.Time) int {
	return varint.Int64.Size(v.UnixMicro())
}

func (timeMicroMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

// ChunkMUS is the MUS serializer for Chunk.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += varint.Int.Marshal(v.TokenCount, bs[n:])
	n += varint.Int.Marshal(v.StartToken, bs[n:])
	n += varint.Int.Marshal(v.EndToken, bs[n:])
	n += varint.Int.Marshal(v.Index, bs[n:])
	n += ord.String.Marshal(string(v.Source), bs[n:])
	n += ord.String.Marshal(v.SourceID, bs[n:])
	n += ord.String.Marshal(v.Author, bs[n:])
	n += timeMUS.Marshal(v.Timestamp, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	if v.ID, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.StartToken, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EndToken, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Index, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var source string
	source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Source = SourceType(source)
	v.SourceID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Author, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.URL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return
}

func (chunkMUS) Size(v Chunk) (size int) {
	size = IDMUS.Size(v.ID)
	size += ord.String.Size(v.Text)
	size += varint.Int.Size(v.TokenCount)
	size += varint.Int.Size(v.StartToken)
	size += varint.Int.Size(v.EndToken)
	size += varint.Int.Size(v.Index)
	size += ord.String.Size(string(v.Source))
	size += ord.String.Size(v.SourceID)
	size += ord.String.Size(v.Author)
	size += timeMUS.Size(v.Timestamp)
	size += ord.String.Size(v.URL)
	return size
}

// EmbeddingRecordMUS is the MUS serializer for EmbeddingRecord.
var EmbeddingRecordMUS = embeddingRecordMUS{}

type embeddingRecordMUS struct{}

func (embeddingRecordMUS) Marshal(v EmbeddingRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ChunkID, bs)
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += ord.String.Marshal(v.Summary, bs[n:])
	n += ord.String.Marshal(v.Namespace, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(string(v.Source), bs[n:])
	n += ord.String.Marshal(v.SourceID, bs[n:])
	n += ord.String.Marshal(v.Author, bs[n:])
	n += timeMUS.Marshal(v.Timestamp, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	n += timeMUS.Marshal(v.IndexedAt, bs[n:])
	return n
}

func (embeddingRecordMUS) Unmarshal(bs []byte) (v EmbeddingRecord, n int, err error) {
	var n1 int
	if v.ChunkID, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Summary, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Namespace, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var source string
	source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Source = SourceType(source)
	v.SourceID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Author, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.URL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.IndexedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return
}

func (embeddingRecordMUS) Size(v EmbeddingRecord) (size int) {
	size = IDMUS.Size(v.ChunkID)
	size += vectorMUS.Size(v.Vector)
	size += ord.String.Size(v.Summary)
	size += ord.String.Size(v.Namespace)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(string(v.Source))
	size += ord.String.Size(v.SourceID)
	size += ord.String.Size(v.Author)
	size += timeMUS.Size(v.Timestamp)
	size += ord.String.Size(v.URL)
	size += timeMUS.Size(v.IndexedAt)
	return size
}

// DeadLetterEntryMUS is the MUS serializer for DeadLetterEntry.
var DeadLetterEntryMUS = deadLetterEntryMUS{}

type deadLetterEntryMUS struct{}

func (deadLetterEntryMUS) Marshal(v DeadLetterEntry, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ChunkID, bs)
	n += varint.Int.Marshal(int(v.Stage), bs[n:])
	n += varint.Int.Marshal(int(v.State), bs[n:])
	n += varint.Int.Marshal(v.AttemptCount, bs[n:])
	n += ord.String.Marshal(v.LastError, bs[n:])
	n += timeMUS.Marshal(v.NextRetryAt, bs[n:])
	n += ChunkMUS.Marshal(v.Chunk, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	n += timeMUS.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (deadLetterEntryMUS) Unmarshal(bs []byte) (v DeadLetterEntry, n int, err error) {
	var n1 int
	if v.ChunkID, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	var stage, state int
	stage, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Stage = Stage(stage)
	state, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.State = DeadLetterState(state)
	v.AttemptCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.LastError, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.NextRetryAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Chunk, n1, err = ChunkMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return
}

func (deadLetterEntryMUS) Size(v DeadLetterEntry) (size int) {
	size = IDMUS.Size(v.ChunkID)
	size += varint.Int.Size(int(v.Stage))
	size += varint.Int.Size(int(v.State))
	size += varint.Int.Size(v.AttemptCount)
	size += ord.String.Size(v.LastError)
	size += timeMUS.Size(v.NextRetryAt)
	size += ChunkMUS.Size(v.Chunk)
	size += timeMUS.Size(v.CreatedAt)
	size += timeMUS.Size(v.UpdatedAt)
	return size
}

// SourceStateMUS is the MUS serializer for SourceState.
var SourceStateMUS = sourceStateMUS{}

type sourceStateMUS struct{}

func (sourceStateMUS) Marshal(v SourceState, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.Source), bs)
	n += ord.String.Marshal(v.SourceID, bs[n:])
	n += IDMUS.Marshal(v.ContentHash, bs[n:])
	n += idSliceMUS.Marshal(v.ChunkIDs, bs[n:])
	n += timeMUS.Marshal(v.ProcessedAt, bs[n:])
	return n
}

func (sourceStateMUS) Unmarshal(bs []byte) (v SourceState, n int, err error) {
	var n1 int
	var source string
	if source, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	v.Source = SourceType(source)
	v.SourceID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ContentHash, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ChunkIDs, n1, err = idSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ProcessedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return
}

func (sourceStateMUS) Size(v SourceState) (size int) {
	size = ord.String.Size(string(v.Source))
	size += ord.String.Size(v.SourceID)
	size += IDMUS.Size(v.ContentHash)
	size += idSliceMUS.Size(v.ChunkIDs)
	size += timeMUS.Size(v.ProcessedAt)
	return size
}

// LedgerSnapshotMUS is the MUS serializer for LedgerSnapshot.
var LedgerSnapshotMUS = ledgerSnapshotMUS{}

type ledgerSnapshotMUS struct{}

func (ledgerSnapshotMUS) Marshal(v LedgerSnapshot, bs []byte) (n int) {
	n = ord.String.Marshal(v.API, bs)
	n += timeMUS.Marshal(v.PeriodStart, bs[n:])
	n += varint.Int64.Marshal(v.Tokens, bs[n:])
	n += raw.Float64.Marshal(v.SpendUSD, bs[n:])
	n += ord.Bool.Marshal(v.Alerted, bs[n:])
	return n
}

func (ledgerSnapshotMUS) Unmarshal(bs []byte) (v LedgerSnapshot, n int, err error) {
	var n1 int
	if v.API, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	v.PeriodStart, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Tokens, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.SpendUSD, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Alerted, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return
}

func (ledgerSnapshotMUS) Size(v LedgerSnapshot) (size int) {
	size = ord.String.Size(v.API)
	size += timeMUS.Size(v.PeriodStart)
	size += varint.Int64.Size(v.Tokens)
	size += raw.Float64.Size(v.SpendUSD)
	size += ord.Bool.Size(v.Alerted)
	return size
}
