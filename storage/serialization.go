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


package storage

import (
	"github.com/veldt-labs/curio/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalEmbeddingRecord serializes an EmbeddingRecord to bytes.
func MarshalEmbeddingRecord(record *core.EmbeddingRecord) []byte {
	buf := make([]byte, core.EmbeddingRecordMUS.Size(*record))
	core.EmbeddingRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalEmbeddingRecord deserializes an EmbeddingRecord from bytes.
func UnmarshalEmbeddingRecord(data []byte) (*core.EmbeddingRecord, error) {
	record, _, err := core.EmbeddingRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalSourceState serializes a SourceState to bytes.
func MarshalSourceState(state *core.SourceState) []byte {
	buf := make([]byte, core.SourceStateMUS.Size(*state))
	core.SourceStateMUS.Marshal(*state, buf)
	return buf
}

// UnmarshalSourceState deserializes a SourceState from bytes.
func UnmarshalSourceState(data []byte) (*core.SourceState, error) {
	state, _, err := core.SourceStateMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// MarshalDeadLetterEntry serializes a DeadLetterEntry to bytes.
func MarshalDeadLetterEntry(entry *core.DeadLetterEntry) []byte {
	buf := make([]byte, core.DeadLetterEntryMUS.Size(*entry))
	core.DeadLetterEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalDeadLetterEntry deserializes a DeadLetterEntry from bytes.
func UnmarshalDeadLetterEntry(data []byte) (*core.DeadLetterEntry, error) {
	entry, _, err := core.DeadLetterEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalLedgerSnapshot serializes a LedgerSnapshot to bytes.
func MarshalLedgerSnapshot(snapshot *core.LedgerSnapshot) []byte {
	buf := make([]byte, core.LedgerSnapshotMUS.Size(*snapshot))
	core.LedgerSnapshotMUS.Marshal(*snapshot, buf)
	return buf
}

// UnmarshalLedgerSnapshot deserializes a LedgerSnapshot from bytes.
func UnmarshalLedgerSnapshot(data []byte) (*core.LedgerSnapshot, error) {
	snapshot, _, err := core.LedgerSnapshotMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
