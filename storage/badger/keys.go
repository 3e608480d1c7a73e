package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/veldt-labs/curio/core"
)

// Key prefixes for different data types
const (
	recordPrefix     = "embrec"
	recordTimePrefix = "embidx"
	statePrefix      = "srcsta"
	deadLetterPrefix = "dlqent"
	ledgerPrefix     = "ledger"
)

// makeRecordKey generates a key for an embedding record.
// Format: prefix:namespace: + 8-byte id
func makeRecordKey(namespace string, id core.ID) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", recordPrefix, namespace))
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeRecordIterPrefix generates the iteration prefix for a namespace.
func makeRecordIterPrefix(namespace string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", recordPrefix, namespace))
}

// makeRecordTimeKey generates a composite key for the indexed-at index.
// Format: prefix:namespace: + 8-byte timestamp + 8-byte id.
// BigEndian so lexicographic iteration order is chronological.
func makeRecordTimeKey(namespace string, indexedAt time.Time, id core.ID) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", recordTimePrefix, namespace))
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(indexedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialRecordTimeKey generates the seek key for time range queries.
func makePartialRecordTimeKey(namespace string, indexedAt time.Time) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", recordTimePrefix, namespace))
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(indexedAt.UnixMicro()))
	return buf
}

// makeRecordTimeIterPrefix generates the iteration prefix for the time
// index of a namespace.
func makeRecordTimeIterPrefix(namespace string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", recordTimePrefix, namespace))
}

// makeStateKey generates a key for per-item source state.
// Format: prefix:source:sourceID
func makeStateKey(source core.SourceType, sourceID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", statePrefix, source, sourceID))
}

// makeStateIterPrefix generates the iteration prefix for one source.
func makeStateIterPrefix(source core.SourceType) []byte {
	return []byte(fmt.Sprintf("%s:%s:", statePrefix, source))
}

// makeDeadLetterKey generates a key for a dead letter entry.
// Format: prefix: + 8-byte id + stage byte
func makeDeadLetterKey(id core.ID, stage core.Stage) []byte {
	prefix := []byte(deadLetterPrefix + ":")
	buf := make([]byte, len(prefix)+9)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	buf[offset+8] = byte(stage)
	return buf
}

// makeLedgerKey generates a key for an API's ledger snapshot.
func makeLedgerKey(api string) []byte {
	return []byte(fmt.Sprintf("%s:%s", ledgerPrefix, api))
}
