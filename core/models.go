package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated deterministically from content so that re-ingesting
// identical input produces identical IDs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID generates the deterministic ID for a chunk from its source
// identifier and the token offset at which the chunk starts.
func ChunkID(sourceID string, startToken int) ID {
	return IDFromContent(sourceID + ":" + strconv.Itoa(startToken))
}

// HashContent computes the content hash used for change detection.
// Identical raw text always hashes to the same value.
func HashContent(text string) ID {
	return IDFromContent(text)
}

// SourceType identifies the system a content item was pulled from.
type SourceType string

const (
	// SourceSlack represents content polled from Slack channels.
	SourceSlack SourceType = "slack"
	// SourceNotion represents content polled from Notion pages.
	SourceNotion SourceType = "notion"
	// SourceDrive represents content polled from Google Drive files.
	SourceDrive SourceType = "drive"
)

// SourceTypes lists all supported source types in namespace order.
var SourceTypes = []SourceType{SourceSlack, SourceNotion, SourceDrive}

// Namespace returns the vector index namespace for the source type.
// Namespaces partition the index, one per source type.
func (s SourceType) Namespace() string {
	return string(s)
}

// ContentItem is a single unit of raw content produced by a connector poll.
// Items are immutable once produced; an upstream edit arrives as a new item
// with the same SourceID and a different ContentHash.
type ContentItem struct {
	Source      SourceType
	SourceID    string
	RawText     string
	Author      string
	Timestamp   time.Time
	URL         string
	ContentHash ID
}

// NewContentItem builds a ContentItem with its content hash populated.
func NewContentItem(source SourceType, sourceID, rawText, author string, timestamp time.Time, url string) ContentItem {
	return ContentItem{
		Source:      source,
		SourceID:    sourceID,
		RawText:     rawText,
		Author:      author,
		Timestamp:   timestamp,
		URL:         url,
		ContentHash: HashContent(rawText),
	}
}

// RedactedItem is a ContentItem whose text has passed PII redaction.
// It is the only form of content the chunker accepts; nothing downstream
// ever sees the raw text. Derived, never mutated after creation.
type RedactedItem struct {
	Item         ContentItem
	RedactedText string
	Redactions   map[string]int // redaction kind -> count removed
}

// RedactionCount returns the total number of entities removed from the item.
func (r *RedactedItem) RedactionCount() int {
	total := 0
	for _, n := range r.Redactions {
		total += n
	}
	return total
}

// Chunk is a bounded-length segment of a redacted item, the unit of
// embedding. Chunk boundaries and IDs are deterministic for identical input.
type Chunk struct {
	ID         ID
	Text       string
	TokenCount int
	StartToken int
	EndToken   int
	Index      int
	Source     SourceType
	SourceID   string
	Author     string
	Timestamp  time.Time
	URL        string
}

// EmbeddingRecord is the persisted (vector, metadata) pair for one chunk.
// Upserts are keyed by ChunkID: re-ingestion overwrites, never duplicates.
type EmbeddingRecord struct {
	ChunkID   ID
	Vector    []float32
	Summary   string
	Namespace string
	Text      string
	Source    SourceType
	SourceID  string
	Author    string
	Timestamp time.Time
	URL       string
	IndexedAt time.Time
}

// Stage identifies the pipeline stage a failed unit of work originated from.
type Stage int

const (
	// StageEmbed is the embedding generation stage.
	StageEmbed Stage = iota + 1
	// StageSummarize is the summary generation stage.
	StageSummarize
)

// String returns the stage name for logging.
func (s Stage) String() string {
	switch s {
	case StageEmbed:
		return "embed"
	case StageSummarize:
		return "summarize"
	default:
		return "unknown"
	}
}

// DeadLetterState is the retry lifecycle state of a dead-lettered unit.
type DeadLetterState int

const (
	// DeadLetterFailed is the initial state after a stage failure.
	DeadLetterFailed DeadLetterState = iota + 1
	// DeadLetterRetrying means the unit is scheduled for another attempt.
	DeadLetterRetrying
	// DeadLetterManualReview means retries are exhausted and an operator
	// must intervene.
	DeadLetterManualReview
)

// String returns the state name for logging.
func (s DeadLetterState) String() string {
	switch s {
	case DeadLetterFailed:
		return "failed"
	case DeadLetterRetrying:
		return "retrying"
	case DeadLetterManualReview:
		return "manual_review"
	default:
		return "unknown"
	}
}

// DeadLetterEntry captures a failed embed or summarize attempt held for
// retry. The entry carries the chunk payload needed to replay the stage, so
// retries survive process restarts.
type DeadLetterEntry struct {
	ChunkID      ID
	Stage        Stage
	State        DeadLetterState
	AttemptCount int
	LastError    string
	NextRetryAt  time.Time
	Chunk        Chunk
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SourceState records what the pipeline last saw for one source item:
// the content hash and the chunk IDs derived from it. It drives change
// detection and tombstone-and-replace on edits.
type SourceState struct {
	Source      SourceType
	SourceID    string
	ContentHash ID
	ChunkIDs    []ID
	ProcessedAt time.Time
}

// LedgerSnapshot is the persisted running total of spend for one external
// API within the current budget period.
type LedgerSnapshot struct {
	API         string
	PeriodStart time.Time
	Tokens      int64
	SpendUSD    float64
	Alerted     bool
}

// Match is a single similarity-search hit.
type Match struct {
	Record *EmbeddingRecord
	Score  float32
}
