package chunk

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer converts text to and from token sequences. Implementations
// must be deterministic: identical text always yields identical tokens.
type Tokenizer interface {
	// Encode converts text into its token sequence.
	Encode(text string) []int

	// Decode converts a token sequence back into text. Decoding any
	// contiguous slice of an encoded sequence and concatenating the
	// results must reproduce the original text.
	Decode(tokens []int) string

	// Count returns the number of tokens in the text.
	Count(text string) int
}

// DefaultEncoding is the BPE encoding used for chunking and cost
// estimation. It matches the embedding provider's tokenizer.
const DefaultEncoding = "cl100k_base"

// TiktokenTokenizer implements Tokenizer over a tiktoken BPE encoding.
type TiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

var _ Tokenizer = (*TiktokenTokenizer)(nil)

// NewTiktokenTokenizer loads the named tiktoken encoding.
// Use DefaultEncoding unless the embedding model requires otherwise.
func NewTiktokenTokenizer(encodingName string) (*TiktokenTokenizer, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncodingUnavailable, encodingName, err)
	}
	return &TiktokenTokenizer{encoding: encoding}, nil
}

// Encode converts text into BPE tokens.
func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

// Decode converts BPE tokens back into text.
func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.encoding.Decode(tokens)
}

// Count returns the number of BPE tokens in the text.
func (t *TiktokenTokenizer) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}
