package chunk

import "strings"

// WordTokenizer is a deterministic whitespace tokenizer for tests. Each
// token decodes to a word with its leading space, so decoding contiguous
// slices and concatenating reproduces the original text. It avoids the
// network fetch the BPE encoding needs.
type WordTokenizer struct {
	vocab map[string]int
	words []string
}

var _ Tokenizer = (*WordTokenizer)(nil)

// NewWordTokenizer creates an empty word tokenizer. The vocabulary grows
// as text is encoded.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{vocab: make(map[string]int)}
}

// Encode splits text into one token per word, each carrying its leading
// space when it has one.
func (t *WordTokenizer) Encode(text string) []int {
	var tokens []int
	i := 0
	for i < len(text) {
		j := i + 1
		for j < len(text) && text[j] != ' ' {
			j++
		}
		tokens = append(tokens, t.tokenFor(text[i:j]))
		i = j
	}
	return tokens
}

// Decode concatenates the words for the given tokens.
func (t *WordTokenizer) Decode(tokens []int) string {
	var b strings.Builder
	for _, token := range tokens {
		if token >= 0 && token < len(t.words) {
			b.WriteString(t.words[token])
		}
	}
	return b.String()
}

// Count returns the number of words in the text.
func (t *WordTokenizer) Count(text string) int {
	return len(t.Encode(text))
}

func (t *WordTokenizer) tokenFor(word string) int {
	if id, ok := t.vocab[word]; ok {
		return id
	}
	id := len(t.words)
	t.vocab[word] = id
	t.words = append(t.words, word)
	return id
}
