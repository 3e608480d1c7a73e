package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in
	// a batch. The returned slice contains embeddings in the same order as
	// the input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Summarizer condenses text with a language model.
// Implementations must be thread-safe for concurrent use.
type Summarizer interface {
	// Summarize produces a one-to-two sentence summary of the text.
	Summarize(ctx context.Context, text string) (string, error)

	// Synthesize answers a question from the given source passages,
	// citing only information the passages contain.
	Synthesize(ctx context.Context, question string, passages []string) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// Summarizer instances, ensuring they share configuration and resources.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Summarizer returns the summarization service.
	// The returned Summarizer is safe for concurrent use.
	Summarizer() Summarizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
