package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockSummarizer is a test double for ai.Summarizer.
// It allows custom behavior injection via function fields.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, uses default deterministic behavior.
	SummarizeFunc func(ctx context.Context, text string) (string, error)

	// SynthesizeFunc is called by Synthesize if set.
	// If nil, uses default deterministic behavior.
	SynthesizeFunc func(ctx context.Context, question string, passages []string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockSummarizer creates a mock summarizer with default deterministic
// behavior. Returns the concrete type to allow test assertions.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize returns a deterministic truncation of the text.
func (m *MockSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	m.record()

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text)
	}

	const maxLen = 80
	text = strings.TrimSpace(text)
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	return "summary: " + text, nil
}

// Synthesize returns a deterministic answer naming the question and
// passage count.
func (m *MockSummarizer) Synthesize(ctx context.Context, question string, passages []string) (string, error) {
	m.record()

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, question, passages)
	}
	return fmt.Sprintf("answer to %q from %d passages", question, len(passages)), nil
}

// CallCount returns the number of times any method was called.
func (m *MockSummarizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockSummarizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.SummarizeFunc = nil
	m.SynthesizeFunc = nil
}

func (m *MockSummarizer) record() {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()
}
