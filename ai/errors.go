package ai

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrEmbeddingFailed indicates embedding generation failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrSummarizationFailed indicates summary generation failed.
	ErrSummarizationFailed = errors.New("summarization failed")

	// ErrRateLimited indicates the provider rejected the call for rate
	// limiting. Retryable after a delay.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrEmptyInput indicates no text was provided.
	ErrEmptyInput = errors.New("empty input")
)

// IsRetryable reports whether a provider error is transient: rate
// limits, timeouts and temporary network failures. Budget exhaustion and
// malformed requests are not retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit",
		"429",
		"timeout",
		"connection refused",
		"connection reset",
		"temporarily unavailable",
		"503",
		"502",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
