// Package llm provides the streaming transport to the language model.
//
// Each provider hides:
// - API client initialization and authentication
// - Request/response format conversion
// - How the vendor SDK delivers streamed text

package llm

import (
	"context"
)

// Provider defines the interface every model backend implements.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// StreamChat streams a completion, sending text chunks to the provided
	// channel in the order the model produced them. It returns when the
	// stream ends, fails, or ctx is done. It never closes chunks.
	StreamChat(ctx context.Context, messages []ChatMessage, chunks chan<- string) (*TokenUsage, error)
}

// sendChunk delivers one chunk unless ctx is done first.
func sendChunk(ctx context.Context, chunks chan<- string, text string) error {
	if text == "" {
		return nil
	}
	select {
	case chunks <- text:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
