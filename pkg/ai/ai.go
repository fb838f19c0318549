// Package ai talks to the generative model backing the chat session.
package ai

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Service streams a model response for a conversation. onChunk is invoked
// for every text fragment as it arrives; the full response is returned once
// the stream ends.
type Service interface {
	Stream(ctx context.Context, messages []Message, onChunk func(string)) (string, error)
}
