package core

import (
	"context"
)

// Backend turns an ordered message history into an assistant reply
type Backend interface {
	// GenerateResponse must not modify messages and must fail only with *BackendError
	GenerateResponse(ctx context.Context, messages []Message) (Message, error)
}

// ConversationStore persists conversation records
type ConversationStore interface {
	// Save replaces the stored state with the given conversations
	Save(ctx context.Context, conversations []ConversationRecord) error

	// Load returns every stored conversation
	Load(ctx context.Context) ([]ConversationRecord, error)
}

// BackendFunc adapts a function to the Backend interface
type BackendFunc func(ctx context.Context, messages []Message) (Message, error)

// GenerateResponse calls f
func (f BackendFunc) GenerateResponse(ctx context.Context, messages []Message) (Message, error) {
	return f(ctx, messages)
}
