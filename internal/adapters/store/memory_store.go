package store

import (
	"context"
	"sync"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

// MemoryStore is an in-memory implementation of the core.ConversationStore interface
type MemoryStore struct {
	records []core.ConversationRecord
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the stored conversations
func (s *MemoryStore) Save(ctx context.Context, conversations []core.ConversationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = cloneRecords(conversations)
	return nil
}

// Load returns a copy of the stored conversations
func (s *MemoryStore) Load(ctx context.Context) ([]core.ConversationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.records), nil
}

func cloneRecords(in []core.ConversationRecord) []core.ConversationRecord {
	if in == nil {
		return nil
	}
	out := make([]core.ConversationRecord, len(in))
	for i, r := range in {
		out[i] = r
		if r.Title != nil {
			title := *r.Title
			out[i].Title = &title
		}
		out[i].Messages = append([]core.MessageRecord(nil), r.Messages...)
	}
	return out
}
