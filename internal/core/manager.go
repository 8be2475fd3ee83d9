package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ConversationManager owns a set of conversations and routes every mutation through the backend.
//
// SendMessage serializes calls per conversation; calls on distinct conversations run in parallel.
// When the backend fails, the user message stays appended and the BackendError is returned.
type ConversationManager struct {
	backend Backend
	logger  *zap.Logger

	mu            sync.RWMutex
	conversations map[string]*Conversation
	order         []string
}

// NewConversationManager creates a new conversation manager
func NewConversationManager(backend Backend, logger *zap.Logger) *ConversationManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationManager{
		backend:       backend,
		logger:        logger,
		conversations: make(map[string]*Conversation),
	}
}

// CreateConversation allocates and registers a conversation
func (m *ConversationManager) CreateConversation(title, systemPrompt string) (*Conversation, error) {
	conv, err := NewConversation("", title, strings.TrimSpace(systemPrompt))
	if err != nil {
		return nil, err
	}

	m.register(conv)

	m.logger.Debug("Created conversation",
		zap.String("conversation_id", conv.ID()),
		zap.String("title", title),
		zap.Bool("system_prompt", conv.Len() > 0))

	return conv, nil
}

// GetConversation looks up a conversation by id
func (m *ConversationManager) GetConversation(id string) (*Conversation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[id]
	return conv, ok
}

// ListConversations returns all conversations in registration order
func (m *ConversationManager) ListConversations() []*Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Conversation, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.conversations[id])
	}
	return out
}

// DeleteConversation removes a conversation, reporting whether it existed
func (m *ConversationManager) DeleteConversation(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[id]; !ok {
		return false
	}
	delete(m.conversations, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// SendMessage appends a user message, asks the backend for a reply and appends it
func (m *ConversationManager) SendMessage(ctx context.Context, conversationID, content string) (Message, error) {
	userMsg, err := NewMessage(content, RoleUser)
	if err != nil {
		return Message{}, err
	}

	conv, ok := m.GetConversation(conversationID)
	if !ok {
		return Message{}, &NotFoundError{ID: conversationID}
	}

	conv.sendMu.Lock()
	defer conv.sendMu.Unlock()

	conv.add(userMsg)

	reply, err := m.backend.GenerateResponse(ctx, conv.Messages())
	if err != nil {
		m.logger.Warn("Backend failed to generate response",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return Message{}, NewBackendError("", err)
	}
	if reply.IsZero() {
		return Message{}, &BackendError{Err: fmt.Errorf("backend returned an empty message")}
	}
	if reply.Role() != RoleAssistant {
		return Message{}, &BackendError{Err: fmt.Errorf("backend returned a %s message, want assistant", reply.Role())}
	}

	conv.add(reply)

	m.logger.Debug("Appended assistant reply",
		zap.String("conversation_id", conversationID),
		zap.String("message_id", reply.ID()),
		zap.Int("messages", conv.Len()))

	return reply, nil
}

// Import registers conversations rebuilt from records, replacing any with the same id
func (m *ConversationManager) Import(records []ConversationRecord) error {
	convs := make([]*Conversation, 0, len(records))
	for _, rec := range records {
		conv, err := ConversationFromRecord(rec)
		if err != nil {
			return fmt.Errorf("failed to import conversation %q: %w", rec.ID, err)
		}
		convs = append(convs, conv)
	}
	for _, conv := range convs {
		m.register(conv)
	}
	return nil
}

// Records returns the persisted form of every conversation
func (m *ConversationManager) Records() []ConversationRecord {
	convs := m.ListConversations()
	out := make([]ConversationRecord, 0, len(convs))
	for _, conv := range convs {
		out = append(out, conv.ToRecord())
	}
	return out
}

// Save writes all conversations to the store
func (m *ConversationManager) Save(ctx context.Context, store ConversationStore) error {
	records := m.Records()
	if err := store.Save(ctx, records); err != nil {
		return fmt.Errorf("failed to save conversations: %w", err)
	}
	m.logger.Info("Saved conversations", zap.Int("count", len(records)))
	return nil
}

// Load reads conversations from the store and registers them
func (m *ConversationManager) Load(ctx context.Context, store ConversationStore) error {
	records, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load conversations: %w", err)
	}
	if err := m.Import(records); err != nil {
		return err
	}
	m.logger.Info("Loaded conversations", zap.Int("count", len(records)))
	return nil
}

func (m *ConversationManager) register(conv *Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.conversations[conv.ID()]; !exists {
		m.order = append(m.order, conv.ID())
	}
	m.conversations[conv.ID()] = conv
}
