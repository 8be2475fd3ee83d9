package core

import (
	"sync"
)

// Conversation is an ordered, append-only message history.
// Only ConversationManager appends to a registered conversation.
type Conversation struct {
	id    string
	title string

	mu       sync.RWMutex
	messages []Message

	// held for the whole user-append, generate, assistant-append sequence
	sendMu sync.Mutex
}

// NewConversation creates a conversation. A non-empty system prompt becomes the first message.
func NewConversation(id, title, systemPrompt string) (*Conversation, error) {
	if id == "" {
		id = newID("conv_")
	}
	c := &Conversation{
		id:    id,
		title: title,
	}

	if systemPrompt != "" {
		msg, err := NewMessage(systemPrompt, RoleSystem)
		if err != nil {
			return nil, err
		}
		c.messages = append(c.messages, msg)
	}

	return c, nil
}

// ID returns the conversation id
func (c *Conversation) ID() string { return c.id }

// Title returns the display title, empty when none was given
func (c *Conversation) Title() string { return c.title }

// Messages returns a copy of the message history
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Latest returns a copy of the last n messages
func (c *Conversation) Latest(n int) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 {
		return []Message{}
	}
	start := len(c.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(c.messages)-start)
	copy(out, c.messages[start:])
	return out
}

// Len returns the number of messages
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

func (c *Conversation) add(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}
