package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the sender of a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// ParseRole converts a lowercase role string into a Role
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSystem, RoleUser, RoleAssistant, RoleFunction:
		return r, nil
	case "":
		return "", &ValidationError{Field: "role", Reason: "must not be empty"}
	default:
		return "", &ValidationError{Field: "role", Reason: "unknown role " + s}
	}
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Message is one immutable turn of a conversation
type Message struct {
	id        string
	content   string
	role      Role
	timestamp time.Time
}

// MessageOption customises NewMessage
type MessageOption func(*Message)

// WithMessageID sets an explicit message id
func WithMessageID(id string) MessageOption {
	return func(m *Message) {
		if id != "" {
			m.id = id
		}
	}
}

// WithTimestamp sets an explicit creation time
func WithTimestamp(ts time.Time) MessageOption {
	return func(m *Message) {
		if !ts.IsZero() {
			m.timestamp = ts
		}
	}
}

// NewMessage creates a message, trimming content and rejecting empty content or unknown roles
func NewMessage(content string, role Role, opts ...MessageOption) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if _, err := ParseRole(string(role)); err != nil {
		return Message{}, err
	}

	m := Message{
		id:        newID("msg_"),
		content:   content,
		role:      role,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m, nil
}

// ID returns the message id
func (m Message) ID() string { return m.id }

// Content returns the trimmed message text
func (m Message) Content() string { return m.content }

// Role returns the sender role
func (m Message) Role() Role { return m.role }

// Timestamp returns the creation time
func (m Message) Timestamp() time.Time { return m.timestamp }

// IsZero reports whether m was never constructed
func (m Message) IsZero() bool { return m.id == "" }

func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
