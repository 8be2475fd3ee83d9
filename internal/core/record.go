package core

import (
	"strings"
	"time"
)

// Document is the on-disk layout of a conversation file
type Document struct {
	Conversations []ConversationRecord `json:"conversations"`
}

// ConversationRecord is the persisted form of a Conversation
type ConversationRecord struct {
	ID       string          `json:"id"`
	Title    *string         `json:"title"`
	Messages []MessageRecord `json:"messages"`
}

// MessageRecord is the persisted form of a Message
type MessageRecord struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Role      string `json:"role"`
	Timestamp string `json:"timestamp"`
}

// timestampLayouts are tried in order when decoding a record timestamp
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FormatTimestamp encodes t as ISO-8601
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTimestamp decodes an ISO-8601 timestamp, returning ok=false if no layout matches
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToRecord converts a message to its persisted form
func (m Message) ToRecord() MessageRecord {
	return MessageRecord{
		ID:        m.id,
		Content:   m.content,
		Role:      string(m.role),
		Timestamp: FormatTimestamp(m.timestamp),
	}
}

// MessageFromRecord rebuilds a message. Malformed timestamps fall back to now.
func MessageFromRecord(rec MessageRecord) (Message, error) {
	role, err := ParseRole(rec.Role)
	if err != nil {
		return Message{}, err
	}
	ts, ok := ParseTimestamp(rec.Timestamp)
	if !ok {
		ts = time.Now()
	}
	return NewMessage(rec.Content, role, WithMessageID(rec.ID), WithTimestamp(ts))
}

// ToRecord converts a conversation to its persisted form
func (c *Conversation) ToRecord() ConversationRecord {
	msgs := c.Messages()
	rec := ConversationRecord{
		ID:       c.id,
		Messages: make([]MessageRecord, 0, len(msgs)),
	}
	if c.title != "" {
		title := c.title
		rec.Title = &title
	}
	for _, m := range msgs {
		rec.Messages = append(rec.Messages, m.ToRecord())
	}
	return rec
}

// ConversationFromRecord rebuilds a conversation, keeping message order
func ConversationFromRecord(rec ConversationRecord) (*Conversation, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return nil, &ValidationError{Field: "conversation id", Reason: "must not be empty"}
	}
	title := ""
	if rec.Title != nil {
		title = *rec.Title
	}
	c, err := NewConversation(rec.ID, title, "")
	if err != nil {
		return nil, err
	}
	for _, mr := range rec.Messages {
		msg, err := MessageFromRecord(mr)
		if err != nil {
			return nil, err
		}
		c.messages = append(c.messages, msg)
	}
	return c, nil
}
