package inbox

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

// DefaultFolder is the folder messages land in when none is given
const DefaultFolder = "INBOX"

// Mailbox is an in-memory implementation of the ports.InboxSource interface
type Mailbox struct {
	folders map[string][]core.Email
	mu      sync.RWMutex
}

// NewMailbox creates a new empty mailbox
func NewMailbox() *Mailbox {
	return &Mailbox{
		folders: make(map[string][]core.Email),
	}
}

// Deliver appends an email to a folder, assigning an id and receive time when missing
func (m *Mailbox) Deliver(folder string, email core.Email) core.Email {
	if folder == "" {
		folder = DefaultFolder
	}
	if email.ID == "" {
		email.ID = uuid.NewString()
	}
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders[folder] = append(m.folders[folder], email)
	return email
}

// Remove deletes a message from a folder, reporting whether it was present
func (m *Mailbox) Remove(folder, id string) bool {
	if folder == "" {
		folder = DefaultFolder
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	emails := m.folders[folder]
	for i, email := range emails {
		if email.ID == id {
			m.folders[folder] = append(emails[:i:i], emails[i+1:]...)
			return true
		}
	}
	return false
}

// Messages returns up to limit messages of a folder in delivery order (all when limit <= 0)
func (m *Mailbox) Messages(ctx context.Context, folder string, limit int) ([]core.Email, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if folder == "" {
		folder = DefaultFolder
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// An unknown folder is simply empty
	emails := m.folders[folder]
	if limit > 0 && limit < len(emails) {
		emails = emails[:limit]
	}
	return append([]core.Email(nil), emails...), nil
}

// Folders returns the folder names in sorted order
func (m *Mailbox) Folders() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.folders))
	for name := range m.folders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of messages in a folder
func (m *Mailbox) Len(folder string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.folders[folder])
}
