package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/adapters/inbox"
	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/ports"
)

// InboxFactory creates email sources based on configuration
type InboxFactory struct {
	cfg     *config.Config
	mailbox *inbox.Mailbox
	logger  *zap.Logger
}

// NewInboxFactory creates a new inbox factory around the process mailbox
func NewInboxFactory(cfg *config.Config, mailbox *inbox.Mailbox, logger *zap.Logger) *InboxFactory {
	return &InboxFactory{
		cfg:     cfg,
		mailbox: mailbox,
		logger:  logger,
	}
}

// CreateSource creates the configured inbox source
func (f *InboxFactory) CreateSource() (ports.InboxSource, error) {
	inboxCfg := f.cfg.GetInbox()

	switch inboxCfg.Type {
	case "mock", "mailbox":
		return f.mailbox, nil
	case "directory":
		return inbox.NewDirectorySource(inboxCfg.Directory, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported inbox type: %s", inboxCfg.Type)
	}
}

// Populate fills the process mailbox with count generated emails
func (f *InboxFactory) Populate(folder string, count int) int {
	emails := inbox.NewMockFetcher(1).Populate(f.mailbox, folder, count)
	f.logger.Info("Populated mailbox with mock emails",
		zap.String("folder", folder),
		zap.Int("count", len(emails)))
	return len(emails)
}

// CreateSMTPReceiver creates an SMTP receiver delivering into the process mailbox
func (f *InboxFactory) CreateSMTPReceiver(folder string) *inbox.SMTPReceiver {
	return inbox.NewSMTPReceiver(f.mailbox, folder, f.cfg.GetSMTP(), f.logger)
}
