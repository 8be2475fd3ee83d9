package inbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/core"
)

// DeliverFunc is called once for every message accepted by the SMTP receiver
type DeliverFunc func(ctx context.Context, email core.Email)

// SMTPReceiver accepts mail over SMTP and delivers it into a Mailbox folder
type SMTPReceiver struct {
	mailbox   *Mailbox
	folder    string
	cfg       config.SMTPConfig
	onDeliver DeliverFunc
	logger    *zap.Logger

	mu     sync.Mutex
	server *smtp.Server
	ctx    context.Context
}

// NewSMTPReceiver creates a new SMTP receiver
func NewSMTPReceiver(mailbox *Mailbox, folder string, cfg config.SMTPConfig, logger *zap.Logger) *SMTPReceiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if folder == "" {
		folder = DefaultFolder
	}
	return &SMTPReceiver{
		mailbox: mailbox,
		folder:  folder,
		cfg:     cfg,
		logger:  logger,
		ctx:     context.Background(),
	}
}

// OnDeliver registers a callback run synchronously before the DATA command is acknowledged.
// Messages handed to the callback are removed from the mailbox once it returns.
func (r *SMTPReceiver) OnDeliver(fn DeliverFunc) {
	r.onDeliver = fn
}

// ListenAndServe listens on the configured address until ctx is done
func (r *SMTPReceiver) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", r.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.cfg.ListenAddress, err)
	}
	return r.Serve(ctx, l)
}

// Serve accepts SMTP connections on l until ctx is done
func (r *SMTPReceiver) Serve(ctx context.Context, l net.Listener) error {
	server := smtp.NewServer(&smtpBackend{receiver: r})
	server.Addr = l.Addr().String()
	server.Domain = r.cfg.Domain
	server.ReadTimeout = r.cfg.ReadTimeout
	server.WriteTimeout = r.cfg.WriteTimeout
	server.MaxMessageBytes = r.cfg.MaxMessageBytes
	server.MaxRecipients = r.cfg.MaxRecipients

	r.mu.Lock()
	r.server = server
	r.ctx = ctx
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		if err := server.Close(); err != nil {
			r.logger.Warn("Failed to close SMTP server", zap.Error(err))
		}
	}()

	r.logger.Info("SMTP receiver starting",
		zap.String("address", server.Addr),
		zap.String("folder", r.folder))

	if err := server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
		return fmt.Errorf("SMTP server error: %w", err)
	}
	return nil
}

func (r *SMTPReceiver) baseContext() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctx
}

func (r *SMTPReceiver) accept(sender string, recipients []string, raw []byte) error {
	email, err := ParseMessage(uuid.NewString(), raw)
	if err != nil {
		r.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}
	if email.From == "" {
		email.From = sender
	}
	if len(email.To) == 0 {
		email.To = recipients
	}

	email = r.mailbox.Deliver(r.folder, email)
	r.logger.Info("Received email",
		zap.String("mail_id", email.ID),
		zap.String("from", email.From),
		zap.Int("recipients", len(recipients)))

	if r.onDeliver != nil {
		r.onDeliver(r.baseContext(), email)
		// Handled messages do not accumulate in the mailbox
		r.mailbox.Remove(r.folder, email.ID)
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	receiver *SMTPReceiver
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{receiver: b.receiver}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	receiver   *SMTPReceiver
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data reads the message and hands it to the receiver
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.receiver.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}
	return s.receiver.accept(s.sender, append([]string(nil), s.recipients...), raw)
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
