package inbox

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/core"
)

const multipartMessage = "From: =?UTF-8?Q?Jos=C3=A9?= <jose@example.com>\r\n" +
	"To: me@example.com\r\n" +
	"Subject: =?UTF-8?B?UHJpemUgaW5zaWRl?=\r\n" +
	"Date: Mon, 02 Jan 2006 15:04:05 -0700\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"outer\"\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: multipart/alternative; boundary=\"inner\"\r\n" +
	"\r\n" +
	"--inner\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"Content-Transfer-Encoding: quoted-printable\r\n" +
	"\r\n" +
	"Claim your caf=C3=A9 voucher\r\n" +
	"--inner\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<p>Claim</p>\r\n" +
	"--inner--\r\n" +
	"--outer\r\n" +
	"Content-Type: text/plain\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"YmFzZTY0IHBh\r\n" +
	"cnQ=\r\n" +
	"--outer\r\n" +
	"Content-Type: application/pdf\r\n" +
	"\r\n" +
	"%PDF-1.4\r\n" +
	"--outer--\r\n"

func TestParseMessageMultipart(t *testing.T) {
	email, err := ParseMessage("m1", []byte(multipartMessage))
	require.NoError(t, err)

	assert.Equal(t, "m1", email.ID)
	assert.Equal(t, "José <jose@example.com>", email.From)
	assert.Equal(t, "Prize inside", email.Subject)
	assert.Equal(t, []string{"me@example.com"}, email.To)
	assert.Equal(t, 2006, email.ReceivedAt.Year())
	assert.Contains(t, email.Body, "Claim your café voucher")
	assert.Contains(t, email.Body, "base64 part")
	assert.NotContains(t, email.Body, "<p>")
	assert.NotContains(t, email.Body, "%PDF")
}

func TestParseMessagePlain(t *testing.T) {
	raw := "From: a@example.com\r\nSubject: hi\r\nMessage-Id: <abc@example.com>\r\n\r\nplain body\r\n"
	email, err := ParseMessage("", []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "abc@example.com", email.ID)
	assert.Equal(t, "plain body\r\n", email.Body)
}

func TestParseMessageOnlyAttachments(t *testing.T) {
	raw := "Content-Type: multipart/mixed; boundary=b\r\n\r\n--b\r\nContent-Type: image/png\r\n\r\nxx\r\n--b--\r\n"
	email, err := ParseMessage("m", []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, noTextPlaceholder, email.Body)
}

func TestMailbox(t *testing.T) {
	mb := NewMailbox()
	first := mb.Deliver("", core.Email{Body: "one"})
	mb.Deliver(DefaultFolder, core.Email{ID: "two", Body: "two"})
	mb.Deliver("Spam", core.Email{ID: "three"})

	assert.NotEmpty(t, first.ID)
	assert.False(t, first.ReceivedAt.IsZero())
	assert.Equal(t, []string{"INBOX", "Spam"}, mb.Folders())

	all, err := mb.Messages(context.Background(), "INBOX", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "two", all[1].ID)

	limited, err := mb.Messages(context.Background(), "INBOX", 1)
	require.NoError(t, err)
	assert.Equal(t, []core.Email{first}, limited)

	none, err := mb.Messages(context.Background(), "Archive", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMockFetcherIsDeterministic(t *testing.T) {
	a := NewMockFetcher(7).Generate(15)
	b := NewMockFetcher(7).Generate(15)
	require.Len(t, a, 15)
	for i := range a {
		assert.Equal(t, a[i].Subject, b[i].Subject)
		assert.NotEmpty(t, a[i].Body)
	}
	assert.Equal(t, "mock-001", a[0].ID)

	mb := NewMailbox()
	NewMockFetcher(1).Populate(mb, "INBOX", 5)
	assert.Equal(t, 5, mb.Len("INBOX"))
}

func TestDirectorySource(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "INBOX")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.eml"), []byte("Subject: second\r\n\r\nbody b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.eml"), []byte(multipartMessage), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	src := NewDirectorySource(root, nil)
	emails, err := src.Messages(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, emails, 2)
	assert.Equal(t, "a", emails[0].ID)
	assert.Equal(t, "b", emails[1].ID)
	assert.Equal(t, "second", emails[1].Subject)

	emails, err = src.Messages(context.Background(), "INBOX", 1)
	require.NoError(t, err)
	assert.Len(t, emails, 1)

	_, err = src.Messages(context.Background(), "Missing", 0)
	assert.Error(t, err)
}

func startReceiver(t *testing.T, mb *Mailbox, onDeliver DeliverFunc) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	receiver := NewSMTPReceiver(mb, "INBOX", config.SMTPConfig{
		Domain:          "localhost",
		MaxMessageBytes: 1 << 20,
		MaxRecipients:   10,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
	}, nil)
	if onDeliver != nil {
		receiver.OnDeliver(onDeliver)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- receiver.Serve(ctx, l) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("receiver did not stop")
		}
	})
	return l.Addr().String()
}

func sendMail(t *testing.T, addr, from string, to []string, msg string) {
	t.Helper()
	c, err := smtp.Dial(addr)
	require.NoError(t, err)
	require.NoError(t, c.SendMail(from, to, strings.NewReader(msg)))
	require.NoError(t, c.Quit())
}

func TestSMTPReceiverDelivers(t *testing.T) {
	mb := NewMailbox()
	delivered := make(chan core.Email, 1)
	addr := startReceiver(t, mb, func(ctx context.Context, email core.Email) {
		delivered <- email
	})

	sendMail(t, addr, "spammer@bad.biz", []string{"me@example.com"}, "Subject: Cheap meds\r\n\r\nBuy now!\r\n")

	select {
	case email := <-delivered:
		assert.Equal(t, "spammer@bad.biz", email.From)
		assert.Equal(t, []string{"me@example.com"}, email.To)
		assert.Equal(t, "Cheap meds", email.Subject)
		assert.Contains(t, email.Body, "Buy now!")
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestSMTPReceiverDoesNotRetainHandledMessages(t *testing.T) {
	mb := NewMailbox()
	var handled atomic.Int32
	addr := startReceiver(t, mb, func(ctx context.Context, email core.Email) {
		handled.Add(1)
		assert.Equal(t, 1, mb.Len("INBOX"))
	})

	for i := 0; i < 20; i++ {
		sendMail(t, addr, "a@example.com", []string{"me@example.com"}, "Subject: hi\r\n\r\nbody\r\n")
	}

	// the callback runs before DATA is acknowledged
	assert.EqualValues(t, 20, handled.Load())
	assert.Equal(t, 0, mb.Len("INBOX"))
}

func TestSMTPReceiverKeepsMessagesWithoutCallback(t *testing.T) {
	mb := NewMailbox()
	addr := startReceiver(t, mb, nil)

	sendMail(t, addr, "a@example.com", []string{"me@example.com"}, "Subject: one\r\n\r\nbody\r\n")
	sendMail(t, addr, "b@example.com", []string{"me@example.com"}, "Subject: two\r\n\r\nbody\r\n")

	msgs, err := mb.Messages(context.Background(), "INBOX", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Subject)
}

func TestMailboxRemove(t *testing.T) {
	mb := NewMailbox()
	a := mb.Deliver("", core.Email{Subject: "a"})
	b := mb.Deliver("", core.Email{Subject: "b"})

	assert.True(t, mb.Remove("", a.ID))
	assert.False(t, mb.Remove("", a.ID))
	assert.False(t, mb.Remove("Other", b.ID))

	msgs, err := mb.Messages(context.Background(), DefaultFolder, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, b.ID, msgs[0].ID)
}
