package core_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

// replyBackend answers "re: <last content>" after an optional random delay
type replyBackend struct {
	maxDelay time.Duration
	mu       sync.Mutex
	rnd      *rand.Rand
	calls    int
	seen     [][]core.Message
}

func newReplyBackend(maxDelay time.Duration) *replyBackend {
	return &replyBackend{maxDelay: maxDelay, rnd: rand.New(rand.NewSource(42))}
}

func (b *replyBackend) GenerateResponse(ctx context.Context, messages []core.Message) (core.Message, error) {
	b.mu.Lock()
	b.calls++
	b.seen = append(b.seen, messages)
	var delay time.Duration
	if b.maxDelay > 0 {
		delay = time.Duration(b.rnd.Int63n(int64(b.maxDelay)))
	}
	b.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	last := messages[len(messages)-1]
	return core.NewMessage("re: "+last.Content(), core.RoleAssistant)
}

func failingBackend(err error) core.Backend {
	return core.BackendFunc(func(ctx context.Context, messages []core.Message) (core.Message, error) {
		return core.Message{}, err
	})
}

func TestCreateConversationSeedsSystemPrompt(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)

	conv, err := m.CreateConversation("Spam Detection", "Return only a number.")
	require.NoError(t, err)

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleSystem, msgs[0].Role())
	assert.Equal(t, "Return only a number.", msgs[0].Content())
	assert.Equal(t, "Spam Detection", conv.Title())

	got, ok := m.GetConversation(conv.ID())
	require.True(t, ok)
	assert.Same(t, conv, got)
}

func TestCreateConversationWithoutSystemPrompt(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)

	conv, err := m.CreateConversation("", "   ")
	require.NoError(t, err)
	assert.Empty(t, conv.Messages())
	assert.True(t, strings.HasPrefix(conv.ID(), "conv_"))
}

func TestGetConversationAbsent(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)

	conv, ok := m.GetConversation("nonexistent_id")
	assert.False(t, ok)
	assert.Nil(t, conv)
}

func TestSendMessageAppendsUserThenAssistant(t *testing.T) {
	backend := newReplyBackend(0)
	m := core.NewConversationManager(backend, nil)
	conv, err := m.CreateConversation("chat", "You are helpful.")
	require.NoError(t, err)

	reply, err := m.SendMessage(context.Background(), conv.ID(), "  Hello, AI!  ")
	require.NoError(t, err)

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, core.RoleSystem, msgs[0].Role())
	assert.Equal(t, core.RoleUser, msgs[1].Role())
	assert.Equal(t, "Hello, AI!", msgs[1].Content())
	assert.Equal(t, core.RoleAssistant, msgs[2].Role())
	assert.Equal(t, reply, msgs[2])
	assert.Equal(t, "re: Hello, AI!", reply.Content())

	require.Len(t, backend.seen, 1)
	assert.Len(t, backend.seen[0], 2)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	backend := newReplyBackend(0)
	m := core.NewConversationManager(backend, nil)
	existing, err := m.CreateConversation("kept", "")
	require.NoError(t, err)

	_, err = m.SendMessage(context.Background(), "nonexistent_id", "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)

	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nonexistent_id", nf.ID)

	assert.Len(t, m.ListConversations(), 1)
	assert.Empty(t, existing.Messages())
	assert.Zero(t, backend.calls)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)
	conv, err := m.CreateConversation("", "")
	require.NoError(t, err)

	_, err = m.SendMessage(context.Background(), conv.ID(), " \n\t ")
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Empty(t, conv.Messages())
}

func TestSendMessageBackendFailureKeepsUserMessage(t *testing.T) {
	m := core.NewConversationManager(failingBackend(&core.BackendError{Provider: "test", Err: errors.New("boom")}), nil)
	conv, err := m.CreateConversation("", "")
	require.NoError(t, err)

	_, err = m.SendMessage(context.Background(), conv.ID(), "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackend)

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleUser, msgs[0].Role())
}

func TestSendMessageWrapsForeignErrors(t *testing.T) {
	m := core.NewConversationManager(failingBackend(context.DeadlineExceeded), nil)
	conv, err := m.CreateConversation("", "")
	require.NoError(t, err)

	_, err = m.SendMessage(context.Background(), conv.ID(), "Hello")
	assert.ErrorIs(t, err, core.ErrBackend)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendMessageRejectsNonAssistantReply(t *testing.T) {
	backend := core.BackendFunc(func(ctx context.Context, messages []core.Message) (core.Message, error) {
		return core.NewMessage("sneaky", core.RoleSystem)
	})
	m := core.NewConversationManager(backend, nil)
	conv, err := m.CreateConversation("", "")
	require.NoError(t, err)

	_, err = m.SendMessage(context.Background(), conv.ID(), "Hello")
	assert.ErrorIs(t, err, core.ErrBackend)
	assert.Len(t, conv.Messages(), 1)
}

func TestBackendCannotMutateStoredHistory(t *testing.T) {
	backend := core.BackendFunc(func(ctx context.Context, messages []core.Message) (core.Message, error) {
		tampered, _ := core.NewMessage("tampered", core.RoleSystem)
		messages[0] = tampered
		return core.NewMessage("ok", core.RoleAssistant)
	})
	m := core.NewConversationManager(backend, nil)
	conv, err := m.CreateConversation("", "")
	require.NoError(t, err)

	_, err = m.SendMessage(context.Background(), conv.ID(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", conv.Messages()[0].Content())
}

func TestMessagesReturnsDefensiveCopy(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)
	conv, err := m.CreateConversation("", "system")
	require.NoError(t, err)

	view := conv.Messages()
	other, _ := core.NewMessage("injected", core.RoleUser)
	view[0] = other
	_ = append(view, other)

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleSystem, msgs[0].Role())
}

func TestLatestMessages(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)
	conv, err := m.CreateConversation("", "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := m.SendMessage(context.Background(), conv.ID(), fmt.Sprintf("Message %d", i))
		require.NoError(t, err)
	}

	latest := conv.Latest(3)
	require.Len(t, latest, 3)
	assert.Equal(t, "re: Message 3", latest[0].Content())
	assert.Equal(t, "Message 4", latest[1].Content())
	assert.Equal(t, "re: Message 4", latest[2].Content())
	assert.Len(t, conv.Latest(100), 10)
	assert.Empty(t, conv.Latest(0))
}

func TestConcurrentSendsOnDistinctConversationsKeepOrder(t *testing.T) {
	const conversations = 6
	const perConversation = 15

	m := core.NewConversationManager(newReplyBackend(2*time.Millisecond), nil)
	convs := make([]*core.Conversation, conversations)
	for i := range convs {
		conv, err := m.CreateConversation(fmt.Sprintf("c%d", i), "sys")
		require.NoError(t, err)
		convs[i] = conv
	}

	var wg sync.WaitGroup
	errs := make(chan error, conversations*perConversation)
	for i, conv := range convs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			for j := 0; j < perConversation; j++ {
				if _, err := m.SendMessage(context.Background(), id, fmt.Sprintf("c%d-m%d", i, j)); err != nil {
					errs <- err
				}
			}
		}(i, conv.ID())
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for i, conv := range convs {
		msgs := conv.Messages()
		require.Len(t, msgs, 1+2*perConversation)
		for j := 0; j < perConversation; j++ {
			user := msgs[1+2*j]
			reply := msgs[2+2*j]
			want := fmt.Sprintf("c%d-m%d", i, j)
			assert.Equal(t, core.RoleUser, user.Role())
			assert.Equal(t, want, user.Content())
			assert.Equal(t, "re: "+want, reply.Content())
		}
	}
}

func TestConcurrentSendsOnSameConversationAreSerialized(t *testing.T) {
	const senders = 20

	m := core.NewConversationManager(newReplyBackend(time.Millisecond), nil)
	conv, err := m.CreateConversation("", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.SendMessage(context.Background(), conv.ID(), fmt.Sprintf("msg-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs := conv.Messages()
	require.Len(t, msgs, 2*senders)
	seen := make(map[string]bool)
	for j := 0; j < senders; j++ {
		user := msgs[2*j]
		reply := msgs[2*j+1]
		require.Equal(t, core.RoleUser, user.Role())
		require.Equal(t, core.RoleAssistant, reply.Role())
		assert.Equal(t, "re: "+user.Content(), reply.Content())
		seen[user.Content()] = true
	}
	assert.Len(t, seen, senders)
}

func TestListAndDeleteConversations(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)
	var ids []string
	for i := 1; i <= 3; i++ {
		conv, err := m.CreateConversation(fmt.Sprintf("Conversation %d", i), "")
		require.NoError(t, err)
		ids = append(ids, conv.ID())
	}

	listed := m.ListConversations()
	require.Len(t, listed, 3)
	for i, conv := range listed {
		assert.Equal(t, ids[i], conv.ID())
	}

	assert.True(t, m.DeleteConversation(ids[1]))
	assert.False(t, m.DeleteConversation(ids[1]))
	listed = m.ListConversations()
	require.Len(t, listed, 2)
	assert.Equal(t, ids[0], listed[0].ID())
	assert.Equal(t, ids[2], listed[1].ID())
}

func TestExportText(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)
	conv, err := m.CreateConversation("Test Conversation", "Be brief.")
	require.NoError(t, err)
	_, err = m.SendMessage(context.Background(), conv.ID(), "Hi")
	require.NoError(t, err)

	out, err := m.Export(conv.ID(), "text")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Conversation: Test Conversation", lines[0])
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] System: Be brief\.$`, lines[1])
	assert.Regexp(t, `^\[.+\] User: Hi$`, lines[2])
	assert.Regexp(t, `^\[.+\] Assistant: re: Hi$`, lines[3])
}

func TestExportJSON(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)
	conv, err := m.CreateConversation("Test Conversation", "")
	require.NoError(t, err)

	out, err := m.Export(conv.ID(), "JSON")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "`+conv.ID()+`"`)
	assert.Contains(t, out, `"title": "Test Conversation"`)
}

func TestExportErrors(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)
	conv, err := m.CreateConversation("Test Conversation", "")
	require.NoError(t, err)

	_, err = m.Export(conv.ID(), "invalid_format")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = m.Export("nonexistent_id", "text")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestImportReplacesAndKeepsOrder(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)
	conv, err := m.CreateConversation("original", "sys")
	require.NoError(t, err)

	title := "renamed"
	err = m.Import([]core.ConversationRecord{
		{ID: conv.ID(), Title: &title},
		{ID: "conv_new", Messages: []core.MessageRecord{{ID: "m1", Content: "hi", Role: "user", Timestamp: "2024-01-02T03:04:05Z"}}},
	})
	require.NoError(t, err)

	listed := m.ListConversations()
	require.Len(t, listed, 2)
	assert.Equal(t, "renamed", listed[0].Title())
	assert.Equal(t, "conv_new", listed[1].ID())
	assert.Equal(t, "hi", listed[1].Messages()[0].Content())
}

func TestImportRejectsInvalidRecords(t *testing.T) {
	m := core.NewConversationManager(newReplyBackend(0), nil)

	err := m.Import([]core.ConversationRecord{
		{ID: "ok"},
		{ID: "bad", Messages: []core.MessageRecord{{Content: "x", Role: "robot"}}},
	})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Empty(t, m.ListConversations())
}
