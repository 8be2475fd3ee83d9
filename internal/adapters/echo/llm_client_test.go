package echo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

func history(t *testing.T, pairs ...string) []core.Message {
	t.Helper()
	var out []core.Message
	for i := 0; i < len(pairs); i += 2 {
		msg, err := core.NewMessage(pairs[i+1], core.Role(pairs[i]))
		require.NoError(t, err)
		out = append(out, msg)
	}
	return out
}

func TestEchoesLastNonSystemMessage(t *testing.T) {
	c := NewEchoClient("", nil)

	reply, err := c.GenerateResponse(context.Background(), history(t, "system", "be nice", "user", "hello"))
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, reply.Role())
	assert.Equal(t, "Echo: hello", reply.Content())
}

func TestFixedReply(t *testing.T) {
	c := NewEchoClient("42", nil)

	reply, err := c.GenerateResponse(context.Background(), history(t, "user", "is this spam?"))
	require.NoError(t, err)
	assert.Equal(t, "42", reply.Content())
}

func TestFailsAsBackendError(t *testing.T) {
	c := NewEchoClient("", nil)

	_, err := c.GenerateResponse(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrBackend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GenerateResponse(ctx, history(t, "user", "hi"))
	assert.ErrorIs(t, err, core.ErrBackend)
	assert.ErrorIs(t, err, context.Canceled)
}
