package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/adapters/echo"
	"github.com/mikey/llm-spam-scorer/internal/adapters/inbox"
	"github.com/mikey/llm-spam-scorer/internal/adapters/store"
	"github.com/mikey/llm-spam-scorer/internal/analysis"
	"github.com/mikey/llm-spam-scorer/internal/config"
)

func testConfig() *config.Config {
	return config.NewFromViper(config.NewEmptyViper())
}

func TestCreateBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Set("llm.provider", "echo")
	backend, err := NewLLMFactory(cfg, zap.NewNop()).CreateBackend(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &echo.EchoClient{}, backend)

	cfg.Set("llm.provider", "openai")
	cfg.Set("openai.api_key", "")
	_, err = NewLLMFactory(cfg, zap.NewNop()).CreateBackend(context.Background())
	assert.Error(t, err)

	cfg.Set("llm.provider", "cohere")
	_, err = NewLLMFactory(cfg, zap.NewNop()).CreateBackend(context.Background())
	assert.ErrorContains(t, err, "unsupported LLM provider")
}

func TestCreateStore(t *testing.T) {
	cfg := testConfig()
	f := NewStoreFactory(cfg, zap.NewNop())

	cfg.Set("store.type", "memory")
	s, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)

	cfg.Set("store.type", "sqlite")
	cfg.Set("store.sqlite_path", filepath.Join(t.TempDir(), "nested", "conv.db"))
	s, err = f.CreateStore(context.Background())
	require.NoError(t, err)
	require.IsType(t, &store.SQLStore{}, s)
	require.NoError(t, s.(*store.SQLStore).Close())

	cfg.Set("store.type", "redis")
	_, err = f.CreateStore(context.Background())
	assert.Error(t, err)
}

func TestCreateStoreFailureReturnsNilStore(t *testing.T) {
	cfg := testConfig()
	f := NewStoreFactory(cfg, zap.NewNop())

	// a directory cannot be opened as a database file
	cfg.Set("store.type", "sqlite")
	cfg.Set("store.sqlite_path", t.TempDir())
	s, err := f.CreateStore(context.Background())
	require.Error(t, err)
	assert.True(t, s == nil, "failed store must be an untyped nil")

	cfg.Set("store.type", "mysql")
	cfg.Set("store.mysql_dsn", "user:password@tcp(127.0.0.1:1)/conversations?timeout=1s")
	s, err = f.CreateStore(context.Background())
	require.Error(t, err)
	assert.True(t, s == nil, "failed store must be an untyped nil")
}

func TestCreateSource(t *testing.T) {
	cfg := testConfig()
	mb := inbox.NewMailbox()
	f := NewInboxFactory(cfg, mb, zap.NewNop())

	src, err := f.CreateSource()
	require.NoError(t, err)
	assert.Same(t, mb, src)
	assert.Equal(t, 3, f.Populate("INBOX", 3))
	assert.Equal(t, 3, mb.Len("INBOX"))

	cfg.Set("inbox.type", "directory")
	src, err = f.CreateSource()
	require.NoError(t, err)
	assert.IsType(t, &inbox.DirectorySource{}, src)
}

func TestAnalyzerOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Set("analysis.mode", "shared")
	cfg.Set("analysis.timeout", "5s")

	opts := NewAnalyzerFactory(cfg, zap.NewNop()).Options()
	assert.Equal(t, analysis.ModeShared, opts.Mode)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, 4096, opts.MaxBodySize)
}
