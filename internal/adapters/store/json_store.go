package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

// JSONFileStore keeps conversations in a single JSON document
type JSONFileStore struct {
	path   string
	logger *zap.Logger
}

// NewJSONFileStore creates a new JSON file store
func NewJSONFileStore(path string, logger *zap.Logger) *JSONFileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONFileStore{
		path:   path,
		logger: logger,
	}
}

// Path returns the file backing the store
func (s *JSONFileStore) Path() string {
	return s.path
}

// Save writes the conversations to a temporary file and renames it over the target
func (s *JSONFileStore) Save(ctx context.Context, conversations []core.ConversationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if conversations == nil {
		conversations = []core.ConversationRecord{}
	}

	data, err := json.MarshalIndent(core.Document{Conversations: conversations}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode conversations: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".conversations-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write conversations: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	s.logger.Debug("Saved conversations",
		zap.String("path", s.path),
		zap.Int("count", len(conversations)))
	return nil
}

// Load reads the conversations. A missing file holds no conversations.
func (s *JSONFileStore) Load(ctx context.Context) ([]core.ConversationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Conversation file not found, starting empty", zap.String("path", s.path))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var doc core.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return doc.Conversations, nil
}
