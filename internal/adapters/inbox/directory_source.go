package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

// DirectorySource reads messages stored as <root>/<folder>/*.eml
type DirectorySource struct {
	root   string
	logger *zap.Logger
}

// NewDirectorySource creates a new directory-backed inbox source
func NewDirectorySource(root string, logger *zap.Logger) *DirectorySource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectorySource{
		root:   root,
		logger: logger,
	}
}

// Messages parses up to limit .eml files in name order. The file name without extension is the id.
func (s *DirectorySource) Messages(ctx context.Context, folder string, limit int) ([]core.Email, error) {
	if folder == "" {
		folder = DefaultFolder
	}
	dir := filepath.Join(s.root, folder)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".eml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	if limit > 0 && limit < len(names) {
		names = names[:limit]
	}

	emails := make([]core.Email, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		id := strings.TrimSuffix(name, filepath.Ext(name))
		email, err := ParseMessage(id, raw)
		if err != nil {
			// An unparseable file still yields a row, scored on its raw text
			s.logger.Warn("Failed to parse message, using raw content",
				zap.String("path", path),
				zap.Error(err))
			email = core.Email{ID: id, Body: string(raw)}
		}
		emails = append(emails, email)
	}

	s.logger.Debug("Read messages from directory",
		zap.String("folder", dir),
		zap.Int("count", len(emails)))
	return emails, nil
}
