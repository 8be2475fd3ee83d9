package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

// dialect holds the driver name and schema for one SQL engine
type dialect struct {
	name   string
	driver string
	schema []string
}

var sqliteDialect = dialect{
	name:   "SQLite",
	driver: "sqlite3",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			title TEXT NULL,
			position INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT NOT NULL,
			conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			sent_at TEXT NOT NULL,
			PRIMARY KEY (conversation_id, position)
		)`,
	},
}

var mysqlDialect = dialect{
	name:   "MySQL",
	driver: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id VARCHAR(64) PRIMARY KEY,
			title TEXT NULL,
			position INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id VARCHAR(64) NOT NULL,
			conversation_id VARCHAR(64) NOT NULL,
			position INT NOT NULL,
			role VARCHAR(16) NOT NULL,
			content MEDIUMTEXT NOT NULL,
			sent_at VARCHAR(64) NOT NULL,
			PRIMARY KEY (conversation_id, position),
			INDEX idx_conversation (conversation_id)
		)`,
	},
}

// SQLStore is a database/sql implementation of the core.ConversationStore interface
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

// NewSQLiteStore opens (and creates if needed) a SQLite conversation store
func NewSQLiteStore(ctx context.Context, dbPath string, logger *zap.Logger) (*SQLStore, error) {
	return openSQLStore(ctx, sqliteDialect, dbPath, logger)
}

// NewMySQLStore connects to a MySQL conversation store
func NewMySQLStore(ctx context.Context, dsn string, logger *zap.Logger) (*SQLStore, error) {
	return openSQLStore(ctx, mysqlDialect, dsn, logger)
}

func openSQLStore(ctx context.Context, d dialect, dsn string, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.name, err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.name, err)
	}

	// Create tables if they don't exist
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	return &SQLStore{
		db:      db,
		dialect: d,
		logger:  logger,
	}, nil
}

// Save replaces every stored conversation in one transaction
func (s *SQLStore) Save(ctx context.Context, conversations []core.ConversationRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to roll back conversation save", zap.Error(rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM conversations`); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}

	convStmt, err := tx.PrepareContext(ctx, `INSERT INTO conversations (id, title, position) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare conversation insert: %w", err)
	}
	defer convStmt.Close()

	msgStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (id, conversation_id, position, role, content, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer msgStmt.Close()

	for i, conv := range conversations {
		var title sql.NullString
		if conv.Title != nil {
			title = sql.NullString{String: *conv.Title, Valid: true}
		}
		if _, err = convStmt.ExecContext(ctx, conv.ID, title, i); err != nil {
			return fmt.Errorf("failed to insert conversation %s: %w", conv.ID, err)
		}
		for j, m := range conv.Messages {
			if _, err = msgStmt.ExecContext(ctx, m.ID, conv.ID, j, m.Role, m.Content, m.Timestamp); err != nil {
				return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit conversations: %w", err)
	}

	s.logger.Debug("Saved conversations",
		zap.String("engine", s.dialect.name),
		zap.Int("count", len(conversations)))
	return nil
}

// Load returns every stored conversation in saved order
func (s *SQLStore) Load(ctx context.Context) ([]core.ConversationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM conversations ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var records []core.ConversationRecord
	index := make(map[string]int)
	for rows.Next() {
		var id string
		var title sql.NullString
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		rec := core.ConversationRecord{ID: id, Messages: []core.MessageRecord{}}
		if title.Valid {
			t := title.String
			rec.Title = &t
		}
		index[id] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}

	msgRows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, sent_at
		FROM messages
		ORDER BY conversation_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var m core.MessageRecord
		var conversationID string
		if err := msgRows.Scan(&m.ID, &conversationID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		i, ok := index[conversationID]
		if !ok {
			s.logger.Warn("Skipping message for unknown conversation",
				zap.String("conversation_id", conversationID),
				zap.String("message_id", m.ID))
			continue
		}
		records[i].Messages = append(records[i].Messages, m)
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	return records, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.dialect.name, err)
	}
	return nil
}
