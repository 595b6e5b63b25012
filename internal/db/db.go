package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"chat-store/internal/config"
	"chat-store/internal/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqlitePragmas are applied per connection through the DSN so every pooled
// connection enforces foreign keys, not only the first one.
var sqlitePragmas = []string{
	"_pragma=foreign_keys(1)",
	"_pragma=busy_timeout(5000)",
	"_pragma=journal_mode(WAL)",
	"_time_format=sqlite",
}

// Open initializes the database pool and runs migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*sqlx.DB, error) {
	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations applied", "driver", cfg.Driver, "max_open_conns", cfg.MaxOpenConns)
	return db, nil
}

// TxOptions returns the options for a transaction that must observe a stable
// snapshot across reads and the writes they gate. SQLite already serializes
// writers, so it uses the driver default.
func TxOptions(db *sqlx.DB, serializable bool) *sql.TxOptions {
	if !serializable || db.DriverName() != DriverPostgres {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelSerializable}
}

func sqliteDSN(dsn string) (string, error) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path != "" && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("create database directory: %w", err)
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(sqlitePragmas, "&"), nil
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT,
            avatar_url TEXT,
            description TEXT,
            is_ai BOOLEAN NOT NULL DEFAULT FALSE,
            theme TEXT NOT NULL DEFAULT 'system',
            language TEXT NOT NULL DEFAULT 'en-US',
            font_size INTEGER NOT NULL DEFAULT 14,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS agents (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            model_name TEXT NOT NULL,
            system_prompt TEXT NOT NULL,
            temperature DOUBLE PRECISION NOT NULL,
            max_tokens INTEGER,
            top_p DOUBLE PRECISION,
            avatar_url TEXT,
            description TEXT,
            is_streaming BOOLEAN NOT NULL DEFAULT FALSE,
            user_id TEXT UNIQUE REFERENCES users(id),
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS contact_groups (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS contact_user_links (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL UNIQUE REFERENCES users(id),
            created_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS contacts (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT,
            group_id TEXT NOT NULL REFERENCES contact_groups(id),
            owner_id TEXT NOT NULL REFERENCES users(id),
            user_link_id TEXT NOT NULL REFERENCES contact_user_links(id),
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS chats (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            type TEXT NOT NULL CHECK (type IN ('individual', 'group')),
            last_message_id TEXT,
            last_message_content TEXT,
            last_message_time TIMESTAMP,
            last_message_sender_id TEXT,
            last_message_sender_name TEXT,
            last_message_type TEXT,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS chat_participants (
            id TEXT PRIMARY KEY,
            chat_id TEXT NOT NULL REFERENCES chats(id),
            user_id TEXT NOT NULL REFERENCES users(id),
            role TEXT NOT NULL,
            unread_count INTEGER NOT NULL DEFAULT 0 CHECK (unread_count >= 0),
            last_read_message_id TEXT,
            joined_at TIMESTAMP NOT NULL,
            UNIQUE(chat_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS conversations (
            id TEXT PRIMARY KEY,
            chat_id TEXT NOT NULL UNIQUE REFERENCES chats(id),
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id TEXT PRIMARY KEY,
            conversation_id TEXT NOT NULL REFERENCES conversations(id),
            sender_id TEXT NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            content_type TEXT NOT NULL,
            status TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS message_receipts (
            id TEXT PRIMARY KEY,
            message_id TEXT NOT NULL REFERENCES messages(id),
            receiver_id TEXT NOT NULL REFERENCES users(id),
            status TEXT NOT NULL CHECK (status IN ('delivered', 'read')),
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL,
            UNIQUE(message_id, receiver_id)
        );`,
		`CREATE TABLE IF NOT EXISTS attachments (
            id TEXT PRIMARY KEY,
            message_id TEXT NOT NULL REFERENCES messages(id),
            file_name TEXT NOT NULL,
            file_type TEXT NOT NULL,
            file_size INTEGER NOT NULL,
            file_path TEXT NOT NULL,
            thumbnail_path TEXT,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_chat_participants_user ON chat_participants(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages(conversation_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_message_receipts_receiver ON message_receipts(receiver_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_message ON attachments(message_id);`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_owner ON contacts(owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_link ON contacts(user_link_id);`,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
