// Package storage provides SQLite session storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/richinex/zerb/project"
)

// SqliteStorage implements Store using SQLite.
// Stores transcripts and project files in a SQLite database file.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every connection to :memory: is a fresh database.
	db.SetMaxOpenConns(1)

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			active_file TEXT NOT NULL DEFAULT '',
			has_project INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			message_index INTEGER NOT NULL,
			message_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			updated_files TEXT,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE,
			UNIQUE(session_id, message_index)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session
		ON messages(session_id, message_index);

		CREATE TABLE IF NOT EXISTS project_files (
			session_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			language TEXT NOT NULL,
			content TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE,
			PRIMARY KEY (session_id, position),
			UNIQUE(session_id, name)
		);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func ensureSession(ctx context.Context, db execer, sessionID string) error {
	_, err := db.ExecContext(ctx,
		"INSERT OR IGNORE INTO sessions (session_id) VALUES (?)",
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure session: %w", err)
	}
	return nil
}

func touchSession(ctx context.Context, db execer, sessionID string) error {
	_, err := db.ExecContext(ctx,
		"UPDATE sessions SET updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now') WHERE session_id = ?",
		sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session timestamp: %w", err)
	}
	return nil
}

// Save saves the transcript for a session.
func (s *SqliteStorage) Save(ctx context.Context, sessionID string, history []Message) error {
	// Start transaction
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	if err := ensureSession(ctx, tx, sessionID); err != nil {
		return err
	}

	// Clear existing messages for this session
	_, err = tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear old messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (session_id, message_index, message_id, role, content, updated_files)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, msg := range history {
		var updated any
		if len(msg.UpdatedFiles) > 0 {
			encoded, err := json.Marshal(msg.UpdatedFiles)
			if err != nil {
				return fmt.Errorf("failed to encode updated files: %w", err)
			}
			updated = string(encoded)
		}
		_, err = stmt.ExecContext(ctx, sessionID, i, msg.ID, msg.Role, msg.Content, updated)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := touchSession(ctx, tx, sessionID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Load loads the transcript for a session.
// Returns empty slice if session doesn't exist.
func (s *SqliteStorage) Load(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, role, content, updated_files
		FROM messages WHERE session_id = ? ORDER BY message_index ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{} // Start with empty slice, not nil
	for rows.Next() {
		var msg Message
		var updated sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if updated.Valid && updated.String != "" {
			if err := json.Unmarshal([]byte(updated.String), &msg.UpdatedFiles); err != nil {
				return nil, fmt.Errorf("invalid updated files for message %q: %w", msg.ID, err)
			}
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// Delete deletes a session, its transcript and its project.
func (s *SqliteStorage) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE session_id = ?",
		sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessions lists all session IDs, most recently updated first.
func (s *SqliteStorage) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id FROM sessions ORDER BY updated_at DESC, session_id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{} // Start with empty slice, not nil
	for rows.Next() {
		var sessionID string
		if err := rows.Scan(&sessionID); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sessionID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// Exists checks if a session exists.
func (s *SqliteStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE session_id = ?",
		sessionID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}

	return count > 0, nil
}

// ProjectStorage implementation

// SaveProject replaces the project files of a session.
func (s *SqliteStorage) SaveProject(ctx context.Context, sessionID string, files []project.File, active string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := ensureSession(ctx, tx, sessionID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM project_files WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear old project files: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO project_files (session_id, position, name, language, content)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, f := range files {
		if _, err := stmt.ExecContext(ctx, sessionID, i, f.Name, f.Language, f.Content); err != nil {
			return fmt.Errorf("failed to insert project file %q: %w", f.Name, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE sessions SET active_file = ?, has_project = 1 WHERE session_id = ?",
		active, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update active file: %w", err)
	}

	if err := touchSession(ctx, tx, sessionID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadProject loads the project files of a session.
func (s *SqliteStorage) LoadProject(ctx context.Context, sessionID string) ([]project.File, string, bool, error) {
	var active string
	var hasProject bool
	err := s.db.QueryRowContext(ctx,
		"SELECT active_file, has_project FROM sessions WHERE session_id = ?",
		sessionID).Scan(&active, &hasProject)
	if err == sql.ErrNoRows {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to query session: %w", err)
	}
	if !hasProject {
		return nil, "", false, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, language, content
		FROM project_files WHERE session_id = ? ORDER BY position ASC`,
		sessionID)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to query project files: %w", err)
	}
	defer rows.Close()

	files := []project.File{}
	for rows.Next() {
		var f project.File
		if err := rows.Scan(&f.Name, &f.Language, &f.Content); err != nil {
			return nil, "", false, fmt.Errorf("failed to scan project file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, "", false, fmt.Errorf("error iterating project files: %w", err)
	}

	return files, active, true, nil
}

// Verify SqliteStorage implements Store
var _ Store = (*SqliteStorage)(nil)
