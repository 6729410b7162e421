// Package storage provides session persistence behind small interfaces.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures and protocols

package storage

import (
	"context"
	"strings"

	"github.com/richinex/zerb/project"
)

// Message is one transcript entry.
type Message struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
	// UpdatedFiles lists the files an assistant reply completed, in
	// first-completion order.
	UpdatedFiles []string `json:"updated_files,omitempty"`
}

// ConversationStorage defines the interface for storing transcripts.
type ConversationStorage interface {
	// Save replaces the transcript of a session.
	Save(ctx context.Context, sessionID string, history []Message) error

	// Load loads the transcript of a session.
	// Returns empty slice (not nil) if session doesn't exist.
	// Returns error only for storage failures (I/O errors, etc.), not missing sessions.
	Load(ctx context.Context, sessionID string) ([]Message, error)

	// Delete deletes a session with its transcript and project.
	Delete(ctx context.Context, sessionID string) error

	// ListSessions lists all session IDs, most recently updated first.
	ListSessions(ctx context.Context) ([]string, error)

	// Exists checks if a session exists.
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// ProjectStorage persists a session's project files.
type ProjectStorage interface {
	// SaveProject replaces the stored files and active file name.
	SaveProject(ctx context.Context, sessionID string, files []project.File, active string) error

	// LoadProject returns the stored files and active name. ok is false when
	// nothing has been stored for the session yet.
	LoadProject(ctx context.Context, sessionID string) (files []project.File, active string, ok bool, err error)
}

// Store is everything a session needs persisted.
type Store interface {
	ConversationStorage
	ProjectStorage
}

func copyMessages(history []Message) []Message {
	copied := make([]Message, len(history))
	for i, m := range history {
		copied[i] = m
		if m.UpdatedFiles != nil {
			copied[i].UpdatedFiles = append([]string(nil), m.UpdatedFiles...)
		}
	}
	return copied
}

// IsTask reports whether the message is an engineering reply: it carries
// file updates or opens with "plan:" in any case.
func (m Message) IsTask() bool {
	return len(m.UpdatedFiles) > 0 || strings.HasPrefix(strings.ToLower(m.Content), "plan:")
}
