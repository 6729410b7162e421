// Package session drives chat turns against a model and applies the file
// blocks in each streamed reply to the project.
//
// Information Hiding:
// - Chunk consumption order and the one-turn-in-flight rule
// - Failure classification and synthetic replies
// - When transcript and project are persisted

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richinex/zerb/extract"
	"github.com/richinex/zerb/llm"
	"github.com/richinex/zerb/log"
	"github.com/richinex/zerb/project"
	"github.com/richinex/zerb/storage"
)

// Message is one transcript entry.
type Message = storage.Message

// Update describes the state after one chunk was applied.
type Update struct {
	TurnID string
	// Prose is the assistant text shown in place of the reply so far.
	Prose string
	// Files are the blocks found in the reply, in scan order.
	Files []extract.FileBlock
	// Completed holds every name completed this turn.
	Completed []string
	// NewlyCompleted holds names that completed with this chunk.
	NewlyCompleted []string
	// Inserted holds names that were new to the project.
	Inserted []string
	// Active is the project's active file after the merge.
	Active string
}

// Observer receives an Update after every chunk. It runs on the goroutine
// that called Send.
type Observer func(Update)

// Session is one project and its transcript, bound to a provider.
type Session struct {
	mu         sync.Mutex
	id         string
	provider   llm.Provider
	store      storage.Store
	logger     *log.Logger
	project    *project.Project
	transcript []Message
	authValid  bool
	inFlight   bool
	cancel     context.CancelFunc
}

// New creates an unsaved session with the seeded default project.
func New(provider llm.Provider) *Session {
	return &Session{
		id:        uuid.New().String(),
		provider:  provider,
		logger:    log.Nop(),
		project:   project.Default(),
		authValid: true,
	}
}

// Open restores a session from store. A session that was never saved
// starts with the default project.
func Open(ctx context.Context, store storage.Store, sessionID string, provider llm.Provider) (*Session, error) {
	s := New(provider)
	s.id = sessionID
	s.store = store

	history, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading transcript: %w", err)
	}
	s.transcript = history

	files, active, ok, err := store.LoadProject(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	if ok {
		s.project = project.FromFiles(files, active)
	}
	return s, nil
}

// WithLogger sets the logger used for turn events.
func (s *Session) WithLogger(logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Nop()
	}
	s.logger = logger
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// SetProvider swaps the model provider and clears a previous auth failure.
func (s *Session) SetProvider(provider llm.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = provider
	s.authValid = true
}

// AuthValid reports whether the last turn left the credentials usable.
func (s *Session) AuthValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authValid
}

// InFlight reports whether a turn is streaming.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Project returns a copy of the current project.
func (s *Session) Project() *project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Clone()
}

// Transcript returns a copy of the transcript.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// SetActive selects the active file and persists the change.
func (s *Session) SetActive(ctx context.Context, name string) error {
	return s.editProject(ctx, func(p *project.Project) error {
		if !p.SetActive(name) {
			return fmt.Errorf("no file named %q", name)
		}
		return nil
	})
}

// WriteFile replaces the content of an existing file.
func (s *Session) WriteFile(ctx context.Context, name, content string) error {
	return s.editProject(ctx, func(p *project.Project) error {
		if !p.SetContent(name, content) {
			return fmt.Errorf("no file named %q", name)
		}
		return nil
	})
}

// RemoveFile deletes a file from the project.
func (s *Session) RemoveFile(ctx context.Context, name string) error {
	return s.editProject(ctx, func(p *project.Project) error {
		if !p.Remove(name) {
			return fmt.Errorf("no file named %q", name)
		}
		return nil
	})
}

// ReplaceProject swaps in a whole project, for example an imported snapshot.
func (s *Session) ReplaceProject(ctx context.Context, p *project.Project) error {
	next := p.Clone()
	return s.editProject(ctx, func(*project.Project) error {
		s.project = next
		return nil
	})
}

// editProject runs fn on the project under the lock and persists the
// result. Edits are refused while a turn is streaming.
func (s *Session) editProject(ctx context.Context, fn func(*project.Project) error) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	err := fn(s.project)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.saveProject(ctx)
}

// Abandon cancels the turn in flight, if any. Send then returns a
// TurnError of kind FailureAbandoned.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Send runs one turn: it streams the reply to text, applies every file
// block to the project as chunks arrive, and records the exchange.
//
// A failed stream still records the exchange with a synthetic assistant
// reply and returns a *TurnError. File updates applied before the failure
// are kept. An abandoned turn records nothing.
func (s *Session) Send(ctx context.Context, text string, observe Observer) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	switch {
	case s.inFlight:
		s.mu.Unlock()
		return Message{}, ErrTurnInFlight
	case s.provider == nil:
		s.mu.Unlock()
		return Message{}, ErrNoProvider
	case !s.authValid:
		s.mu.Unlock()
		return Message{}, ErrAuthRequired
	}
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.inFlight = true
	s.cancel = cancel
	provider := s.provider
	messages := BuildMessages(s.transcript, text, s.project.Files())
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	turn := NewTurn()
	logger := s.logger.WithTurn(turn.ID())
	logger.Info("turn started",
		zap.String("model", provider.Model()),
		zap.Int("history", len(messages)-2),
	)

	streamErr := s.stream(turnCtx, provider, messages, turn, logger, observe)
	// Whatever ended the stream, what it produced is still saved.
	saveCtx := context.WithoutCancel(ctx)

	userMsg := Message{ID: uuid.New().String(), Role: llm.RoleUser, Content: text}
	reply := Message{
		ID:           turn.ID(),
		Role:         llm.RoleAssistant,
		Content:      turn.Result().Prose,
		UpdatedFiles: turn.Completed(),
	}

	if streamErr != nil {
		kind := Classify(streamErr)
		if errors.Is(turnCtx.Err(), context.Canceled) {
			kind = FailureAbandoned
		}
		turnErr := &TurnError{TurnID: turn.ID(), Kind: kind, Err: streamErr}

		if kind == FailureAbandoned {
			logger.Warn("turn abandoned", zap.Int("chunks", turn.Chunks()))
			if err := s.saveProject(saveCtx); err != nil {
				logger.Error("failed to persist project", zap.Error(err))
			}
			return Message{}, turnErr
		}

		logger.Error("turn failed",
			zap.Stringer("kind", kind),
			zap.Int("chunks", turn.Chunks()),
			zap.Error(streamErr),
		)
		reply.Content = syntheticReply(kind)
		s.mu.Lock()
		if kind == FailureAuth {
			s.authValid = false
		}
		s.transcript = append(s.transcript, userMsg, reply)
		s.mu.Unlock()
		if err := s.persist(saveCtx); err != nil {
			logger.Error("failed to persist session", zap.Error(err))
		}
		return reply, turnErr
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, userMsg, reply)
	s.mu.Unlock()

	logger.Info("turn finished",
		zap.Int("chunks", turn.Chunks()),
		zap.Int("bytes", len(turn.Raw())),
		zap.Strings("completed", reply.UpdatedFiles),
	)

	if err := s.persist(saveCtx); err != nil {
		logger.Error("failed to persist session", zap.Error(err))
		return reply, fmt.Errorf("persisting session: %w", err)
	}
	return reply, nil
}

// stream runs the provider on its own goroutine and consumes chunks here,
// one at a time, so each extraction sees a strict extension of the last.
func (s *Session) stream(ctx context.Context, provider llm.Provider, messages []llm.ChatMessage, turn *Turn, logger *log.Logger, observe Observer) error {
	chunks := make(chan string)
	done := make(chan error, 1)

	go func() {
		_, err := provider.StreamChat(ctx, messages, chunks)
		// The provider has returned and never closes chunks itself.
		close(chunks)
		done <- err
	}()

	for chunk := range chunks {
		result, newly := turn.Append(chunk)

		s.mu.Lock()
		inserted := s.project.Apply(result.Files)
		active := s.project.Active()
		s.mu.Unlock()

		for _, name := range newly {
			logger.Debug("file completed", zap.String("file", name))
		}

		if observe != nil {
			observe(Update{
				TurnID:         turn.ID(),
				Prose:          result.Prose,
				Files:          result.Files,
				Completed:      turn.Completed(),
				NewlyCompleted: newly,
				Inserted:       inserted,
				Active:         active,
			})
		}
	}
	return <-done
}

func (s *Session) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	history := make([]Message, len(s.transcript))
	copy(history, s.transcript)
	s.mu.Unlock()

	if err := s.store.Save(ctx, s.id, history); err != nil {
		return err
	}
	return s.saveProject(ctx)
}

func (s *Session) saveProject(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	files := s.project.Files()
	active := s.project.Active()
	s.mu.Unlock()

	return s.store.SaveProject(ctx, s.id, files, active)
}
