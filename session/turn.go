package session

import (
	"strings"

	"github.com/google/uuid"
	"github.com/richinex/zerb/extract"
)

// Turn accumulates one assistant reply. Chunks must be appended in the
// order they arrive; every Append re-extracts the whole accumulated text.
type Turn struct {
	id        string
	raw       strings.Builder
	result    extract.Result
	completed extract.CompletedSet
	chunks    int
}

// NewTurn creates an empty turn with a fresh id.
func NewTurn() *Turn {
	return &Turn{
		id:     uuid.New().String(),
		result: extract.Extract(""),
	}
}

// Append adds a chunk and returns the new extraction together with the
// names that completed for the first time in this turn.
func (t *Turn) Append(chunk string) (extract.Result, []string) {
	t.raw.WriteString(chunk)
	t.chunks++
	t.result = extract.Extract(t.raw.String())

	var newly []string
	for _, name := range t.result.CompletedNames {
		if t.completed.Add(name) {
			newly = append(newly, name)
		}
	}
	return t.result, newly
}

// ID returns the turn id, which is also the assistant message id.
func (t *Turn) ID() string { return t.id }

// Raw returns the accumulated reply text.
func (t *Turn) Raw() string { return t.raw.String() }

// Result returns the latest extraction.
func (t *Turn) Result() extract.Result { return t.result }

// Completed returns every completed name in first-completion order.
func (t *Turn) Completed() []string { return t.completed.Names() }

// Chunks returns how many chunks have been appended.
func (t *Turn) Chunks() int { return t.chunks }
