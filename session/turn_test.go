package session

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/richinex/zerb/project"
	"github.com/richinex/zerb/storage"
)

func TestTurnReportsEachCompletionOnce(t *testing.T) {
	turn := NewTurn()

	_, newly := turn.Append(`<file name="a.js" language="js">x`)
	if len(newly) != 0 {
		t.Fatalf("expected nothing completed, got %v", newly)
	}
	_, newly = turn.Append(`</file>`)
	if len(newly) != 1 || newly[0] != "a.js" {
		t.Fatalf("expected a.js to complete, got %v", newly)
	}
	result, newly := turn.Append(" done")
	if len(newly) != 0 {
		t.Errorf("a.js must not be reported twice, got %v", newly)
	}
	if result.Prose != "done" {
		t.Errorf("expected prose 'done', got %q", result.Prose)
	}
	if turn.Chunks() != 3 {
		t.Errorf("expected 3 chunks, got %d", turn.Chunks())
	}
	if got := turn.Completed(); len(got) != 1 || got[0] != "a.js" {
		t.Errorf("expected completed [a.js], got %v", got)
	}
	if turn.Raw() != `<file name="a.js" language="js">x</file> done` {
		t.Errorf("unexpected raw text %q", turn.Raw())
	}
}

func TestTurnStartsEmpty(t *testing.T) {
	turn := NewTurn()
	if turn.ID() == "" {
		t.Error("expected a turn id")
	}
	if r := turn.Result(); r.Prose != "" || len(r.Files) != 0 {
		t.Errorf("expected empty result, got %+v", r)
	}
	if NewTurn().ID() == turn.ID() {
		t.Error("turn ids should be unique")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want FailureKind
	}{
		{errors.New("Requested entity was not found."), FailureAuth},
		{errors.New("API key not valid"), FailureAuth},
		{fmt.Errorf("stream failed: %w", errors.New("invalid x-api-key")), FailureConnection},
		{errors.New("dial tcp: i/o timeout"), FailureConnection},
		{fmt.Errorf("wrapped: %w", errors.New("bad API key")), FailureAuth},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestFileContext(t *testing.T) {
	if got := FileContext(nil); got != "No files currently in project." {
		t.Errorf("unexpected empty context %q", got)
	}

	files := []project.File{
		{Name: "a.js", Language: "javascript", Content: "x"},
		{Name: "b.css", Language: "css", Content: "y"},
	}
	want := "File: a.js\nLanguage: javascript\nContent:\nx\n\nFile: b.css\nLanguage: css\nContent:\ny"
	if got := FileContext(files); got != want {
		t.Errorf("FileContext =\n%q\nwant\n%q", got, want)
	}
	if got := UserPrompt("hi", files); !strings.HasPrefix(got, "Current Project Files:\n") || !strings.HasSuffix(got, "\n\nUser Message: hi") {
		t.Errorf("unexpected user prompt %q", got)
	}
}

func TestMessageIsTask(t *testing.T) {
	tests := []struct {
		msg  storage.Message
		want bool
	}{
		{storage.Message{Content: "Plan: build it"}, true},
		{storage.Message{Content: "PLAN: shout"}, true},
		{storage.Message{Content: "hello"}, false},
		{storage.Message{Content: " plan: leading space"}, false},
		{storage.Message{Content: "done", UpdatedFiles: []string{"a.js"}}, true},
	}
	for _, tt := range tests {
		if got := tt.msg.IsTask(); got != tt.want {
			t.Errorf("IsTask(%q) = %v, want %v", tt.msg.Content, got, tt.want)
		}
	}
}
