package cli

import (
	"strings"
	"testing"

	"github.com/richinex/zerb/session"
)

func TestRenderReplyTask(t *testing.T) {
	out := renderReply(session.Message{
		Content:      "Plan: build a page.",
		UpdatedFiles: []string{"index.html", "a.css"},
	}, "a.css")

	for _, want := range []string{"ARCHITECTURAL PLAN", "Plan: build a page.", "EXECUTION SUCCESS", "index.html", "a.css", "DONE", "Active: a.css"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Index(out, "index.html") > strings.Index(out, "a.css ") {
		t.Error("badges should keep completion order")
	}
}

func TestRenderReplyChat(t *testing.T) {
	out := renderReply(session.Message{Content: "Hello there"}, "index.html")
	if strings.Contains(out, "ARCHITECTURAL PLAN") || strings.Contains(out, "Active:") {
		t.Errorf("plain chat should not be styled as a task:\n%s", out)
	}
	if !strings.Contains(out, "Hello there") {
		t.Errorf("missing content:\n%s", out)
	}
}

func TestRenderReplyFailure(t *testing.T) {
	out := renderReply(session.Message{Content: session.ConnectionLostMessage}, "")
	if !strings.Contains(out, session.ConnectionLostMessage) {
		t.Errorf("missing synthetic message:\n%s", out)
	}
}
