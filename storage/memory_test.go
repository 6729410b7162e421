package storage

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryStorageListSessionsMostRecentFirst(t *testing.T) {
	storage := NewInMemoryStorage()
	ctx := context.Background()

	if err := storage.Save(ctx, "old", nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	time.Sleep(time.Millisecond)
	if err := storage.Save(ctx, "new", nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	sessions, err := storage.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0] != "new" || sessions[1] != "old" {
		t.Errorf("expected [new old], got %v", sessions)
	}
}

func TestInMemoryStorageLoadProjectUnknownSession(t *testing.T) {
	storage := NewInMemoryStorage()

	files, active, ok, err := storage.LoadProject(context.Background(), "missing")
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if ok || files != nil || active != "" {
		t.Errorf("expected nothing for unknown session, got %v %q %v", files, active, ok)
	}
}
