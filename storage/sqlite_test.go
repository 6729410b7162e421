package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/richinex/zerb/project"
)

func newTestSqlite(t *testing.T) *SqliteStorage {
	t.Helper()
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

// stores runs a test against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewInMemoryStorage()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newTestSqlite(t)) })
}

func TestStorageSaveAndLoad(t *testing.T) {
	stores(t, func(t *testing.T, storage Store) {
		ctx := context.Background()

		messages := []Message{
			{ID: "m1", Role: "user", Content: "Hello"},
			{ID: "m2", Role: "assistant", Content: "Hi there", UpdatedFiles: []string{"a.html", "b.css"}},
		}

		if err := storage.Save(ctx, "test-session", messages); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := storage.Load(ctx, "test-session")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if len(loaded) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(loaded))
		}
		if loaded[0].Content != "Hello" || loaded[0].ID != "m1" {
			t.Errorf("unexpected first message: %+v", loaded[0])
		}
		if loaded[0].UpdatedFiles != nil {
			t.Errorf("expected no updated files, got %v", loaded[0].UpdatedFiles)
		}
		if got := loaded[1].UpdatedFiles; len(got) != 2 || got[0] != "a.html" || got[1] != "b.css" {
			t.Errorf("expected updated files [a.html b.css], got %v", got)
		}
	})
}

func TestStorageLoadNonexistentSession(t *testing.T) {
	stores(t, func(t *testing.T, storage Store) {
		loaded, err := storage.Load(context.Background(), "nonexistent")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded == nil || len(loaded) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", loaded)
		}
	})
}

func TestStorageDeleteSession(t *testing.T) {
	stores(t, func(t *testing.T, storage Store) {
		ctx := context.Background()

		if err := storage.Save(ctx, "test-session", []Message{{ID: "m1", Role: "user", Content: "Test"}}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := storage.SaveProject(ctx, "test-session", []project.File{{Name: "a.js", Language: "javascript"}}, "a.js"); err != nil {
			t.Fatalf("SaveProject failed: %v", err)
		}

		exists, err := storage.Exists(ctx, "test-session")
		if err != nil {
			t.Fatalf("Exists failed: %v", err)
		}
		if !exists {
			t.Error("expected session to exist")
		}

		if err := storage.Delete(ctx, "test-session"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		exists, err = storage.Exists(ctx, "test-session")
		if err != nil {
			t.Fatalf("Exists failed: %v", err)
		}
		if exists {
			t.Error("expected session to not exist after deletion")
		}

		loaded, err := storage.Load(ctx, "test-session")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(loaded) != 0 {
			t.Errorf("expected transcript to be deleted, got %d messages", len(loaded))
		}
		_, _, ok, err := storage.LoadProject(ctx, "test-session")
		if err != nil {
			t.Fatalf("LoadProject failed: %v", err)
		}
		if ok {
			t.Error("expected project to be deleted")
		}
	})
}

func TestStorageListSessions(t *testing.T) {
	stores(t, func(t *testing.T, storage Store) {
		ctx := context.Background()
		msg := []Message{{ID: "m1", Role: "user", Content: "Test"}}

		if err := storage.Save(ctx, "session-1", msg); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := storage.Save(ctx, "session-2", msg); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		sessions, err := storage.ListSessions(ctx)
		if err != nil {
			t.Fatalf("ListSessions failed: %v", err)
		}
		if len(sessions) != 2 {
			t.Errorf("expected 2 sessions, got %d", len(sessions))
		}
	})
}

func TestStorageOverwriteSession(t *testing.T) {
	stores(t, func(t *testing.T, storage Store) {
		ctx := context.Background()

		messages1 := []Message{{ID: "m1", Role: "user", Content: "First"}}
		messages2 := []Message{
			{ID: "m2", Role: "user", Content: "Second"},
			{ID: "m3", Role: "assistant", Content: "Response"},
		}

		if err := storage.Save(ctx, "test-session", messages1); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := storage.Save(ctx, "test-session", messages2); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := storage.Load(ctx, "test-session")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(loaded) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(loaded))
		}
		if loaded[0].Content != "Second" {
			t.Errorf("expected 'Second', got '%s'", loaded[0].Content)
		}
	})
}

func TestStorageSaveCopiesHistory(t *testing.T) {
	stores(t, func(t *testing.T, storage Store) {
		ctx := context.Background()
		history := []Message{{ID: "m1", Role: "assistant", Content: "x", UpdatedFiles: []string{"a.js"}}}

		if err := storage.Save(ctx, "s", history); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		history[0].Content = "mutated"
		history[0].UpdatedFiles[0] = "mutated.js"

		loaded, err := storage.Load(ctx, "s")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded[0].Content != "x" || loaded[0].UpdatedFiles[0] != "a.js" {
			t.Errorf("stored history changed with caller's slice: %+v", loaded[0])
		}
	})
}

func TestStorageProjectRoundTrip(t *testing.T) {
	stores(t, func(t *testing.T, storage Store) {
		ctx := context.Background()

		_, _, ok, err := storage.LoadProject(ctx, "s")
		if err != nil {
			t.Fatalf("LoadProject failed: %v", err)
		}
		if ok {
			t.Fatal("expected no project before SaveProject")
		}

		files := []project.File{
			{Name: "index.html", Language: "html", Content: "<h1>hi</h1>"},
			{Name: "app.js", Language: "javascript", Content: "console.log(1)"},
		}
		if err := storage.SaveProject(ctx, "s", files, "app.js"); err != nil {
			t.Fatalf("SaveProject failed: %v", err)
		}

		loaded, active, ok, err := storage.LoadProject(ctx, "s")
		if err != nil {
			t.Fatalf("LoadProject failed: %v", err)
		}
		if !ok {
			t.Fatal("expected project to be stored")
		}
		if active != "app.js" {
			t.Errorf("expected active app.js, got %q", active)
		}
		if len(loaded) != 2 || loaded[0] != files[0] || loaded[1] != files[1] {
			t.Errorf("expected %v, got %v", files, loaded)
		}

		// Replacing drops files that are gone.
		if err := storage.SaveProject(ctx, "s", files[1:], ""); err != nil {
			t.Fatalf("SaveProject failed: %v", err)
		}
		loaded, active, _, err = storage.LoadProject(ctx, "s")
		if err != nil {
			t.Fatalf("LoadProject failed: %v", err)
		}
		if len(loaded) != 1 || loaded[0].Name != "app.js" || active != "" {
			t.Errorf("unexpected project after replace: %v active=%q", loaded, active)
		}
	})
}

func TestStorageEmptyProjectIsStored(t *testing.T) {
	stores(t, func(t *testing.T, storage Store) {
		ctx := context.Background()
		if err := storage.SaveProject(ctx, "s", nil, ""); err != nil {
			t.Fatalf("SaveProject failed: %v", err)
		}
		files, _, ok, err := storage.LoadProject(ctx, "s")
		if err != nil {
			t.Fatalf("LoadProject failed: %v", err)
		}
		if !ok || len(files) != 0 {
			t.Errorf("expected stored empty project, got ok=%v files=%v", ok, files)
		}
	})
}

func TestSqliteStorageRejectsDuplicateFileNames(t *testing.T) {
	storage := newTestSqlite(t)
	ctx := context.Background()

	files := []project.File{{Name: "a.js"}, {Name: "a.js"}}
	if err := storage.SaveProject(ctx, "s", files, ""); err == nil {
		t.Fatal("expected error for duplicate file names")
	}

	// The failed transaction leaves nothing behind.
	exists, err := storage.Exists(ctx, "s")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected rolled back session to not exist")
	}
}

func TestSqliteStoragePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "zerb.db")
	ctx := context.Background()

	storage, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	if err := storage.Save(ctx, "s", []Message{{ID: "m1", Role: "user", Content: "persist me"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "s")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Content != "persist me" {
		t.Errorf("expected persisted message, got %v", loaded)
	}
}
