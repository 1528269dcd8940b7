package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/suPer8Hu/attackforge/internal/session"
	"gorm.io/gorm"
)

func seed(t *testing.T, store session.Store, id string) {
	t.Helper()
	m := session.ModelConfig{ID: "m", Name: "Model", APIURL: "http://localhost/v1", APIKey: "k", Model: "x"}
	ok := store.Save(context.Background(), &session.Session{
		ID:   id,
		Name: "archived",
		Config: session.SessionConfig{
			RedTeamer: m,
			Target:    m,
		},
		Messages: []session.Message{
			{ID: "1", Role: session.RoleUser, Content: "hello", Timestamp: "t"},
		},
		CreatedAt: "2024-01-01T00:00:00Z",
		Status:    session.StatusActive,
	})
	if !ok {
		t.Fatalf("seed failed")
	}
}

func TestHandle_WritesAndRemoves(t *testing.T) {
	dir := t.TempDir()
	store := session.NewFileStore(filepath.Join(dir, "sessions.json"))
	a := New(store, filepath.Join(dir, "archive"))
	seed(t, store, "s1")

	ctx := context.Background()
	if err := a.Handle(ctx, session.Event{Type: session.EventCreated, SessionID: "s1", At: time.Now()}); err != nil {
		t.Fatalf("handle created: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "archive", "s1.md"))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !strings.HasPrefix(string(b), "# archived\n") {
		t.Fatalf("unexpected archive content:\n%s", b)
	}

	if err := a.Handle(ctx, session.Event{Type: session.EventDeleted, SessionID: "s1"}); err != nil {
		t.Fatalf("handle deleted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "archive", "s1.md")); !os.IsNotExist(err) {
		t.Fatalf("expected archive removed, stat err=%v", err)
	}
	// deleting twice is fine
	if err := a.Handle(ctx, session.Event{Type: session.EventDeleted, SessionID: "s1"}); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestHandle_RejectsPathIDs(t *testing.T) {
	a := New(session.NewFileStore(filepath.Join(t.TempDir(), "s.json")), t.TempDir())
	if err := a.Handle(context.Background(), session.Event{Type: session.EventUpdated, SessionID: "../etc"}); err == nil {
		t.Fatalf("expected unsafe id to be rejected")
	}
}

func newSQLStore(t *testing.T) session.Store {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "sessions.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s := session.NewSQLStore(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestHandle_CancelledContextKeepsArchive(t *testing.T) {
	store := newSQLStore(t)
	dir := t.TempDir()
	a := New(store, dir)
	seed(t, store, "s1")

	if err := a.Handle(context.Background(), session.Event{Type: session.EventCreated, SessionID: "s1"}); err != nil {
		t.Fatalf("handle created: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := a.Handle(ctx, session.Event{Type: session.EventUpdated, SessionID: "s1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "s1.md")); err != nil {
		t.Fatalf("archive of a stored session must survive a failed read: %v", err)
	}
	if _, ok := store.Get(context.Background(), "s1"); !ok {
		t.Fatalf("session should still be stored")
	}
}

func TestHandle_MissingSessionLeavesArchiveForDeleteEvent(t *testing.T) {
	dir := t.TempDir()
	store := session.NewFileStore(filepath.Join(dir, "sessions.json"))
	archiveDir := filepath.Join(dir, "archive")
	a := New(store, archiveDir)
	seed(t, store, "s1")

	ctx := context.Background()
	if err := a.Handle(ctx, session.Event{Type: session.EventCreated, SessionID: "s1"}); err != nil {
		t.Fatalf("handle created: %v", err)
	}
	if !store.Delete(ctx, "s1") {
		t.Fatalf("delete failed")
	}
	if err := a.Handle(ctx, session.Event{Type: session.EventUpdated, SessionID: "s1"}); err != nil {
		t.Fatalf("handle updated: %v", err)
	}
	if _, err := os.Stat(filepath.Join(archiveDir, "s1.md")); err != nil {
		t.Fatalf("only a delete event may remove the archive: %v", err)
	}

	entries, err := os.ReadDir(archiveDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}
