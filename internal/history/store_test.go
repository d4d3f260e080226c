package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := newTestStore(t)

	if err := store.Record("local", "SELECT * FROM users LIMIT 201 OFFSET 0", 12*time.Millisecond, 3, nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record("local", "SELECT * FROM nope", time.Millisecond, 0, errors.New("no such table: nope")); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	latest := entries[0]
	if latest.Success {
		t.Error("expected newest entry to be the failed statement")
	}
	if latest.ErrorMessage != "no such table: nope" {
		t.Errorf("unexpected error message %q", latest.ErrorMessage)
	}
	if entries[1].RowCount != 3 || entries[1].Duration != 12*time.Millisecond {
		t.Errorf("unexpected first entry %+v", entries[1])
	}
	if latest.SessionID != store.SessionID() {
		t.Errorf("expected session %s, got %s", store.SessionID(), latest.SessionID)
	}
	if latest.ExecutedAt.IsZero() {
		t.Error("expected executed_at to be parsed")
	}
}

func TestSearch(t *testing.T) {
	store := newTestStore(t)
	for _, stmt := range []string{"SELECT * FROM users", "SELECT * FROM teams", "SELECT * FROM users WHERE id = 1"} {
		if err := store.Record("local", stmt, 0, 0, nil); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := store.Search("users", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(entries))
	}
	if entries[0].Statement != "SELECT * FROM users WHERE id = 1" {
		t.Errorf("expected newest match first, got %q", entries[0].Statement)
	}
}

func TestSessionsDiffer(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	if a.SessionID() == b.SessionID() {
		t.Error("expected distinct session ids")
	}
}
