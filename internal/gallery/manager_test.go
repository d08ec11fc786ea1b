package gallery

import (
	"context"
	"testing"

	"blockgallery/internal/prefs"
)

func TestManagerOpenUsesStoredPreferences(t *testing.T) {
	store := prefs.NewMemoryStore(prefs.Preferences{ImagesPerRow: 8, ImagesPerPage: 20, SortOrder: "page-alpha"})
	m := NewManager(context.Background(), graphWith(30), store, SessionOptions{Clipboard: &fakeClipboard{}})
	defer m.CloseAll()

	s := m.Open(context.Background())
	want := ViewConfig{Columns: 8, PageSize: 20, Sort: SortPageAlpha}
	if got := s.Config(); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if got, ok := m.Get(s.ID); !ok || got != s {
		t.Fatalf("expected session to be registered")
	}
	waitDone(t, s)
	if len(s.Images()) != 30 {
		t.Fatalf("expected 30 images, got %d", len(s.Images()))
	}
}

func TestManagerCloseAll(t *testing.T) {
	m := NewManager(context.Background(), graphWith(5), prefs.NewMemoryStore(prefs.Preferences{}), SessionOptions{Clipboard: &fakeClipboard{}})
	a := m.Open(context.Background())
	b := m.Open(context.Background())
	if a.ID == b.ID || m.Len() != 2 {
		t.Fatalf("expected two distinct sessions")
	}
	if !m.Close(a.ID) || m.Close(a.ID) {
		t.Fatalf("expected close to succeed once")
	}
	if !a.Closed() {
		t.Fatalf("expected closed session")
	}

	m.CloseAll()
	if m.Len() != 0 || !b.Closed() {
		t.Fatalf("expected every session closed")
	}
	waitDone(t, b)
}
