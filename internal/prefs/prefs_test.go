package prefs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStoreMissingFileReturnsZero(t *testing.T) {
	store := NewFileStore(t.TempDir())
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != (Preferences{}) {
		t.Fatalf("expected zero preferences, got %+v", got)
	}
}

func TestFileStoreRoundTripUsesFixedKeys(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()
	want := Preferences{ImagesPerRow: 6, ImagesPerPage: 100, SortOrder: "page-alpha"}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "preferences.json"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	for _, key := range []string{`"images-per-row": 6`, `"images-per-page": 100`, `"sort-order": "page-alpha"`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("expected %s in %s", key, raw)
		}
	}

	got, err := NewFileStore(dir).Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "preferences.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFileStore(dir).Load(context.Background()); err == nil {
		t.Fatalf("expected error for corrupt file")
	}
}
