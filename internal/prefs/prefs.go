// Package prefs persists the three gallery display preferences.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"blockgallery/internal/storage/fs"
)

const fileName = "preferences.json"

// Preferences holds the raw stored values. Zero values mean "not set"; the
// gallery falls back to its defaults for those.
type Preferences struct {
	ImagesPerRow  int    `json:"images-per-row,omitempty"`
	ImagesPerPage int    `json:"images-per-page,omitempty"`
	SortOrder     string `json:"sort-order,omitempty"`
}

type Repository interface {
	Load(ctx context.Context) (Preferences, error)
	Save(ctx context.Context, p Preferences) error
}

// FileStore keeps preferences as JSON in the data directory.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(dataPath string) *FileStore {
	return &FileStore{path: filepath.Join(dataPath, fileName)}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Preferences{}, nil
		}
		return Preferences{}, err
	}
	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return Preferences{}, err
	}
	return p, nil
}

func (s *FileStore) Save(ctx context.Context, p Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fs.WriteJSONAtomic(s.path, p, 0o644)
}

// MemoryStore is a Repository that keeps preferences in memory.
type MemoryStore struct {
	mu    sync.Mutex
	prefs Preferences
	saves int
}

func NewMemoryStore(initial Preferences) *MemoryStore {
	return &MemoryStore{prefs: initial}
}

func (m *MemoryStore) Load(ctx context.Context) (Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs, nil
}

func (m *MemoryStore) Save(ctx context.Context, p Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = p
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
