package gallery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"blockgallery/internal/graph"
	"blockgallery/internal/prefs"
)

// Manager keeps the open gallery sessions. CloseAll is the unload hook: it
// detaches every renderer and stops all background loops.
type Manager struct {
	opts SessionOptions

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(ctx context.Context, host graph.Host, store prefs.Repository, opts SessionOptions) *Manager {
	ctx, cancel := context.WithCancel(ctx)
	opts.Host = host
	opts.Prefs = store
	return &Manager{
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Open starts a new session with the stored preferences and waits (bounded
// by waitCtx) for its first batch.
func (m *Manager) Open(waitCtx context.Context) *Session {
	opts := m.opts
	cfg := DefaultViewConfig()
	if opts.Prefs != nil {
		stored, err := opts.Prefs.Load(waitCtx)
		if err != nil {
			slog.Warn("load preferences", "err", err)
		} else {
			cfg = ConfigFromPreferences(stored)
		}
	}
	opts.Config = cfg
	s := NewSession(uuid.NewString(), opts)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	slog.Info("gallery open", "session", s.ID, "columns", cfg.Columns, "page_size", cfg.PageSize, "sort", cfg.Sort)
	s.Start(m.ctx, waitCtx)
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close detaches the session's renderer and forgets it. Its loops finish on
// their own.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.Close()
	slog.Info("gallery close", "session", id)
	return true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
	m.cancel()
}
