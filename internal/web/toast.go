package web

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const toastDuration = 2 * time.Second

type Toast struct {
	ID        string
	Message   string
	Kind      string
	Duration  time.Duration
	CreatedAt time.Time
}

func (t Toast) DurationMillis() int64 {
	return t.Duration.Milliseconds()
}

type toastStore struct {
	mu        sync.Mutex
	bySession map[string][]Toast
	now       func() time.Time
}

func newToastStore() *toastStore {
	return &toastStore{bySession: make(map[string][]Toast), now: time.Now}
}

func (s *toastStore) Add(key string, toast Toast) Toast {
	if toast.ID == "" {
		toast.ID = uuid.NewString()
	}
	if toast.CreatedAt.IsZero() {
		toast.CreatedAt = s.now()
	}
	if key == "" {
		return toast
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySession[key] = append(s.bySession[key], toast)
	return toast
}

// List returns the toasts of key that have not expired yet and forgets the
// expired ones.
func (s *toastStore) List(key string) []Toast {
	if key == "" {
		return nil
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	toasts := s.bySession[key]
	active := toasts[:0]
	for _, toast := range toasts {
		if toast.Duration > 0 && now.After(toast.CreatedAt.Add(toast.Duration)) {
			continue
		}
		active = append(active, toast)
	}
	if len(active) == 0 {
		delete(s.bySession, key)
		return nil
	}
	s.bySession[key] = active
	out := make([]Toast, len(active))
	copy(out, active)
	return out
}

func (s *toastStore) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bySession, key)
}
