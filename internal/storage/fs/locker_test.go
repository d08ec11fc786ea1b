package fs

import (
	"sync"
	"testing"
	"time"
)

func TestLockerSerializesSameKey(t *testing.T) {
	l := NewLocker()
	unlock := l.Lock("notes/trip.md")

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		l.Lock("notes/trip.md")()
	}()
	select {
	case <-acquired:
		t.Fatalf("second lock on the same key should block")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("lock not released")
	}
}

func TestLockerIndependentKeys(t *testing.T) {
	l := NewLocker()
	unlock := l.Lock("a.md")
	defer unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})
	go func() {
		defer wg.Done()
		l.Lock("b.md")()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("different keys should not block each other")
	}
	wg.Wait()
}
