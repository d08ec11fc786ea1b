package web

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"blockgallery/internal/gallery"
)

type sseEvent struct {
	Name string
	Data []byte
}

type sseHub struct {
	mu      sync.Mutex
	clients map[string]map[chan sseEvent]struct{}
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[string]map[chan sseEvent]struct{})}
}

func (h *sseHub) add(key string) chan sseEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan sseEvent, 8)
	if _, ok := h.clients[key]; !ok {
		h.clients[key] = make(map[chan sseEvent]struct{})
	}
	h.clients[key][ch] = struct{}{}
	return ch
}

func (h *sseHub) remove(key string, ch chan sseEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if chans, ok := h.clients[key]; ok {
		delete(chans, ch)
		if len(chans) == 0 {
			delete(h.clients, key)
		}
	}
	close(ch)
}

// broadcast never blocks; a client that is not keeping up misses events.
func (h *sseHub) broadcast(key string, ev sseEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients[key] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *sseHub) count(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[key])
}

// sseRenderer draws session views as html fragments and pushes them to the
// browsers listening on the session.
type sseRenderer struct {
	views *Templates
	hub   *sseHub
	key   string
}

func (r sseRenderer) Render(v gallery.View) {
	r.push("grid", "grid", v)
}

func (r sseRenderer) Status(v gallery.View) {
	r.push("status", "status", v)
}

func (r sseRenderer) push(event, tmpl string, v gallery.View) {
	var buf bytes.Buffer
	if err := r.views.Execute(&buf, tmpl, ViewData{View: v, SessionID: v.SessionID}); err != nil {
		slog.Warn("render sse fragment", "session", r.key, "template", tmpl, "err", err)
		return
	}
	r.hub.broadcast(r.key, sseEvent{Name: event, Data: buf.Bytes()})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, sess *gallery.Session) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	key := sess.ID
	ch := s.events.add(key)
	// every tab of a session shares one renderer value; the last one to
	// leave detaches it
	renderer := sseRenderer{views: s.views, hub: s.events, key: key}
	sess.Attach(renderer)
	defer func() {
		s.events.remove(key, ch)
		if s.events.count(key) == 0 {
			sess.Detach(renderer)
		}
	}()

	fmt.Fprint(w, "event: ready\ndata: ok\n\n")
	flusher.Flush()
	// catch up with anything drawn before the stream was open
	renderer.Status(sess.View())

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev sseEvent) {
	fmt.Fprintf(w, "event: %s\n", ev.Name)
	for _, line := range strings.Split(string(ev.Data), "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
