package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"blockgallery/internal/config"
	"blockgallery/internal/gallery"
	"blockgallery/internal/graph"
	"blockgallery/internal/graph/local"
)

// BlockDetailer is implemented by hosts that can show a block page
// themselves.
type BlockDetailer interface {
	BlockDetail(ctx context.Context, uid string) (local.BlockDetail, error)
}

type Server struct {
	cfg       config.Config
	host      graph.Host
	galleries *gallery.Manager
	mux       *http.ServeMux
	views     *Templates
	events    *sseHub
	toasts    *toastStore
	// openWait bounds how long opening a gallery waits for the first batch.
	openWait time.Duration
}

func NewServer(cfg config.Config, host graph.Host, galleries *gallery.Manager) *Server {
	s := &Server{
		cfg:       cfg,
		host:      host,
		galleries: galleries,
		mux:       http.NewServeMux(),
		views:     MustParseTemplates(),
		events:    newSSEHub(),
		toasts:    newToastStore(),
		openWait:  5 * time.Second,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /blocks/{uid}", s.handleBlock)

	s.mux.HandleFunc("GET /g/{sid}", s.withSession(s.handleGallery))
	s.mux.HandleFunc("GET /g/{sid}/grid", s.withSession(s.handleGrid))
	s.mux.HandleFunc("GET /g/{sid}/events", s.withSession(s.handleEvents))
	s.mux.HandleFunc("GET /g/{sid}/status", s.withSession(s.handleStatus))
	s.mux.HandleFunc("GET /g/{sid}/search", s.withSession(s.handleSearch))
	s.mux.HandleFunc("POST /g/{sid}/config", s.withSession(s.handleConfig))
	s.mux.HandleFunc("GET /g/{sid}/images/{id}", s.withSession(s.handleLightbox))
	s.mux.HandleFunc("POST /g/{sid}/images/{id}/copy", s.withSession(s.handleCopy))
	s.mux.HandleFunc("GET /g/{sid}/source/{uid}", s.withSession(s.handleSource))
	s.mux.HandleFunc("GET /g/{sid}/toasts", s.withSession(s.handleToasts))
	s.mux.HandleFunc("POST /g/{sid}/close", s.handleClose)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *gallery.Session)

func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.galleries.Get(r.PathValue("sid"))
		if !ok || sess.Closed() {
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", "/")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r, sess)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration_ms", time.Since(start).Milliseconds())
	})
}
