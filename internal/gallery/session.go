package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"blockgallery/internal/graph"
	"blockgallery/internal/prefs"
)

// Session is one open gallery: its image collection, the loops that fill it
// and the display state of the user looking at it.
type Session struct {
	ID string

	host      graph.Host
	prefs     prefs.Repository
	clipboard Clipboard
	pipeline  Pipeline
	enricher  Enricher
	images    *Collection

	mu       sync.Mutex
	cfg      ViewConfig
	page     int
	term     string
	state    State
	progress Progress
	renderer Renderer
	closed   bool

	done chan struct{}
}

type SessionOptions struct {
	Host      graph.Host
	Prefs     prefs.Repository
	Clipboard Clipboard
	Pipeline  Pipeline
	Enricher  Enricher
	Config    ViewConfig
}

func NewSession(id string, opts SessionOptions) *Session {
	pipeline := opts.Pipeline
	pipeline.Graph = opts.Host
	enricher := opts.Enricher
	enricher.Graph = opts.Host
	store := opts.Prefs
	if store == nil {
		store = prefs.NewMemoryStore(prefs.Preferences{})
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = SystemClipboard{}
	}
	return &Session{
		ID:        id,
		host:      opts.Host,
		prefs:     store,
		clipboard: clip,
		pipeline:  pipeline,
		enricher:  enricher,
		images:    NewCollection(),
		cfg:       opts.Config.Normalize(),
		page:      1,
		state:     StateLoading,
		done:      make(chan struct{}),
	}
}

// Start scans the graph and returns once the first visible batch has been
// rendered (or the session reached a terminal state). Hydration of the rest
// and enrichment continue in the background until they finish or ctx ends.
// waitCtx only bounds how long Start itself waits.
func (s *Session) Start(ctx, waitCtx context.Context) {
	first := make(chan struct{})
	go s.run(ctx, first)
	select {
	case <-first:
	case <-waitCtx.Done():
	}
}

// Done is closed when both background loops have finished.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) run(ctx context.Context, first chan struct{}) {
	defer close(s.done)
	var once sync.Once
	markFirst := func() { once.Do(func() { close(first) }) }
	defer markFirst()

	start := time.Now()
	stamps, err := s.pipeline.Scan(ctx)
	if err != nil {
		// shown as the plain empty gallery; the cause only goes to the log
		slog.Warn("gallery scan failed", "session", s.ID, "err", err)
		s.finish(StateFailed)
		return
	}
	if len(stamps) == 0 {
		s.finish(StateEmpty)
		return
	}
	s.mu.Lock()
	s.progress.Total = len(stamps)
	s.mu.Unlock()

	err = s.pipeline.Run(ctx, stamps, func(b Batch) {
		s.applyBatch(b)
		if b.Index == 0 {
			markFirst()
		}
	})
	if err != nil {
		slog.Warn("gallery hydration stopped", "session", s.ID, "err", err)
		return
	}
	slog.Info("gallery hydrated", "session", s.ID, "blocks", len(stamps), "images", s.images.Len(), "duration_ms", time.Since(start).Milliseconds())

	err = s.enricher.Run(ctx, s.images, func(done, total int) {
		s.mu.Lock()
		s.progress.Enriched = done
		s.progress.EnrichTotal = total
		s.mu.Unlock()
		s.status()
	})
	if err != nil {
		slog.Warn("gallery enrichment stopped", "session", s.ID, "err", err)
		return
	}
	s.mu.Lock()
	s.state = StateEnriched
	s.mu.Unlock()
	s.status()
}

func (s *Session) applyBatch(b Batch) {
	s.mu.Lock()
	s.images.Append(b.Records, s.cfg.Sort)
	s.progress.Hydrated = b.Hydrated
	s.progress.Total = b.Total
	s.progress.Images = s.images.Len()
	if b.Final {
		s.state = StateReady
	} else {
		s.state = StateHydrating
	}
	onFirstPage := s.page == 1
	s.mu.Unlock()

	if b.Index == 0 || onFirstPage {
		s.render()
	}
	// the toolbar follows every batch, including search turning on with the
	// final one
	s.status()
}

func (s *Session) finish(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.render()
}

// Attach sets the renderer that receives updates. Passing nil detaches.
func (s *Session) Attach(r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.renderer = r
}

// Detach drops r if it is still the current renderer.
func (s *Session) Detach(r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.renderer == r {
		s.renderer = nil
	}
}

// Close detaches the renderer for good. Background loops are not stopped;
// they keep filling the collection with nobody drawing it.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.renderer = nil
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) render() {
	s.mu.Lock()
	r := s.renderer
	s.mu.Unlock()
	if r == nil {
		return
	}
	r.Render(s.View())
}

func (s *Session) status() {
	s.mu.Lock()
	r := s.renderer
	s.mu.Unlock()
	if r == nil {
		return
	}
	r.Status(s.View())
}

// View builds the view model for the current page.
func (s *Session) View() View {
	all, version := s.images.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	v := buildView(all, version, s.cfg, s.page, s.term)
	// keep the stored page in range after the list shrank through a search
	s.page = v.Page.Page
	v.SessionID = s.ID
	v.State = s.state
	v.SearchEnabled = s.searchEnabledLocked()
	v.Progress = s.progress
	v.Progress.Images = len(all)
	return v
}

func (s *Session) Config() ViewConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SearchEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchEnabledLocked()
}

func (s *Session) searchEnabledLocked() bool {
	return s.state == StateReady || s.state == StateEnriched
}

// Images returns a copy of the full, sorted collection.
func (s *Session) Images() []ImageRecord {
	all, _ := s.images.Snapshot()
	return all
}

// Dispatch handles one user intent.
func (s *Session) Dispatch(ctx context.Context, in Intent) (Effect, error) {
	if s.Closed() {
		return Effect{}, ErrSessionClosed
	}
	switch in := in.(type) {
	case OpenLightbox:
		rec, ok := s.images.Get(in.ImageID)
		if !ok {
			return Effect{}, fmt.Errorf("%w: %s", ErrImageNotFound, in.ImageID)
		}
		return Effect{Lightbox: &rec}, nil
	case GoToSource:
		uid := strings.TrimSpace(in.BlockUID)
		if uid == "" {
			return Effect{}, fmt.Errorf("%w: empty block uid", graph.ErrNotFound)
		}
		url, err := s.host.SourceURL(ctx, uid)
		if err != nil {
			return Effect{}, fmt.Errorf("source url %s: %w", uid, err)
		}
		return Effect{Redirect: url}, nil
	case ChangeConfig:
		next, err := s.Config().With(in.Field, in.Value)
		if err != nil {
			return Effect{}, err
		}
		v := s.SetConfig(ctx, next)
		return Effect{View: &v}, nil
	case Search:
		s.mu.Lock()
		if !s.searchEnabledLocked() {
			s.mu.Unlock()
			return Effect{}, ErrSearchDisabled
		}
		s.term = in.Term
		s.page = 1
		s.mu.Unlock()
		v := s.View()
		return Effect{View: &v}, nil
	case SetPage:
		s.mu.Lock()
		s.page = max(in.Page, 1)
		s.mu.Unlock()
		v := s.View()
		return Effect{View: &v}, nil
	case CopyImage:
		rec, ok := s.images.Get(in.ImageID)
		if !ok {
			return Effect{}, fmt.Errorf("%w: %s", ErrImageNotFound, in.ImageID)
		}
		if err := s.clipboard.Copy(rec.URL); err != nil {
			slog.Warn("copy image url", "id", rec.ID, "err", err)
			return Effect{Notice: &Notice{Message: "Copy failed", Failed: true}}, nil
		}
		return Effect{Notice: &Notice{Message: "Copied"}}, nil
	}
	return Effect{}, errors.New("unknown intent")
}

// SetConfig is the only way the display config changes. It persists the new
// config and re-renders. Changing the column count keeps the current page;
// page size and sort changes go back to page 1.
func (s *Session) SetConfig(ctx context.Context, next ViewConfig) View {
	next = next.Normalize()
	s.mu.Lock()
	prev := s.cfg
	s.cfg = next
	if next.PageSize != prev.PageSize || next.Sort != prev.Sort {
		s.page = 1
	}
	if next.Sort != prev.Sort {
		s.images.Resort(next.Sort)
	}
	s.mu.Unlock()

	if err := s.prefs.Save(ctx, ToPreferences(next)); err != nil {
		slog.Warn("save preferences", "session", s.ID, "err", err)
	}
	s.render()
	return s.View()
}

// ConfigFromPreferences turns stored preferences into a valid config.
func ConfigFromPreferences(p prefs.Preferences) ViewConfig {
	return ViewConfig{
		Columns:  p.ImagesPerRow,
		PageSize: p.ImagesPerPage,
		Sort:     SortMode(p.SortOrder),
	}.Normalize()
}

func ToPreferences(c ViewConfig) prefs.Preferences {
	return prefs.Preferences{
		ImagesPerRow:  c.Columns,
		ImagesPerPage: c.PageSize,
		SortOrder:     string(c.Sort),
	}
}
