package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"

	"blockgallery/internal/gallery"
	"blockgallery/internal/graph"
)

var mdRenderer = goldmark.New()

func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func highlightMarkdown(src string) (template.HTML, error) {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(2))
	if err := formatter.Format(&buf, styles.Get("github"), it); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// handleHome opens a fresh gallery and sends the browser to it.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.openWait)
	defer cancel()
	sess := s.galleries.Open(ctx)
	http.Redirect(w, r, "/g/"+sess.ID, http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request, sess *gallery.Session) {
	v := sess.View()
	data := ViewData{
		Title:           "Image gallery",
		ContentTemplate: "gallery",
		SessionID:       sess.ID,
		View:            v,
		Toasts:          s.toasts.List(sess.ID),
	}
	if r.Header.Get("HX-Request") == "true" {
		s.views.RenderTemplate(w, "grid", data)
		return
	}
	s.views.RenderPage(w, data)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request, sess *gallery.Session) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}
	eff, err := sess.Dispatch(r.Context(), gallery.SetPage{Page: page})
	if err != nil {
		s.dispatchError(w, err)
		return
	}
	s.views.RenderTemplate(w, "grid", ViewData{SessionID: sess.ID, View: *eff.View})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, sess *gallery.Session) {
	eff, err := sess.Dispatch(r.Context(), gallery.Search{Term: r.URL.Query().Get("q")})
	if err != nil {
		s.dispatchError(w, err)
		return
	}
	s.views.RenderTemplate(w, "grid", ViewData{SessionID: sess.ID, View: *eff.View})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request, sess *gallery.Session) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	eff, err := sess.Dispatch(r.Context(), gallery.ChangeConfig{
		Field: r.Form.Get("field"),
		Value: r.Form.Get("value"),
	})
	if err != nil {
		s.dispatchError(w, err)
		return
	}
	s.views.RenderTemplate(w, "grid", ViewData{SessionID: sess.ID, View: *eff.View})
}

func (s *Server) handleLightbox(w http.ResponseWriter, r *http.Request, sess *gallery.Session) {
	eff, err := sess.Dispatch(r.Context(), gallery.OpenLightbox{ImageID: r.PathValue("id")})
	if err != nil {
		s.dispatchError(w, err)
		return
	}
	blockHTML, err := renderMarkdown(eff.Lightbox.BlockText)
	if err != nil {
		slog.Warn("render block markdown", "id", eff.Lightbox.ID, "err", err)
	}
	data := ViewData{
		Title:           eff.Lightbox.AltText,
		ContentTemplate: "lightbox",
		SessionID:       sess.ID,
		Image:           eff.Lightbox,
		BlockHTML:       blockHTML,
		Toasts:          s.toasts.List(sess.ID),
	}
	if r.Header.Get("HX-Request") == "true" {
		s.views.RenderTemplate(w, "lightbox", data)
		return
	}
	s.views.RenderPage(w, data)
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request, sess *gallery.Session) {
	eff, err := sess.Dispatch(r.Context(), gallery.CopyImage{ImageID: r.PathValue("id")})
	if err != nil {
		s.dispatchError(w, err)
		return
	}
	kind := "success"
	if eff.Notice.Failed {
		kind = "error"
	}
	s.toasts.Add(sess.ID, Toast{Message: eff.Notice.Message, Kind: kind, Duration: toastDuration})
	s.views.RenderTemplate(w, "toasts", ViewData{SessionID: sess.ID, Toasts: s.toasts.List(sess.ID)})
}

func (s *Server) handleToasts(w http.ResponseWriter, r *http.Request, sess *gallery.Session) {
	s.views.RenderTemplate(w, "toasts", ViewData{SessionID: sess.ID, Toasts: s.toasts.List(sess.ID)})
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request, sess *gallery.Session) {
	eff, err := sess.Dispatch(r.Context(), gallery.GoToSource{BlockUID: r.PathValue("uid")})
	if err != nil {
		s.dispatchError(w, err)
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", eff.Redirect)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, eff.Redirect, http.StatusSeeOther)
}

// handleClose is the page unload hook. It is sent as a beacon, so it never
// redirects.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	s.galleries.Close(sid)
	s.toasts.Forget(sid)
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Session       string           `json:"session"`
	State         gallery.State    `json:"state"`
	SearchEnabled bool             `json:"searchEnabled"`
	Progress      gallery.Progress `json:"progress"`
	Version       uint64           `json:"version"`
	Page          int              `json:"page"`
	TotalPages    int              `json:"totalPages"`
	Matches       int              `json:"matches"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, sess *gallery.Session) {
	v := sess.View()
	writeJSON(w, http.StatusOK, statusResponse{
		Session:       sess.ID,
		State:         v.State,
		SearchEnabled: v.SearchEnabled,
		Progress:      v.Progress,
		Version:       v.Version,
		Page:          v.Page.Page,
		TotalPages:    v.Page.TotalPages,
		Matches:       v.Matches,
	})
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	detailer, ok := s.host.(BlockDetailer)
	if !ok {
		http.NotFound(w, r)
		return
	}
	uid := strings.TrimSpace(r.PathValue("uid"))
	detail, err := detailer.BlockDetail(r.Context(), uid)
	if errors.Is(err, graph.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Warn("block detail", "uid", uid, "err", err)
		http.Error(w, "could not read block", http.StatusInternalServerError)
		return
	}
	rendered, err := renderMarkdown(detail.Markdown)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	source, err := highlightMarkdown(detail.Markdown)
	if err != nil {
		slog.Warn("highlight block", "uid", uid, "err", err)
	}
	s.views.RenderPage(w, ViewData{
		Title:           detail.PageTitle,
		ContentTemplate: "block",
		Detail:          &detail,
		BlockHTML:       rendered,
		SourceHTML:      source,
	})
}

func (s *Server) dispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gallery.ErrSearchDisabled):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, gallery.ErrInvalidConfig):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, gallery.ErrImageNotFound), errors.Is(err, graph.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, gallery.ErrSessionClosed):
		http.Error(w, err.Error(), http.StatusGone)
	default:
		slog.Warn("gallery intent", "err", err)
		http.Error(w, "request failed", http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json", "err", err)
	}
}
