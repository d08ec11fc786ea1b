package web

import (
	"bytes"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"runtime"

	"blockgallery/internal/gallery"
)

type Templates struct {
	all *template.Template
}

func MustParseTemplates() *Templates {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("unable to resolve template path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
	glob := filepath.Join(root, "templates", "*.html")

	t := template.New("").Funcs(template.FuncMap{
		"columnChoices":   func() []int { return gallery.ColumnChoices },
		"pageSizeChoices": func() []int { return gallery.PageSizeChoices },
		"sortModes":       func() []gallery.SortMode { return gallery.SortModes },
		"percent": func(done, total int) int {
			if total <= 0 {
				return 0
			}
			return done * 100 / total
		},
	})
	t = template.Must(t.ParseGlob(glob))
	return &Templates{all: t}
}

func (t *Templates) Execute(w io.Writer, name string, data ViewData) error {
	return t.all.ExecuteTemplate(w, name, data)
}

func (t *Templates) RenderPage(w http.ResponseWriter, data ViewData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var content bytes.Buffer
	if err := t.all.ExecuteTemplate(&content, data.ContentTemplate, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	pageData := data
	pageData.ContentHTML = template.HTML(content.String())
	if err := t.all.ExecuteTemplate(w, "base", pageData); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (t *Templates) RenderTemplate(w http.ResponseWriter, name string, data ViewData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var buf bytes.Buffer
	if err := t.all.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(buf.Bytes())
}
