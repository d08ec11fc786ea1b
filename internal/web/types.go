package web

import (
	"html/template"

	"blockgallery/internal/gallery"
	"blockgallery/internal/graph/local"
)

type ViewData struct {
	Title           string
	ContentTemplate string
	ContentHTML     template.HTML
	SessionID       string
	View            gallery.View
	Image           *gallery.ImageRecord
	BlockHTML       template.HTML
	SourceHTML      template.HTML
	Detail          *local.BlockDetail
	Toasts          []Toast
	Notice          string
}
