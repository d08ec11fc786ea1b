package gallery

import (
	"strings"

	"blockgallery/internal/graph"
)

const (
	DefaultAltText   = "Image"
	DefaultPageTitle = "Untitled"
)

// ImageRecord is one image occurrence inside a block. A block with several
// image markers yields several records sharing SourceBlockID.
type ImageRecord struct {
	ID            string `json:"id" yaml:"id"`
	SourceBlockID string `json:"sourceBlockId" yaml:"source_block_id"`
	URL           string `json:"url" yaml:"url"`
	AltText       string `json:"altText" yaml:"alt_text"`
	CreatedAt     *int64 `json:"createdAt" yaml:"created_at"`
	PageTitle     string `json:"pageTitle" yaml:"page_title"`
	BlockText     string `json:"blockText" yaml:"block_text"`
	ParentText    string `json:"parentText" yaml:"parent_text"`
	ChildrenText  string `json:"childrenText" yaml:"children_text"`
	SiblingsText  string `json:"siblingsText" yaml:"siblings_text"`
	SearchCorpus  string `json:"-" yaml:"-"`
	Enriched      bool   `json:"enriched" yaml:"enriched"`
}

// Enrich fills the context fields from n and refreshes the corpus. It returns
// false and leaves the record untouched when the record is already enriched.
func (r *ImageRecord) Enrich(n graph.Neighborhood) bool {
	if r.Enriched {
		return false
	}
	r.ParentText = strings.TrimSpace(n.ParentText)
	r.ChildrenText = joinText(n.ChildrenText)
	r.SiblingsText = joinText(n.SiblingsText)
	r.Enriched = true
	r.refreshCorpus()
	return true
}

// Matches reports whether the lowercased term occurs in the corpus.
func (r ImageRecord) Matches(lowerTerm string) bool {
	if lowerTerm == "" {
		return true
	}
	return strings.Contains(r.SearchCorpus, lowerTerm)
}

func (r *ImageRecord) refreshCorpus() {
	parts := make([]string, 0, 7)
	for _, part := range []string{r.AltText, r.URL, r.PageTitle, r.BlockText, r.ParentText, r.ChildrenText, r.SiblingsText} {
		if part == "" {
			continue
		}
		parts = append(parts, part)
	}
	r.SearchCorpus = strings.ToLower(strings.Join(parts, " "))
}

func joinText(items []string) string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return strings.Join(out, "\n")
}
