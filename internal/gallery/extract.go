package gallery

import (
	"fmt"
	"regexp"
	"strings"

	"blockgallery/internal/graph"
)

// DeniedDomain marks image URLs that are never shown; the host serves
// them with hotlink protection so they only ever render as broken tiles.
const DeniedDomain = "mmbiz.qpic.cn"

var mdImageRe = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)

type ExtractResult struct {
	Records []ImageRecord
	// Skipped counts matches dropped for a blank or denied URL.
	Skipped int
}

// Extract returns one record per markdown image in the block text, in match
// order. Records come back unenriched with a corpus built from block fields.
func Extract(block graph.Block) ExtractResult {
	var res ExtractResult
	title := strings.TrimSpace(block.PageTitle)
	if title == "" {
		title = DefaultPageTitle
	}
	for _, m := range mdImageRe.FindAllStringSubmatch(block.Text, -1) {
		url := strings.TrimSpace(m[2])
		if url == "" || strings.Contains(url, DeniedDomain) {
			res.Skipped++
			continue
		}
		alt := m[1]
		if alt == "" {
			alt = DefaultAltText
		}
		rec := ImageRecord{
			ID:            fmt.Sprintf("%s-%d", block.UID, len(res.Records)),
			SourceBlockID: block.UID,
			URL:           url,
			AltText:       alt,
			CreatedAt:     block.CreatedAt,
			PageTitle:     title,
			BlockText:     block.Text,
		}
		rec.refreshCorpus()
		res.Records = append(res.Records, rec)
	}
	return res
}
