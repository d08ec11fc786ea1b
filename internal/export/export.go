// Package export writes discovered image records to files.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"blockgallery/internal/gallery"
)

type Format string

const (
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatYAML, FormatParquet:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Write encodes records in the given format.
func Write(w io.Writer, format Format, records []gallery.ImageRecord) error {
	switch format {
	case FormatYAML:
		return WriteYAML(w, records, time.Now())
	case FormatParquet:
		return WriteParquet(w, records)
	}
	return fmt.Errorf("unknown export format %q", format)
}

type yamlDocument struct {
	GeneratedAt time.Time             `yaml:"generated_at"`
	Count       int                   `yaml:"count"`
	Images      []gallery.ImageRecord `yaml:"images"`
}

func WriteYAML(w io.Writer, records []gallery.ImageRecord, now time.Time) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	doc := yamlDocument{GeneratedAt: now.UTC(), Count: len(records), Images: records}
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// Row is the parquet layout of one image record.
type Row struct {
	ID            string `parquet:"id"`
	SourceBlockID string `parquet:"source_block_id"`
	URL           string `parquet:"url"`
	AltText       string `parquet:"alt_text"`
	CreatedAt     *int64 `parquet:"created_at,optional"`
	PageTitle     string `parquet:"page_title"`
	BlockText     string `parquet:"block_text"`
	ParentText    string `parquet:"parent_text"`
	ChildrenText  string `parquet:"children_text"`
	SiblingsText  string `parquet:"siblings_text"`
	Enriched      bool   `parquet:"enriched"`
}

func toRow(r gallery.ImageRecord) Row {
	return Row{
		ID:            r.ID,
		SourceBlockID: r.SourceBlockID,
		URL:           r.URL,
		AltText:       r.AltText,
		CreatedAt:     r.CreatedAt,
		PageTitle:     r.PageTitle,
		BlockText:     r.BlockText,
		ParentText:    r.ParentText,
		ChildrenText:  r.ChildrenText,
		SiblingsText:  r.SiblingsText,
		Enriched:      r.Enriched,
	}
}

func WriteParquet(w io.Writer, records []gallery.ImageRecord) error {
	pw := parquet.NewGenericWriter[Row](w)
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = toRow(r)
	}
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
