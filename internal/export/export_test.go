package export

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"blockgallery/internal/gallery"
	"blockgallery/internal/graph"
)

func sampleRecords() []gallery.ImageRecord {
	created := int64(1700000000000)
	recs := gallery.Extract(graph.Block{
		UID:       "abc",
		Text:      "![cat](http://x.com/cat.png) and ![](http://x.com/dog.jpg)",
		PageTitle: "Pets",
		CreatedAt: &created,
	}).Records
	recs = append(recs, gallery.Extract(graph.Block{UID: "old", Text: "![old](http://x.com/old.png)"}).Records...)
	recs[0].Enrich(graph.Neighborhood{ParentText: "animals"})
	return recs
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"yaml": FormatYAML, " YML ": FormatYAML, "Parquet": FormatParquet} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q %v", in, got, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatalf("expected an error for csv")
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := WriteYAML(&buf, sampleRecords(), now); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"count: 3", "source_block_id: abc", "alt_text: Image", "parent_text: animals", "created_at: null"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "searchcorpus") || strings.Contains(out, "search_corpus") {
		t.Fatalf("search corpus should not be exported")
	}
	var doc struct {
		Count  int              `yaml:"count"`
		Images []map[string]any `yaml:"images"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid yaml: %v", err)
	}
	if doc.Count != 3 || len(doc.Images) != 3 {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatParquet, sampleRecords()); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", f.NumRows())
	}
	r := parquet.NewGenericReader[Row](f)
	defer r.Close()
	rows := make([]Row, 3)
	n, err := r.Read(rows)
	if err != nil && err != io.EOF {
		t.Fatalf("read: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows read, got %d", n)
	}
	if rows[0].URL != "http://x.com/cat.png" || rows[0].CreatedAt == nil || *rows[0].CreatedAt != 1700000000000 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[2].CreatedAt != nil || rows[2].PageTitle != gallery.DefaultPageTitle {
		t.Fatalf("unexpected last row %+v", rows[2])
	}
}
