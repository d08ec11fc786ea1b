package local

import (
	"testing"
	"time"
)

const tripNote = `---
created: 2024-03-01
---
# Trip
- Day one
  ![beach](http://x/beach.png)
  - Swimming
  - ![sunset](http://x/sunset.png)
- Day two

Paragraph text here.
`

func TestParseNote(t *testing.T) {
	note := ParseNote("travel/trip.md", tripNote)
	if note.Title != "Trip" {
		t.Fatalf("expected title Trip, got %q", note.Title)
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !note.CreatedAt.Equal(want) {
		t.Fatalf("expected created %v, got %v", want, note.CreatedAt)
	}

	type shape struct {
		text   string
		parent int
		level  int
	}
	want := []shape{
		{"Trip", 1, 1},
		{"Day one\n![beach](http://x/beach.png)", 2, 2},
		{"Swimming", 3, 3},
		{"![sunset](http://x/sunset.png)", 3, 3},
		{"Day two", 2, 2},
		{"Paragraph text here.", 2, 2},
	}
	if len(note.Blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(want), len(note.Blocks), note.Blocks)
	}
	for i, w := range want {
		b := note.Blocks[i]
		if b.Text != w.text || b.ParentID != w.parent || b.Level != w.level {
			t.Fatalf("block %d: expected %+v, got text=%q parent=%d level=%d", i, w, b.Text, b.ParentID, b.Level)
		}
	}
	if note.Blocks[0].Markdown == note.Blocks[0].Text {
		t.Fatalf("heading markdown should span its section")
	}
}

func TestParseNoteTitleFallbacks(t *testing.T) {
	if got := ParseNote("a/b/My Page.md", "just text").Title; got != "My Page" {
		t.Fatalf("expected file name title, got %q", got)
	}
	if got := ParseNote("x.md", "---\ntitle: \"From FM\"\n---\n# Heading\n").Title; got != "From FM" {
		t.Fatalf("expected frontmatter title, got %q", got)
	}
	if !ParseNote("x.md", "no frontmatter").CreatedAt.IsZero() {
		t.Fatalf("expected zero created time")
	}
}

func TestParseNoteBlocksFencesAndNumberedLists(t *testing.T) {
	body := "1. first ![a](http://x/a.png)\n2) second\n\n```\n![not](http://x/code.png)\n\n```\n"
	blocks := ParseNoteBlocks(body)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %+v", blocks)
	}
	if blocks[0].Text != "first ![a](http://x/a.png)" || blocks[1].Text != "second" {
		t.Fatalf("unexpected list blocks %+v", blocks[:2])
	}
	if blocks[2].StartLine != 4 || blocks[2].EndLine != 7 {
		t.Fatalf("expected fenced block on lines 4-7, got %d-%d", blocks[2].StartLine, blocks[2].EndLine)
	}
}

func TestParseATXHeading(t *testing.T) {
	cases := []struct {
		line  string
		level int
		text  string
		ok    bool
	}{
		{"# Title", 1, "Title", true},
		{"### Closed ###", 3, "Closed", true},
		{"#nospace", 0, "", false},
		{"####### too deep", 0, "", false},
		{"#", 0, "", false},
	}
	for _, tc := range cases {
		level, text, ok := parseATXHeading(tc.line)
		if level != tc.level || text != tc.text || ok != tc.ok {
			t.Fatalf("%q: got (%d, %q, %v)", tc.line, level, text, ok)
		}
	}
}
