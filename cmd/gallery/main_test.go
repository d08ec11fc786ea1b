package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("GALLERY_LOG_LEVEL"))); err != nil {
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	os.Exit(m.Run())
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := parseLogLevel(raw).Level(); got != want {
			t.Fatalf("%q: expected %v, got %v", raw, want, got)
		}
	}
}

func TestTeeHandlerWritesToEnabledHandlers(t *testing.T) {
	var info, debug bytes.Buffer
	logger := slog.New(&teeHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}).With("session", "s1")
	logger.Debug("batch hydrated", "index", 2)
	logger.Info("gallery open")

	if strings.Contains(info.String(), "batch hydrated") {
		t.Fatalf("info handler got a debug record: %s", info.String())
	}
	if !strings.Contains(info.String(), "gallery open") || !strings.Contains(debug.String(), "batch hydrated") {
		t.Fatalf("records missing: info=%q debug=%q", info.String(), debug.String())
	}
	if !strings.Contains(debug.String(), "session=s1") {
		t.Fatalf("attrs not propagated: %q", debug.String())
	}
}

func TestPrettyHandlerFormatsGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, parseLogLevel("info")))
	logger.WithGroup("http").Info("request", "status", 200, slog.Group("timing", "ms", 12))
	logger.Debug("hidden")

	out := buf.String()
	for _, want := range []string{"INFO request", "  http.status: 200", "  http.timing.ms: 12"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record printed at info level")
	}
}

const tripNote = `---
created: 2024-05-01
---
# Trip

- Day one
  - ![beach](http://img.test/beach.png)
  - lunch
- Day two
  - ![hill](http://img.test/hill.png)
`

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestImportExportAndShow(t *testing.T) {
	notes := t.TempDir()
	if err := os.WriteFile(filepath.Join(notes, "trip.md"), []byte(tripNote), 0o644); err != nil {
		t.Fatalf("write note: %v", err)
	}
	t.Setenv("GALLERY_SOURCE", "local")
	t.Setenv("GALLERY_DATA_PATH", t.TempDir())
	t.Setenv("GALLERY_BATCH_YIELD", "0s")

	out := runCmd(t, "import", notes)
	if !strings.Contains(out, "imported 1") {
		t.Fatalf("unexpected import output %q", out)
	}

	exported := filepath.Join(t.TempDir(), "images.yaml")
	runCmd(t, "export", "--format", "yaml", "--out", exported)
	raw, err := os.ReadFile(exported)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var doc struct {
		Count  int `yaml:"count"`
		Images []struct {
			URL           string `yaml:"url"`
			SourceBlockID string `yaml:"source_block_id"`
			ParentText    string `yaml:"parent_text"`
			Enriched      bool   `yaml:"enriched"`
		} `yaml:"images"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.Count != 2 || len(doc.Images) != 2 {
		t.Fatalf("expected 2 images, got %d (%d)", doc.Count, len(doc.Images))
	}
	var beachUID string
	for _, img := range doc.Images {
		if !img.Enriched {
			t.Fatalf("export should include enriched records: %+v", img)
		}
		if img.URL == "http://img.test/beach.png" {
			beachUID = img.SourceBlockID
			if img.ParentText != "Day one" {
				t.Fatalf("expected parent context, got %q", img.ParentText)
			}
		}
	}
	if beachUID == "" {
		t.Fatalf("beach image missing from export")
	}

	shown := runCmd(t, "show", "--raw", beachUID)
	for _, want := range []string{"# Trip", "> Day one", "![beach](http://img.test/beach.png)", "trip.md"} {
		if !strings.Contains(shown, want) {
			t.Fatalf("show output missing %q:\n%s", want, shown)
		}
	}
}

func TestUnknownSource(t *testing.T) {
	t.Setenv("GALLERY_DATA_PATH", t.TempDir())
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"export", "--source", "dropbox"})
	err := root.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown source") {
		t.Fatalf("expected unknown source error, got %v", err)
	}
}
