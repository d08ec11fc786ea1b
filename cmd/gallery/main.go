package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
)

var version = "dev"

func main() {
	closeLog := setupLogging()
	defer closeLog()

	root := newRootCmd()
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		closeLog()
		os.Exit(1)
	}
}

// setupLogging installs the default logger: JSON on stdout, a pretty console
// handler with GALLERY_LOG_PRETTY, and a copy to dev.log when DEV is set.
func setupLogging() func() {
	level := parseLogLevel(os.Getenv("GALLERY_LOG_LEVEL"))
	pretty := isTruthy(os.Getenv("GALLERY_LOG_PRETTY"))
	var console slog.Handler
	if pretty {
		console = newPrettyHandler(os.Stderr, level)
	} else {
		console = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	if strings.TrimSpace(os.Getenv("DEV")) == "" {
		slog.SetDefault(slog.New(console))
		return func() {}
	}
	file, err := os.Create("dev.log")
	if err != nil {
		slog.SetDefault(slog.New(console))
		slog.Error("open log file", "path", "dev.log", "err", err)
		return func() {}
	}
	_, _ = fmt.Fprintf(file, "=== gallery dev log start %s ===\n", time.Now().Format(time.RFC3339))
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(&teeHandler{handlers: []slog.Handler{console, fileHandler}}))
	return func() { _ = file.Close() }
}

func isTruthy(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw == "1" || strings.EqualFold(raw, "true")
}
