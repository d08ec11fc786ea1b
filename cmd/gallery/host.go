package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"blockgallery/internal/config"
	"blockgallery/internal/gallery"
	"blockgallery/internal/graph"
	"blockgallery/internal/graph/local"
	"blockgallery/internal/graph/roam"
)

// graphHost is an opened graph. store is set for the local source only.
type graphHost struct {
	graph.Host
	store *local.Store
}

func (h *graphHost) Close() error {
	if h.store != nil {
		return h.store.Close()
	}
	return nil
}

func openHost(ctx context.Context, cfg *config.Config) (*graphHost, error) {
	switch cfg.Source {
	case config.SourceLocal:
		store, err := openLocalStore(ctx, *cfg)
		if err != nil {
			return nil, err
		}
		return &graphHost{Host: store, store: store}, nil
	case config.SourceRoam:
		if cfg.RoamToken == "" {
			token, err := promptToken(os.Stdin, os.Stderr, cfg.RoamGraph)
			if err != nil {
				return nil, err
			}
			cfg.RoamToken = token
		}
		client, err := roam.NewClient(roam.Options{
			APIURL: cfg.RoamAPIURL,
			Graph:  cfg.RoamGraph,
			Token:  cfg.RoamToken,
			RPS:    cfg.RoamRPS,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("roam graph", "graph", cfg.RoamGraph, "api", cfg.RoamAPIURL, "rps", cfg.RoamRPS)
		return &graphHost{Host: client}, nil
	default:
		return nil, fmt.Errorf("unknown source %q (want %s or %s)", cfg.Source, config.SourceLocal, config.SourceRoam)
	}
}

func openLocalStore(ctx context.Context, cfg config.Config) (*local.Store, error) {
	dataPath, err := resolveDataPath(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := local.Open(filepath.Join(dataPath, "graph.sqlite"), cfg.DBBusyTimeout)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func resolveDataPath(cfg config.Config) (string, error) {
	dataPath := strings.TrimSpace(cfg.DataPath)
	if dataPath == "" {
		return "", errors.New("data path is required")
	}
	return filepath.Abs(dataPath)
}

// promptToken asks for the API token on an interactive terminal.
func promptToken(in *os.File, out io.Writer, graphName string) (string, error) {
	if !term.IsTerminal(int(in.Fd())) {
		return "", fmt.Errorf("%w: GALLERY_ROAM_TOKEN is not set", graph.ErrUnauthorized)
	}
	fmt.Fprintf(out, "API token for graph %s: ", graphName)
	raw, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("%w: empty token", graph.ErrUnauthorized)
	}
	return token, nil
}

func sessionOptions(cfg config.Config) gallery.SessionOptions {
	return gallery.SessionOptions{
		Pipeline: gallery.Pipeline{
			VisibleBatch: cfg.VisibleBatch,
			BatchSize:    cfg.BatchSize,
			Yield:        cfg.BatchYield,
		},
		Enricher: gallery.Enricher{BatchSize: cfg.EnrichBatch},
	}
}
