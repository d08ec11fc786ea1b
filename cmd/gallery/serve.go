package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"blockgallery/internal/config"
	"blockgallery/internal/gallery"
	"blockgallery/internal/graph/local"
	"blockgallery/internal/prefs"
	"blockgallery/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the image gallery",
		Long: `Starts the gallery web interface. Every page load opens a gallery session
that discovers images in the background and streams progress to the browser.

With the local source and a notes directory, the notes are imported on start
and, with --watch, re-imported as they change.`,
		Example: `  gallery serve --notes ~/notes --watch
  GALLERY_SOURCE=roam GALLERY_ROAM_GRAPH=mygraph gallery serve --addr :8090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.ListenAddr = addr
			}
			if cmd.Flags().Changed("watch") {
				a.cfg.Watch = watch
			}
			return runServe(cmd.Context(), a.cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (GALLERY_LISTEN_ADDR)")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-import notes when they change (GALLERY_WATCH)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	host, err := openHost(ctx, &cfg)
	if err != nil {
		return err
	}
	defer host.Close()

	if host.store != nil && cfg.NotesPath != "" {
		stats, err := host.store.ImportDir(ctx, cfg.NotesPath)
		if err != nil {
			return err
		}
		slog.Info("notes imported", "notes", cfg.NotesPath, "imported", stats.Imported, "unchanged", stats.Unchanged, "removed", stats.Removed)
		if cfg.Watch {
			watcher, err := local.NewWatcher(host.store, cfg.NotesPath)
			if err != nil {
				return err
			}
			watcher.Applied = func(rel string, removed bool) {
				slog.Info("note changed", "path", rel, "removed", removed)
			}
			go func() {
				if err := watcher.Run(ctx); err != nil {
					slog.Warn("notes watcher stopped", "err", err)
				}
			}()
		}
	}

	dataPath, err := resolveDataPath(cfg)
	if err != nil {
		return err
	}
	galleries := gallery.NewManager(ctx, host, prefs.NewFileStore(dataPath), sessionOptions(cfg))
	defer galleries.CloseAll()

	srv := web.NewServer(cfg, host, galleries)
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// event streams end with ctx instead of holding Shutdown open
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.ListenAddr, "source", cfg.Source)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		galleries.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown", "err", err)
			return err
		}
		return nil
	case err := <-serverErr:
		return err
	}
}
