package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"blockgallery/internal/config"
	"blockgallery/internal/export"
	"blockgallery/internal/gallery"
	"blockgallery/internal/prefs"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every image record of the graph to a file",
		Long: `Runs image discovery and context enrichment without a browser and writes
the resulting records, newest first, as YAML or Parquet.`,
		Example: `  gallery export --format yaml --out images.yaml
  gallery export --format parquet --out images.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			records, err := collectImages(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			if err := export.Write(w, f, records); err != nil {
				return fmt.Errorf("export %s: %w", f, err)
			}
			slog.Info("export done", "format", f, "images", len(records), "out", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatYAML), "output format: yaml or parquet")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

// collectImages runs a session with no renderer until both loops finish.
func collectImages(ctx context.Context, cfg config.Config) ([]gallery.ImageRecord, error) {
	host, err := openHost(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	defer host.Close()

	opts := sessionOptions(cfg)
	opts.Host = host
	opts.Prefs = prefs.NewMemoryStore(prefs.Preferences{})
	sess := gallery.NewSession("export", opts)
	sess.Start(ctx, ctx)
	select {
	case <-sess.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if sess.State() == gallery.StateFailed {
		return nil, errors.New("image discovery failed: the graph scan query returned an error, see the log")
	}
	return gallery.SortImages(sess.Images(), gallery.SortNewest), nil
}
