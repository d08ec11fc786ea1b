package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [notes-dir]",
		Short: "Import a folder of markdown notes into the local graph",
		Long: `Reads every .md file under the notes directory and stores its block tree in
the local graph database. Files that did not change since the last import are
skipped; pages whose file is gone are removed.`,
		Example: `  gallery import ~/notes
  GALLERY_NOTES_PATH=~/notes gallery import`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes := a.cfg.NotesPath
			if len(args) == 1 {
				notes = args[0]
			}
			if notes == "" {
				return errors.New("notes directory is required")
			}
			store, err := openLocalStore(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			start := time.Now()
			stats, err := store.ImportDir(cmd.Context(), notes)
			if err != nil {
				return fmt.Errorf("import %s: %w", notes, err)
			}
			pages, blocks, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			slog.Info("import done", "notes", notes, "duration_ms", time.Since(start).Milliseconds())
			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, imported %d, unchanged %d, removed %d (%d pages, %d blocks)\n",
				stats.Scanned, stats.Imported, stats.Unchanged, stats.Removed, pages, blocks)
			return nil
		},
	}
}
