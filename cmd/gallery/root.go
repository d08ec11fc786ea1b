package main

import (
	"github.com/spf13/cobra"

	"blockgallery/internal/config"
)

type app struct {
	cfg config.Config

	source string
	data   string
	notes  string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Image gallery for block-based note graphs",
		Long: `gallery finds every image embedded in the blocks of a note graph and shows
them as a searchable, paginated gallery in the browser.

The graph is either a folder of markdown notes imported into a local sqlite
database, or a hosted Roam graph read through its API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			if a.source != "" {
				a.cfg.Source = a.source
			}
			if a.data != "" {
				a.cfg.DataPath = a.data
			}
			if a.notes != "" {
				a.cfg.NotesPath = a.notes
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.source, "source", "", "graph source: local or roam (GALLERY_SOURCE)")
	cmd.PersistentFlags().StringVar(&a.data, "data", "", "data directory (GALLERY_DATA_PATH)")
	cmd.PersistentFlags().StringVar(&a.notes, "notes", "", "markdown notes directory (GALLERY_NOTES_PATH)")

	cmd.AddCommand(
		newServeCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newShowCmd(a),
	)
	return cmd
}
