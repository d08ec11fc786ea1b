package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"blockgallery/internal/graph"
)

func newShowCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <uid>",
		Short: "Print a block with its page context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := openHost(cmd.Context(), &a.cfg)
			if err != nil {
				return err
			}
			defer host.Close()

			md, err := blockMarkdown(cmd.Context(), host, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if raw {
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(terminalWidth()),
			)
			if err != nil {
				return err
			}
			out, err := r.Render(md)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")
	return cmd
}

// blockMarkdown describes a block as a small markdown document: page title,
// parent, the block itself and its children. The local source shows the
// block's original markdown; other sources show its text.
func blockMarkdown(ctx context.Context, host *graphHost, uid string) (string, error) {
	var b strings.Builder
	if host.store != nil {
		detail, err := host.store.BlockDetail(ctx, uid)
		if err != nil {
			return "", fmt.Errorf("block %s: %w", uid, err)
		}
		fmt.Fprintf(&b, "# %s\n\n", detail.PageTitle)
		fmt.Fprintf(&b, "_%s_\n\n", detail.PagePath)
		if detail.Parent != nil {
			fmt.Fprintf(&b, "> %s\n\n", oneLine(detail.Parent.Text))
		}
		b.WriteString(strings.TrimSpace(detail.Markdown))
		b.WriteString("\n")
		if len(detail.Children) > 0 {
			b.WriteString("\n")
			for _, child := range detail.Children {
				fmt.Fprintf(&b, "- %s\n", oneLine(child.Text))
			}
		}
		return b.String(), nil
	}

	block, err := host.Block(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("block %s: %w", uid, err)
	}
	hood, err := host.Neighborhood(ctx, uid)
	if err != nil {
		hood = graph.Neighborhood{}
	}
	title := block.PageTitle
	if title == "" {
		title = uid
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if hood.ParentText != "" {
		fmt.Fprintf(&b, "> %s\n\n", oneLine(hood.ParentText))
	}
	b.WriteString(strings.TrimSpace(block.Text))
	b.WriteString("\n")
	if len(hood.ChildrenText) > 0 {
		b.WriteString("\n")
		for _, child := range hood.ChildrenText {
			fmt.Fprintf(&b, "- %s\n", oneLine(child))
		}
	}
	return b.String(), nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w - 4
	}
	return 80
}
