// cmd/docgen/show.go
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func showCmd() *cobra.Command {
	var (
		fileFlag  string
		widthFlag int
		plainFlag bool
	)

	cmd := &cobra.Command{
		Use:   "show [dir]",
		Short: "Render generated documentation in the terminal",
		Long:  "Render README.md (or --file) of a generated documentation directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			out := cmd.OutOrStdout()
			plain := plainFlag
			if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
				plain = true
			}
			return renderDoc(filepath.Join(dir, fileFlag), widthFlag, plain, out)
		},
	}

	cmd.Flags().StringVar(&fileFlag, "file", "README.md", "document to render, relative to dir")
	cmd.Flags().IntVar(&widthFlag, "width", 100, "word wrap width")
	cmd.Flags().BoolVar(&plainFlag, "plain", false, "print the raw Markdown")
	return cmd
}

// renderDoc writes the Markdown file at path to out, styled unless plain.
func renderDoc(path string, width int, plain bool, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if plain {
		_, err = out.Write(data)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("creating glamour renderer: %w", err)
	}
	rendered, err := r.Render(string(data))
	if err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}
