package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/pkg/api"
)

// outputPath returns the export file for a document: output when set,
// otherwise the document name with the format extension in the export dir.
func (a *app) outputPath(docPath, output string, format api.Format) string {
	if output != "" {
		return output
	}
	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	dir := a.settings.Export.Dir
	if dir == "" || dir == "." {
		dir = filepath.Dir(docPath)
	}
	return filepath.Join(dir, base+format.Extension())
}

// export writes doc to path, or to stdout when path is "-"
func (a *app) export(ctx context.Context, cmd *cobra.Command, editor *api.Editor, doc document.Document, format api.Format, path string) error {
	var buf bytes.Buffer
	if err := editor.Export(ctx, doc, format, &buf); err != nil {
		return err
	}
	if path == "-" {
		_, err := buf.WriteTo(cmd.OutOrStdout())
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		formatName string
		output     string
		title      string
		author     string
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a notebook as HTML, PDF or clipboard rich text",
		Long: `Exports a notebook.

  html       self-contained page that keeps paginating itself while edited
  pdf        one A4 sheet per page
  clipboard  inline-styled HTML fragment for pasting into word processors`,
		Example: `  dafter export notes.yaml --format pdf -o notes.pdf
  dafter export notes.yaml --format html -o - > notes.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if formatName == "" {
				formatName = a.settings.Export.Format
			}
			format, err := api.ParseFormat(formatName)
			if err != nil {
				return err
			}

			doc, err := document.Load(path)
			if err != nil {
				return err
			}

			editor := a.editorFor(path, api.WithTitle(title), api.WithAuthor(author))
			dest := a.outputPath(path, output, format)
			if err := a.export(cmd.Context(), cmd, editor, doc, format, dest); err != nil {
				return err
			}
			if dest != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", dest)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "F", "", "html, pdf or clipboard (default from settings)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	cmd.Flags().StringVar(&title, "title", "", "PDF title (default: document title)")
	cmd.Flags().StringVar(&author, "author", "", "PDF author")

	return cmd
}
