package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/generate"
	"github.com/dafterai/dafter/pkg/api"
)

func parseTheme(s string) (document.ThemeName, error) {
	for _, t := range document.Themes() {
		if string(t.Name) == s {
			return t.Name, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q (see `dafter themes`)", s)
}

func newNewCmd(a *app) *cobra.Command {
	var (
		brand document.Brand
		theme string
		force bool
	)

	cmd := &cobra.Command{
		Use:     "new <file>",
		Short:   "Create a notebook file holding the welcome page",
		Example: `  dafter new notes.yaml --brand "Al Noor Academy" --theme academic`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			name, err := parseTheme(theme)
			if err != nil {
				return err
			}
			brand.Theme = name

			doc := document.New(brand).WithLayout(a.settings.Layout)
			if err := document.Save(path, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&brand.Name, "brand", "", "brand name printed in headers and footers")
	cmd.Flags().StringVar(&theme, "theme", string(document.ThemeProfessional), "colour theme")
	cmd.Flags().StringVar(&brand.PrimaryColor, "primary", "", "primary colour override")
	cmd.Flags().StringVar(&brand.LogoURL, "logo", "", "logo path or URL")
	cmd.Flags().StringVar(&brand.FontFamily, "font", "", "body font family")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

// loadOrNew loads path, or returns a new document when it does not exist
func (a *app) loadOrNew(path string) (document.Document, error) {
	doc, err := document.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return document.New(document.Brand{}).WithLayout(a.settings.Layout), nil
	}
	return doc, err
}

func readSource(cmd *cobra.Command, source string) (string, error) {
	if source == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	return string(data), nil
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		req      generate.Request
		source   string
		noImages bool
	)

	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Generate a notebook from source material with Gemini",
		Long: `Generates the pages of a notebook from source material and writes them
to <file>. An existing file keeps its brand and layout; its pages are replaced.

Requires GEMINI_API_KEY (environment, .env or the settings file).`,
		Example: `  dafter generate cells.yaml --topic "The cell" --grade "Grade 9" --source chapter3.txt --pages 6`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if source != "" {
				raw, err := readSource(cmd, source)
				if err != nil {
					return err
				}
				req.RawContent = raw
			}
			if err := req.Validate(); err != nil {
				return err
			}

			doc, err := a.loadOrNew(path)
			if err != nil {
				return err
			}

			gen, closeGen, err := a.generators(cmd.Context())
			if err != nil {
				return err
			}
			defer closeGen()

			settings := a.settings.Gemini.Generation()
			if noImages {
				settings.Images = false
			}
			editor := a.editorFor(path, gen, api.WithGeneration(settings))
			doc, err = editor.Generate(cmd.Context(), doc, req)
			if err != nil {
				return err
			}
			if err := document.Save(path, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %q: %d pages written to %s\n", doc.Title, doc.Pages.Len(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Topic, "topic", "", "notebook topic (required)")
	cmd.Flags().StringVar(&req.Grade, "grade", "", "target grade or audience")
	cmd.Flags().StringVar(&source, "source", "", "file holding the source material, - for stdin (required)")
	cmd.Flags().IntVar(&req.PageCount, "pages", 0, "number of pages, 0 lets the model decide")
	cmd.Flags().BoolVar(&noImages, "no-images", false, "skip illustration generation")

	return cmd
}

func newSplitCmd(a *app) *cobra.Command {
	var pageID string

	cmd := &cobra.Command{
		Use:   "split <file>",
		Short: "Move the overflowing part of a page to a continuation page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			doc, err := document.Load(path)
			if err != nil {
				return err
			}

			next, result, err := a.editorFor(path).OnSplitRequested(doc, pageID, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !result.Applied {
				fmt.Fprintf(out, "Page %s left unchanged: %s\n", pageID, result.Reason)
				return nil
			}
			if err := document.Save(path, next); err != nil {
				return err
			}
			fmt.Fprintf(out, "Split page %s at block %d (%s); continuation %s\n",
				pageID, result.Split.Index, result.Reason, result.NewPageID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pageID, "page", "p", "", "id of the page to split")
	_ = cmd.MarkFlagRequired("page")

	return cmd
}

func newReflowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reflow <file>",
		Short: "Split overflowing pages until every page fits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			doc, err := document.Load(path)
			if err != nil {
				return err
			}

			next, stats := a.editorFor(path).Reflow(doc, nil)
			out := cmd.OutOrStdout()
			if stats.Splits > 0 {
				if err := document.Save(path, next); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "%d splits, %d pages\n", stats.Splits, next.Pages.Len())
			if len(stats.Stuck) > 0 {
				fmt.Fprintf(out, "Still overflowing: %s\n", strings.Join(stats.Stuck, ", "))
			}
			if stats.Truncated {
				fmt.Fprintln(out, "Stopped at the page limit")
			}
			return nil
		},
	}
}
