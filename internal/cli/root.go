// Package cli implements the dafter command line
package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dafterai/dafter/internal/config"
	"github.com/dafterai/dafter/internal/gemini"
	"github.com/dafterai/dafter/pkg/api"
)

// app holds the state shared by every command
type app struct {
	configPath string
	debug      bool
	settings   config.Settings
}

func NewRootCmd() *cobra.Command {
	a := &app{settings: config.Default()}

	cmd := &cobra.Command{
		Use:   "dafter",
		Short: "A4 notebook editor with automatic pagination",
		Long: `Dafter builds printable A4 educational notebooks.

It keeps every page within its sheet by detecting overflowing pages and
moving their excess content to continuation pages, generates notebooks from
source material with Gemini, and exports them as HTML, PDF or rich text.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			a.setupLogging()

			settings, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.settings = settings
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "settings file (default ~/.dafter/config.toml)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newServeCmd(a),
		newNewCmd(a),
		newGenerateCmd(a),
		newCheckCmd(a),
		newSplitCmd(a),
		newReflowCmd(a),
		newExportCmd(a),
		newWatchCmd(a),
		newMCPCmd(a),
		newThemesCmd(),
	)

	return cmd
}

func (a *app) setupLogging() {
	level := slog.LevelInfo
	if a.debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// options returns the editor options derived from the settings
func (a *app) options() []api.Option {
	s := a.settings
	opts := []api.Option{
		api.WithPagination(s.Pagination.Options()),
		api.WithDebug(a.debug),
		api.WithLogger(slog.Default()),
		api.WithGeneration(s.Gemini.Generation()),
		api.WithInlineImages(s.Export.InlineImages),
	}
	if s.Export.FontPath != "" {
		opts = append(opts, api.WithFontPath(s.Export.FontPath))
	}
	return opts
}

// editorFor returns an editor resolving relative resources next to the document
func (a *app) editorFor(docPath string, extra ...api.Option) *api.Editor {
	opts := append(a.options(), api.WithResourcePath(filepath.Dir(docPath)))
	return api.New(append(opts, extra...)...)
}

// generators opens a Gemini client. The returned func closes it.
func (a *app) generators(ctx context.Context) (api.Option, func(), error) {
	client, err := gemini.New(ctx, a.settings.Gemini.Client())
	if err != nil {
		return nil, func() {}, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Warn("Unable to close Gemini client", "err", err)
		}
	}
	return api.WithGenerators(client, client), closeFn, nil
}
