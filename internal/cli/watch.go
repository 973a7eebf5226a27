package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/pkg/api"
)

// watchDebounce coalesces the bursts of events an editor save produces
const watchDebounce = 500 * time.Millisecond

// watchFile calls onChange after path is written, at most once per quiet
// period of debounce. It blocks until ctx is done.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory; atomic saves replace the file
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != abs || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "err", err)
		}
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		formatName string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-check a notebook whenever it changes",
		Long: `Watches a notebook file and prints the overflow report after every save.
With --export the notebook is exported again as well.`,
		Example: `  dafter watch notes.yaml --export html`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var format api.Format
			if formatName != "" {
				f, err := api.ParseFormat(formatName)
				if err != nil {
					return err
				}
				format = f
			}

			run := func() {
				doc, err := document.Load(path)
				if err != nil {
					slog.Error("Unable to load notebook", "path", path, "err", err)
					return
				}
				editor := a.editorFor(path)
				printReport(cmd.OutOrStdout(), doc, editor.CheckAll(doc, nil))
				if format == "" {
					return
				}
				dest := a.outputPath(path, output, format)
				if err := a.export(cmd.Context(), cmd, editor, doc, format, dest); err != nil {
					slog.Error("Export failed", "format", format, "err", err)
					return
				}
				slog.Info("Exported", "path", dest)
			}

			run()
			slog.Info("Watching for changes", "path", path)
			return watchFile(cmd.Context(), path, watchDebounce, run)
		},
	}

	cmd.Flags().StringVar(&formatName, "export", "", "re-export on change: html, pdf or clipboard")
	cmd.Flags().StringVarP(&output, "output", "o", "", "export file")

	return cmd
}
