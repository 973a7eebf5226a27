package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dafterai/dafter/internal/gemini"
	"github.com/dafterai/dafter/internal/handlers"
	"github.com/dafterai/dafter/internal/storage"
	"github.com/dafterai/dafter/pkg/api"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the notebook editing API",
		Long: `Starts the JSON API used by the notebook editing surface.

Documents live in memory for the lifetime of the server. Generation is
available when a Gemini API key is configured.`,
		Example: `  # Start server on the configured address (default :8080)
  dafter serve

  # Start server on a custom address
  dafter serve --addr :3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.settings.Server.Addr
			}

			opts := a.options()
			gen, closeGen, err := a.generators(cmd.Context())
			switch {
			case errors.Is(err, gemini.ErrMissingAPIKey):
				slog.Info("Generation disabled", "reason", err)
			case err != nil:
				return err
			default:
				defer closeGen()
				opts = append(opts, gen)
			}

			editor := api.New(opts...)
			handler := handlers.New(editor, storage.New(editor.Options().HistoryDepth))
			handler.SetDefaultLayout(a.settings.Layout)

			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Dafter API available", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "address to listen on (default from settings)")

	return cmd
}
