package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dafterai/dafter/internal/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "mcp <file>",
		Short: "Serve a notebook to AI assistants over MCP",
		Long: `Start the Model Context Protocol server for one notebook file.

The server offers the tools list_pages, check_overflow, split_page, reflow,
add_page and export_html. Tools that change the notebook save the file.

By default the server communicates over stdio. Use --port to serve HTTP.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "dafter": {
        "command": "/path/to/dafter",
        "args": ["mcp", "/path/to/notes.yaml"]
      }
    }
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := mcp.NewServer(args[0], a.editorFor(args[0]))
			if err != nil {
				return err
			}

			if port > 0 {
				addr := fmt.Sprintf(":%d", port)
				fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
				return server.RunHTTP(cmd.Context(), addr)
			}

			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (0 = use stdio)")

	return cmd
}
