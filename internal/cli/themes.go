package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dafterai/dafter/internal/document"
)

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the colour themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			color := isTerminal(w)
			r := lipgloss.NewRenderer(w)
			for _, t := range document.Themes() {
				swatch := ""
				if color {
					for _, c := range []string{t.Primary, t.Secondary, t.Accent} {
						swatch += r.NewStyle().Background(lipgloss.Color(c)).Render("   ")
					}
					swatch += " "
				}
				fmt.Fprintf(w, "%s%-14s %s  %s %s %s\n", swatch, t.Name, t.Label, t.Primary, t.Secondary, t.Accent)
			}
			return nil
		},
	}
}
