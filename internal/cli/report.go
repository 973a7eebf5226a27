package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/pagination"
)

var errOverflow = errors.New("pages overflow their sheet")

// reportStyles holds the styles of the check report. They render plain text
// when the output is not a terminal.
type reportStyles struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	ok       lipgloss.Style
	overflow lipgloss.Style
	warning  lipgloss.Style
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newReportStyles(w io.Writer) reportStyles {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return reportStyles{title: plain, muted: plain, ok: plain, overflow: plain, warning: plain}
	}
	r := lipgloss.NewRenderer(w)
	return reportStyles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		ok:       r.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		overflow: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8")),
		warning:  r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
	}
}

func truncateTitle(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// printReport writes one line per page and returns the number of
// overflowing pages
func printReport(w io.Writer, doc document.Document, reports []pagination.Report) int {
	st := newReportStyles(w)
	cell := lipgloss.NewStyle().PaddingRight(2)

	fmt.Fprintln(w, st.title.Render(fmt.Sprintf("%s · %d pages", doc.Title, doc.Pages.Len())))

	overflowing := 0
	for i, r := range reports {
		page, _ := doc.Pages.Get(r.PageID)
		kind := "content"
		if r.Cover {
			kind = "cover"
		}

		var status string
		switch {
		case !r.Measured:
			status = st.warning.Render("not measured")
		case r.Overflowing && r.Splittable:
			overflowing++
			status = st.overflow.Render("OVERFLOW") + st.muted.Render(" (split available)")
		case r.Overflowing:
			overflowing++
			status = st.overflow.Render("OVERFLOW")
		default:
			status = st.ok.Render("ok")
		}

		fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
			cell.Width(5).Render(fmt.Sprintf("%d", i+1)),
			cell.Width(40).Render(truncateTitle(page.Title, 36)),
			cell.Width(10).Render(st.muted.Render(kind)),
			cell.Width(20).Render(fmt.Sprintf("%.0f / %.0fpx", r.ContentHeight, r.Threshold)),
			status,
		))
		fmt.Fprintln(w, st.muted.Render(strings.Repeat(" ", 5)+r.PageID))
	}
	return overflowing
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		pageID string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Report pages that overflow their A4 sheet",
		Long: `Measures every page with the server-side layout estimator and reports
the pages whose content is taller than the sheet allows.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			doc, err := document.Load(path)
			if err != nil {
				return err
			}

			editor := a.editorFor(path)
			var reports []pagination.Report
			if pageID != "" {
				r, err := editor.Check(doc, pageID, nil)
				if err != nil {
					return err
				}
				reports = []pagination.Report{r}
			} else {
				reports = editor.CheckAll(doc, nil)
			}

			if n := printReport(cmd.OutOrStdout(), doc, reports); n > 0 && strict {
				return fmt.Errorf("%w: %d", errOverflow, n)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pageID, "page", "p", "", "check a single page")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when a page overflows")

	return cmd
}
