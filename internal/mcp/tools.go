package mcp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/pagination"
)

// PageOutput summarises one page.
type PageOutput struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	IsCover bool   `json:"is_cover,omitempty"`
	Chars   int    `json:"chars"`
}

// PagesOutput is the output schema of list_pages.
type PagesOutput struct {
	Title string       `json:"title"`
	Pages []PageOutput `json:"pages"`
	Count int          `json:"count"`
}

// ListPagesInput is the input schema of list_pages.
type ListPagesInput struct{}

// CheckInput is the input schema of check_overflow.
type CheckInput struct {
	PageID string `json:"page_id,omitempty" jsonschema:"page to check; every page when empty"`
}

// CheckOutput is the output schema of check_overflow.
type CheckOutput struct {
	Reports     []pagination.Report `json:"reports"`
	Overflowing int                 `json:"overflowing"`
}

// SplitInput is the input schema of split_page.
type SplitInput struct {
	PageID string `json:"page_id" jsonschema:"the overflowing page to split"`
}

// SplitOutput is the output schema of split_page.
type SplitOutput struct {
	Applied   bool   `json:"applied"`
	Reason    string `json:"reason"`
	NewPageID string `json:"new_page_id,omitempty"`
	Count     int    `json:"count"`
}

// ReflowInput is the input schema of reflow.
type ReflowInput struct{}

// ReflowOutput is the output schema of reflow.
type ReflowOutput struct {
	Splits    int      `json:"splits"`
	Stuck     []string `json:"stuck,omitempty"`
	Truncated bool     `json:"truncated"`
	Count     int      `json:"count"`
}

// AddPageInput is the input schema of add_page.
type AddPageInput struct {
	Title   string `json:"title,omitempty" jsonschema:"page title"`
	Content string `json:"content,omitempty" jsonschema:"page body as an HTML fragment"`
}

// AddPageOutput is the output schema of add_page.
type AddPageOutput struct {
	PageID string `json:"page_id"`
	Count  int    `json:"count"`
}

// ExportInput is the input schema of export_html.
type ExportInput struct {
	Path string `json:"path,omitempty" jsonschema:"output file; next to the document when empty"`
}

// ExportOutput is the output schema of export_html.
type ExportOutput struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_pages",
		Description: "List the pages of the notebook in order",
	}, s.handleListPages)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_overflow",
		Description: "Report which pages overflow their A4 sheet",
	}, s.handleCheck)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "split_page",
		Description: "Move the overflowing part of a page to a new continuation page",
	}, s.handleSplit)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reflow",
		Description: "Split overflowing pages until every page fits",
	}, s.handleReflow)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_page",
		Description: "Append a page to the notebook",
	}, s.handleAddPage)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "export_html",
		Description: "Export the notebook as a self-contained HTML file",
	}, s.handleExport)
}

func (s *Server) handleListPages(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListPagesInput,
) (*mcp.CallToolResult, PagesOutput, error) {
	doc, err := s.load()
	if err != nil {
		return nil, PagesOutput{}, err
	}

	output := PagesOutput{Title: doc.Title, Count: doc.Pages.Len()}
	for _, p := range doc.Pages.Pages() {
		output.Pages = append(output.Pages, PageOutput{
			ID:      p.ID,
			Title:   p.Title,
			IsCover: p.IsCover,
			Chars:   len([]rune(p.Content)),
		})
	}
	return nil, output, nil
}

func (s *Server) handleCheck(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CheckInput,
) (*mcp.CallToolResult, CheckOutput, error) {
	doc, err := s.load()
	if err != nil {
		return nil, CheckOutput{}, err
	}

	var reports []pagination.Report
	if input.PageID != "" {
		r, err := s.editor.Check(doc, input.PageID, nil)
		if err != nil {
			return nil, CheckOutput{}, err
		}
		reports = []pagination.Report{r}
	} else {
		reports = s.editor.CheckAll(doc, nil)
	}

	output := CheckOutput{Reports: reports}
	for _, r := range reports {
		if r.Overflowing {
			output.Overflowing++
		}
	}
	return nil, output, nil
}

func (s *Server) handleSplit(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SplitInput,
) (*mcp.CallToolResult, SplitOutput, error) {
	var output SplitOutput
	doc, err := s.update(func(d document.Document) (document.Document, error) {
		next, result, err := s.editor.OnSplitRequested(d, input.PageID, nil)
		output.Applied = result.Applied
		output.Reason = result.Reason
		output.NewPageID = result.NewPageID
		return next, err
	})
	if err != nil {
		return nil, SplitOutput{}, err
	}
	output.Count = doc.Pages.Len()
	return nil, output, nil
}

func (s *Server) handleReflow(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ReflowInput,
) (*mcp.CallToolResult, ReflowOutput, error) {
	var stats pagination.Stats
	doc, err := s.update(func(d document.Document) (document.Document, error) {
		var next document.Document
		next, stats = s.editor.Reflow(d, nil)
		return next, nil
	})
	if err != nil {
		return nil, ReflowOutput{}, err
	}
	return nil, ReflowOutput{
		Splits:    stats.Splits,
		Stuck:     stats.Stuck,
		Truncated: stats.Truncated,
		Count:     doc.Pages.Len(),
	}, nil
}

func (s *Server) handleAddPage(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input AddPageInput,
) (*mcp.CallToolResult, AddPageOutput, error) {
	var pageID string
	doc, err := s.update(func(d document.Document) (document.Document, error) {
		next, page, err := d.AddPage()
		if err != nil {
			return d, err
		}
		pageID = page.ID
		if input.Title == "" && input.Content == "" {
			return next, nil
		}
		if input.Title != "" {
			page.Title = input.Title
		}
		if input.Content != "" {
			page.Content = input.Content
		}
		set, err := next.Pages.Replace(page.ID, page)
		if err != nil {
			return d, err
		}
		return next.WithPages(set), nil
	})
	if err != nil {
		return nil, AddPageOutput{}, err
	}
	return nil, AddPageOutput{PageID: pageID, Count: doc.Pages.Len()}, nil
}

func (s *Server) handleExport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExportInput,
) (*mcp.CallToolResult, ExportOutput, error) {
	doc, err := s.load()
	if err != nil {
		return nil, ExportOutput{}, err
	}

	path := input.Path
	if path == "" {
		path = strings.TrimSuffix(s.path, filepath.Ext(s.path)) + ".html"
	}

	var buf bytes.Buffer
	if err := s.editor.ExportHTML(ctx, doc, &buf); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("exporting: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("writing export: %w", err)
	}
	return nil, ExportOutput{Path: path, Bytes: buf.Len()}, nil
}
