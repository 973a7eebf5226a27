package htmldoc

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/pagination"
	"github.com/dafterai/dafter/internal/parser/html"
	"github.com/dafterai/dafter/internal/res"
	"github.com/dafterai/dafter/internal/style"
	"github.com/dafterai/dafter/internal/text"
	xhtml "golang.org/x/net/html"
)

//go:embed reflow.js
var reflowScript string

// Options configures the static export
type Options struct {
	// Pagination carries the thresholds the embedded reflow script uses
	Pagination pagination.Options
	// Editable makes page bodies contentEditable
	Editable bool
	// InlineImages replaces image references with data URLs
	InlineImages bool
	// Stylesheets are appended after the notebook stylesheet
	Stylesheets []string
}

// DefaultOptions returns export defaults. The exported document searches
// forward first when it cuts a single block.
func DefaultOptions() Options {
	p := pagination.DefaultOptions()
	p.Search = pagination.SearchForward
	return Options{
		Pagination:   p,
		Editable:     true,
		InlineImages: true,
	}
}

// reflowConfig is the JSON handed to reflow.js
type reflowConfig struct {
	BaseThresholdCover   float64 `json:"baseThresholdCover"`
	BaseThresholdContent float64 `json:"baseThresholdContent"`
	BaseThresholdSplit   float64 `json:"baseThresholdSplit"`
	MMToPx               float64 `json:"mmToPx"`
	FallbackSplitRatio   float64 `json:"fallbackSplitRatio"`
	Search               int     `json:"search"`
	MaxPages             int     `json:"maxPages"`
	HeaderTopGap         float64 `json:"headerTopGap"`
	HeaderContentGap     float64 `json:"headerContentGap"`
	ContinuationSuffix   string  `json:"continuationSuffix"`
}

// Exporter writes a document as one self-contained HTML file
type Exporter struct {
	loader  *res.Loader
	options Options
	logger  *slog.Logger
}

// NewExporter creates an exporter that inlines images through loader.
// A nil loader resolves paths against the working directory.
func NewExporter(loader *res.Loader) *Exporter {
	if loader == nil {
		loader = res.NewLoader("")
	}
	return &Exporter{
		loader:  loader,
		options: DefaultOptions(),
		logger:  slog.Default(),
	}
}

// SetOptions replaces the export options
func (e *Exporter) SetOptions(options Options) {
	e.options = options
}

// SetLogger sets the logger used for swallowed image failures
func (e *Exporter) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

type pageView struct {
	ID      string
	Title   string
	Footer  string
	Cover   bool
	Dir     string
	Image   template.URL
	Content template.HTML
	Number  int
}

type docView struct {
	Title    string
	Brand    string
	Logo     template.URL
	Dir      string
	Theme    template.CSS
	Notebook template.CSS
	Page     template.CSS
	Author   template.CSS
	Editable bool
	Total    int
	Pages    []pageView
	Config   template.JS
	Script   template.JS
}

// Export renders doc to w
func (e *Exporter) Export(ctx context.Context, doc document.Document, w io.Writer) error {
	view, err := e.view(ctx, doc)
	if err != nil {
		return err
	}
	if err := pageTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render HTML export: %w", err)
	}
	return nil
}

// ExportFile renders doc to a file, creating parent directories
func (e *Exporter) ExportFile(ctx context.Context, doc document.Document, path string) error {
	var buf bytes.Buffer
	if err := e.Export(ctx, doc, &buf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write HTML export: %w", err)
	}
	return nil
}

func (e *Exporter) view(ctx context.Context, doc document.Document) (docView, error) {
	cfg, err := json.Marshal(e.config(doc.Layout))
	if err != nil {
		return docView{}, fmt.Errorf("failed to encode pagination settings: %w", err)
	}

	view := docView{
		Title:    doc.Title,
		Brand:    doc.Brand.Name,
		Theme:    template.CSS(style.ThemeVariables(doc.Brand)),
		Notebook: template.CSS(style.NotebookCSS),
		Page:     template.CSS(pageCSS(doc.Layout)),
		Author:   template.CSS(strings.Join(e.options.Stylesheets, "\n")),
		Editable: e.options.Editable,
		Total:    doc.Pages.Len(),
		Config:   template.JS(cfg),
		Script:   template.JS(reflowScript),
	}
	if view.Brand == "" {
		view.Brand = document.DefaultBrandName
	}
	if doc.Brand.LogoURL != "" {
		view.Logo = template.URL(e.inline(ctx, doc.Brand.LogoURL))
	}

	var all strings.Builder
	for i, p := range doc.Pages.Pages() {
		if err := ctx.Err(); err != nil {
			return docView{}, err
		}
		content := p.Content
		if e.options.InlineImages && strings.Contains(content, "<img") {
			content = e.inlineContent(ctx, content)
		}
		pv := pageView{
			ID:      p.ID,
			Title:   p.Title,
			Footer:  p.Footer,
			Cover:   p.IsCover,
			Dir:     text.DetectDirection(p.Title+" "+plainText(p.Content), text.RightToLeft).String(),
			Content: template.HTML(content),
			Number:  i + 1,
		}
		if p.ImageURL != "" {
			pv.Image = template.URL(e.inline(ctx, p.ImageURL))
		}
		view.Pages = append(view.Pages, pv)
		all.WriteString(p.Title)
		all.WriteString(" ")
	}
	view.Dir = text.DetectDirection(doc.Title+" "+all.String(), text.RightToLeft).String()
	return view, nil
}

func (e *Exporter) config(layout document.LayoutConfig) reflowConfig {
	o := e.options.Pagination
	return reflowConfig{
		BaseThresholdCover:   o.BaseThresholdCover,
		BaseThresholdContent: o.BaseThresholdContent,
		BaseThresholdSplit:   o.BaseThresholdSplit,
		MMToPx:               o.MMToPx,
		FallbackSplitRatio:   o.FallbackSplitRatio,
		Search:               int(o.Search),
		MaxPages:             o.MaxPages,
		HeaderTopGap:         layout.HeaderTopGap,
		HeaderContentGap:     layout.HeaderContentGap,
		ContinuationSuffix:   document.ContinuationSuffix,
	}
}

// inline returns ref as a data URL, or ref unchanged when it cannot be loaded
func (e *Exporter) inline(ctx context.Context, ref string) string {
	if !e.options.InlineImages {
		return ref
	}
	out, err := e.loader.InlineImage(ctx, ref)
	if err != nil {
		e.logger.Warn("failed to inline image", "ref", truncate(ref, 80), "error", err)
		return ref
	}
	return out
}

func (e *Exporter) inlineContent(ctx context.Context, content string) string {
	doc, err := html.NewParser().ParseFragment(content)
	if err != nil {
		return content
	}
	changed := false
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == xhtml.ElementNode && n.Data == "img" {
			for i, a := range n.Attr {
				if a.Key == "src" && a.Val != "" && !strings.HasPrefix(a.Val, "data:") {
					n.Attr[i].Val = e.inline(ctx, a.Val)
					changed = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc.Root)
	if !changed {
		return content
	}
	out, err := doc.Render()
	if err != nil {
		return content
	}
	return out
}

// pageCSS sizes the sheet and applies the layout margins and gaps
func pageCSS(layout document.LayoutConfig) string {
	return fmt.Sprintf(
		`.page { padding: %gmm %gmm %gmm %gmm; }
.page-header { margin-bottom: %gmm; }`,
		max(0, layout.HeaderTopGap), layout.MarginRight, layout.MarginBottom, layout.MarginLeft,
		max(0, layout.HeaderContentGap),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var pageTemplate = template.Must(template.New("notebook").Parse(`<!DOCTYPE html>
<html lang="ar" dir="{{.Dir}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
{{.Theme}}
@page { size: A4; margin: 0; }
* { box-sizing: border-box; }
body { margin: 0; background: #e5e7eb; font-family: var(--font), sans-serif; }
.page { position: relative; width: 210mm; height: 297mm; margin: 10mm auto; background: var(--page-bg); overflow: hidden; display: flex; flex-direction: column; page-break-after: always; }
.page-header { display: flex; justify-content: space-between; align-items: center; border-bottom: 2px solid var(--accent); padding: 4mm 0 2mm 0; color: var(--primary); font-weight: bold; }
.brand-logo { height: 8mm; }
.page-body { flex: 1; overflow: hidden; }
.page-image { float: left; width: 30%; aspect-ratio: 3 / 4; object-fit: cover; margin: 0 0 16px 20px; border-radius: 8px; }
.page-content { outline: none; }
.page-footer { display: flex; justify-content: space-between; border-top: 1px solid #e5e7eb; padding-top: 2mm; font-size: 12px; color: var(--secondary); }
.page.cover .page-body { display: flex; flex-direction: column; justify-content: center; text-align: center; }
.page[data-stuck] { outline: 2px solid #dc2626; }
@media print { body { background: none; } .page { margin: 0; } .page[data-stuck] { outline: none; } }
{{.Page}}
{{.Notebook}}
{{.Author}}
</style>
</head>
<body>
{{range .Pages}}<section class="page{{if .Cover}} cover{{end}}" data-page-id="{{.ID}}" data-cover="{{.Cover}}" dir="{{.Dir}}">
<header class="page-header"><span class="page-title">{{.Title}}</span><span class="page-brand">{{with $.Logo}}<img class="brand-logo" src="{{.}}" alt="">{{end}}{{$.Brand}}</span></header>
<div class="page-body">{{with .Image}}<img class="page-image" src="{{.}}" alt="">{{end}}<div class="page-content"{{if $.Editable}} contenteditable="true"{{end}}>{{.Content}}</div></div>
<footer class="page-footer"><span>{{.Footer}}</span><span class="page-number">{{.Number}} / {{$.Total}}</span></footer>
</section>
{{end}}<script type="application/json" id="dafter-pagination">{{.Config}}</script>
<script>
{{.Script}}
</script>
</body>
</html>
`))
