package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/generate"
	"github.com/dafterai/dafter/internal/layout"
	"github.com/dafterai/dafter/internal/pagination"
	"github.com/dafterai/dafter/internal/render/htmldoc"
	"github.com/dafterai/dafter/internal/render/pdf"
	"github.com/dafterai/dafter/internal/res"
)

var (
	// ErrNoGenerator is returned by Generate when no content backend is configured
	ErrNoGenerator = errors.New("content generation is not configured")
	// ErrUnknownFormat is returned for an unsupported export format
	ErrUnknownFormat = errors.New("unknown export format")
)

// Format is an export sink
type Format string

const (
	FormatHTML      Format = "html"
	FormatPDF       Format = "pdf"
	FormatClipboard Format = "clipboard"
)

// ParseFormat validates an export format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHTML, FormatPDF, FormatClipboard:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of the format's output
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatClipboard:
		return "application/json"
	}
	return "text/html; charset=utf-8"
}

// Extension returns the file extension of the format's output
func (f Format) Extension() string {
	switch f {
	case FormatPDF:
		return ".pdf"
	case FormatClipboard:
		return ".clip.html"
	}
	return ".html"
}

// SplitResult is the outcome of one split gesture
type SplitResult struct {
	Applied bool `json:"applied"`
	// Reason is the rule that chose the split point, or why nothing was split
	Reason    string              `json:"reason"`
	NewPageID string              `json:"newPageId,omitempty"`
	Split     *pagination.Split   `json:"split,omitempty"`
	Reports   []pagination.Report `json:"reports,omitempty"`
}

// Editor is the main API for laying out and editing notebooks
type Editor struct {
	options   Options
	loader    *res.Loader
	engine    *pagination.Engine
	estimator *layout.Estimator
	history   *document.History
	logger    *slog.Logger
}

// New creates a new editor with default options modified by opts
func New(opts ...Option) *Editor {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return NewWithOptions(options)
}

// NewWithOptions creates a new editor with the specified options
func NewWithOptions(options Options) *Editor {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	loader := res.NewLoader("")
	for _, path := range options.ResourcePaths {
		loader.AddSearchPath(path)
	}

	lo := layout.DefaultOptions()
	if options.MMToPx > 0 {
		lo.MMToPx = options.MMToPx
	}
	lo.Debug = options.Debug
	estimator := layout.NewEstimator(document.Brand{})
	estimator.SetOptions(lo)
	estimator.SetLogger(logger)
	for _, css := range options.Stylesheets {
		if err := estimator.AddStylesheet(css); err != nil {
			logger.Warn("ignoring stylesheet", "error", err)
		}
	}

	engine := pagination.NewEngine(nil)
	engine.SetOptions(options.paginationOptions())
	engine.SetLogger(logger)

	return &Editor{
		options:   options,
		loader:    loader,
		engine:    engine,
		estimator: estimator,
		history:   document.NewHistory(options.HistoryDepth),
		logger:    logger,
	}
}

// Options returns the editor options
func (e *Editor) Options() Options {
	return e.options
}

// Pagination returns the effective pagination heuristics
func (e *Editor) Pagination() pagination.Options {
	return e.engine.Options()
}

// WithOption returns a new editor with the specified option set
func (e *Editor) WithOption(option Option) *Editor {
	newOptions := e.options
	option(&newOptions)
	return NewWithOptions(newOptions)
}

// WithHistory returns a copy of the editor that records undo snapshots in h
func (e *Editor) WithHistory(h *document.History) *Editor {
	cp := *e
	cp.history = h
	return &cp
}

// History returns the undo history edits are recorded in
func (e *Editor) History() *document.History {
	return e.history
}

// Loader returns the resource loader used for images and fonts
func (e *Editor) Loader() *res.Loader {
	return e.loader
}

// engineFor returns an engine measuring with m, the configured measurer,
// or the estimator for the document's brand, in that order.
func (e *Editor) engineFor(doc document.Document, m pagination.Measurer) *pagination.Engine {
	if m == nil {
		m = e.options.Measurer
	}
	if m == nil {
		m = e.estimator.WithBrand(doc.Brand)
	}
	return e.engine.WithMeasurer(m)
}

// Check reports whether a page overflows
func (e *Editor) Check(doc document.Document, pageID string, m pagination.Measurer) (pagination.Report, error) {
	page, err := doc.Pages.Get(pageID)
	if err != nil {
		return pagination.Report{}, err
	}
	return e.engineFor(doc, m).Check(page, doc.Layout), nil
}

// CheckAll reports on every page in order
func (e *Editor) CheckAll(doc document.Document, m pagination.Measurer) []pagination.Report {
	return e.engineFor(doc, m).CheckAll(doc.Pages, doc.Layout)
}

// OnContentChanged stores new content for a page, records an undo
// snapshot and re-evaluates the page.
func (e *Editor) OnContentChanged(doc document.Document, pageID, content string, m pagination.Measurer) (document.Document, pagination.Report, error) {
	page, err := doc.Pages.Get(pageID)
	if err != nil {
		return doc, pagination.Report{}, err
	}
	next, err := doc.UpdateContent(pageID, content)
	if err != nil {
		return doc, pagination.Report{}, err
	}
	e.history.Record(pageID, page.Content)
	e.history.Record(pageID, content)

	report, err := e.Check(next, pageID, m)
	return next, report, err
}

// OnSplitRequested performs one split of a page. Refused splits leave the
// document unchanged and are reported in the result; only a missing page
// or a broken page set is an error.
func (e *Editor) OnSplitRequested(doc document.Document, pageID string, m pagination.Measurer) (document.Document, SplitResult, error) {
	page, err := doc.Pages.Get(pageID)
	if err != nil {
		return doc, SplitResult{}, err
	}

	engine := e.engineFor(doc, m)
	set, split, err := engine.ApplySplit(doc.Pages, pageID, doc.Layout)
	if err != nil {
		if pagination.IsNoop(err) {
			e.logger.Debug("split refused", "page", pageID, "reason", err)
			return doc, SplitResult{Reason: err.Error()}, nil
		}
		return doc, SplitResult{}, err
	}

	next := doc.WithPages(set)
	continuation := set.At(set.Index(pageID) + 1)
	e.history.RecordSplit(pageID, page.Content, split.Kept, continuation)

	kept, _ := set.Get(pageID)
	result := SplitResult{
		Applied:   true,
		Reason:    string(split.Reason),
		NewPageID: continuation.ID,
		Split:     &split,
		Reports: []pagination.Report{
			engine.Check(kept, doc.Layout),
			engine.Check(continuation, doc.Layout),
		},
	}
	e.logger.Debug("page split", "page", pageID, "new", continuation.ID, "reason", split.Reason, "index", split.Index)
	return next, result, nil
}

// SetLayout replaces the layout and re-checks every page
func (e *Editor) SetLayout(doc document.Document, layout document.LayoutConfig, m pagination.Measurer) (document.Document, []pagination.Report) {
	next := doc.WithLayout(layout)
	return next, e.CheckAll(next, m)
}

// Reflow splits overflowing pages until every page fits, nothing more can
// be split, or MaxPages is reached.
func (e *Editor) Reflow(doc document.Document, m pagination.Measurer) (document.Document, pagination.Stats) {
	set, stats := e.engineFor(doc, m).Paginate(doc.Pages, doc.Layout)
	if stats.Splits > 0 {
		// Undo does not reach back across a reflow
		for _, p := range set.Pages() {
			if old, err := doc.Pages.Get(p.ID); err == nil && old.Content == p.Content {
				continue
			}
			e.history.Forget(p.ID)
			e.history.Record(p.ID, p.Content)
		}
	}
	return doc.WithPages(set), stats
}

// Undo restores the previous snapshot of a page. ok is false when there is
// nothing to undo.
//
// Undoing a split removes the continuation page. When neither half was
// edited since, the page gets its content from before the split back;
// otherwise the current continuation content is appended to the page.
func (e *Editor) Undo(doc document.Document, pageID string) (next document.Document, ok bool, err error) {
	page, err := doc.Pages.Get(pageID)
	if err != nil {
		return doc, false, err
	}
	step, ok := e.history.UndoStep(pageID)
	if !ok {
		return doc, false, nil
	}

	content := step.Content
	if c := step.Continuation; c != nil {
		if cont, err := doc.Pages.Get(c.ID); err == nil {
			if page.Content != step.Left || cont.Content != c.Content {
				content = page.Content + cont.Content
			}
			if doc, err = doc.DeletePage(c.ID); err != nil {
				return doc, false, err
			}
			e.history.Forget(c.ID)
		}
	}
	next, err = doc.UpdateContent(pageID, content)
	return next, err == nil, err
}

// Redo re-applies an undone snapshot of a page. Redoing a split inserts
// the continuation page again.
func (e *Editor) Redo(doc document.Document, pageID string) (next document.Document, ok bool, err error) {
	if _, err := doc.Pages.Get(pageID); err != nil {
		return doc, false, err
	}
	step, ok := e.history.RedoStep(pageID)
	if !ok {
		return doc, false, nil
	}
	next, err = doc.UpdateContent(pageID, step.Content)
	if err != nil {
		return doc, false, err
	}
	if c := step.Continuation; c != nil && !next.Pages.Has(c.ID) {
		set, err := next.Pages.Insert(next.Pages.Index(pageID)+1, *c)
		if err != nil {
			return doc, false, err
		}
		next = next.WithPages(set)
		e.history.Record(c.ID, c.Content)
	}
	return next, true, nil
}

// InsertCallout appends a styled callout box to a page
func (e *Editor) InsertCallout(doc document.Document, pageID string, kind document.CalloutKind, body string, m pagination.Measurer) (document.Document, pagination.Report, error) {
	page, err := doc.Pages.Get(pageID)
	if err != nil {
		return doc, pagination.Report{}, err
	}
	page, err = page.InsertCallout(kind, body)
	if err != nil {
		return doc, pagination.Report{}, err
	}
	return e.OnContentChanged(doc, pageID, page.Content, m)
}

// Generate replaces every page of doc with a generated notebook
func (e *Editor) Generate(ctx context.Context, doc document.Document, req generate.Request) (document.Document, error) {
	if e.options.ContentGenerator == nil {
		return doc, ErrNoGenerator
	}
	svc := generate.NewService(e.options.ContentGenerator, e.options.ImageGenerator)
	svc.SetOptions(e.options.Generation)
	svc.SetLogger(e.logger)

	next, err := svc.Generate(ctx, doc, req)
	if err != nil {
		return doc, err
	}
	for _, p := range next.Pages.Pages() {
		e.history.Record(p.ID, p.Content)
	}
	return next, nil
}

// Export writes doc in the given format
func (e *Editor) Export(ctx context.Context, doc document.Document, format Format, w io.Writer) error {
	switch format {
	case FormatHTML:
		return e.ExportHTML(ctx, doc, w)
	case FormatPDF:
		return e.ExportPDF(ctx, doc, w)
	case FormatClipboard:
		clip, err := e.Clipboard(doc)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, clip.HTML)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// ExportHTML writes a self-contained HTML notebook that keeps paginating
// itself in the browser
func (e *Editor) ExportHTML(ctx context.Context, doc document.Document, w io.Writer) error {
	exporter := htmldoc.NewExporter(e.loader)
	exporter.SetLogger(e.logger)
	opts := htmldoc.DefaultOptions()
	p := e.engine.Options()
	p.Search = pagination.SearchForward
	opts.Pagination = p
	opts.Stylesheets = e.options.Stylesheets
	opts.InlineImages = e.options.InlineImages
	exporter.SetOptions(opts)
	return exporter.Export(ctx, doc, w)
}

// ExportPDF prints doc as an A4 PDF
func (e *Editor) ExportPDF(ctx context.Context, doc document.Document, w io.Writer) error {
	renderer := pdf.NewRenderer(e.loader)
	renderer.FontPath = e.options.FontPath
	renderer.Debug = e.options.Debug
	renderer.SetLogger(e.logger)

	title := e.options.Title
	if title == "" {
		title = doc.Title
	}
	err := renderer.Render(ctx, doc, w, pdf.RenderOptions{
		Title:    title,
		Author:   e.options.Author,
		Subject:  e.options.Subject,
		Keywords: e.options.Keywords,
		Creator:  "dafter",
		Producer: "dafter",
	})
	if err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

// Clipboard returns doc as rich text with a plain-text alternative
func (e *Editor) Clipboard(doc document.Document) (htmldoc.Clip, error) {
	return htmldoc.Clipboard(doc)
}
