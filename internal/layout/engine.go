package layout

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"codeberg.org/go-pdf/fpdf"
	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/pagination"
	"github.com/dafterai/dafter/internal/parser/css"
	"github.com/dafterai/dafter/internal/parser/html"
	"github.com/dafterai/dafter/internal/style"
	"github.com/dafterai/dafter/internal/text"
	xhtml "golang.org/x/net/html"
)

// Singleton PDF instance for text measurement using go-pdf/fpdf metrics
var (
	measureOnce sync.Once
	measurePDF  *fpdf.Fpdf
	measureMu   sync.Mutex
)

func initMeasurePDF() {
	measurePDF = fpdf.New("P", "pt", "A4", "")
	measurePDF.SetFont("Helvetica", "", 12)
}

// measureTextWidth returns the width of a single line of Latin-1 text set in
// the core font closest to font. One pt of font size measures one px.
func measureTextWidth(s string, font text.Font) float64 {
	if s == "" || font.Size <= 0 {
		return 0
	}
	measureOnce.Do(initMeasurePDF)
	measureMu.Lock()
	defer measureMu.Unlock()
	styleStr := ""
	if font.Bold {
		styleStr += "B"
	}
	if font.Italic {
		styleStr += "I"
	}
	measurePDF.SetFont(coreFamily(font.Family), styleStr, font.Size)
	return measurePDF.GetStringWidth(s)
}

// coreFamily maps a CSS font-family list to a core PDF font family
func coreFamily(family string) string {
	first := strings.Split(family, ",")[0]
	first = strings.TrimSpace(strings.Trim(strings.TrimSpace(first), "'\""))
	switch strings.ToLower(first) {
	case "times", "times new roman", "serif", "amiri", "noto naskh arabic":
		return "Times"
	case "courier", "courier new", "monospace":
		return "Courier"
	}
	return "Helvetica"
}

// Options represents options for the estimator
type Options struct {
	// Page is the sheet size in millimetres
	Page pagination.PageSize
	// MMToPx converts page margins to px
	MMToPx float64
	// FloatRatio is the page image width as a share of the content width
	FloatRatio float64
	// FloatAspect is the page image height over its width
	FloatAspect float64
	FloatGap    float64
	FloatBelow  float64
	Debug       bool
}

// DefaultOptions returns the options matching the notebook stylesheet
func DefaultOptions() Options {
	return Options{
		Page:        pagination.PageSizeA4,
		MMToPx:      pagination.DefaultMMToPx,
		FloatRatio:  0.3,
		FloatAspect: 4.0 / 3.0,
		FloatGap:    20,
		FloatBelow:  16,
	}
}

// Estimator lays page content out with the notebook stylesheet and font
// metrics to measure it without a browser. It implements pagination.Measurer.
type Estimator struct {
	options Options
	brand   document.Brand
	parser  *html.Parser
	styles  *style.StyleEngine
	shaper  *text.TextShaper
	logger  *slog.Logger
}

// NewEstimator creates an estimator for pages of the given brand
func NewEstimator(brand document.Brand) *Estimator {
	return &Estimator{
		options: DefaultOptions(),
		brand:   brand,
		parser:  html.NewParser(),
		styles:  style.NewStyleEngine(),
		shaper:  text.NewTextShaper(),
		logger:  slog.Default(),
	}
}

// SetOptions sets the estimator options. Zero values fall back to the defaults.
func (e *Estimator) SetOptions(options Options) {
	def := DefaultOptions()
	if options.Page.Width <= 0 {
		options.Page = def.Page
	}
	if options.MMToPx <= 0 {
		options.MMToPx = def.MMToPx
	}
	if options.FloatRatio <= 0 || options.FloatRatio >= 1 {
		options.FloatRatio = def.FloatRatio
	}
	if options.FloatAspect <= 0 {
		options.FloatAspect = def.FloatAspect
	}
	e.options = options
}

// SetLogger sets the logger used for debug output
func (e *Estimator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// WithBrand returns a copy of the estimator for another brand
func (e *Estimator) WithBrand(brand document.Brand) *Estimator {
	cp := *e
	cp.brand = brand
	return &cp
}

// AddStylesheet parses author CSS applied on top of the notebook stylesheet
func (e *Estimator) AddStylesheet(source string) error {
	sheet, err := css.NewParser().ParseString(source)
	if err != nil {
		return fmt.Errorf("failed to parse stylesheet: %w", err)
	}
	e.styles.AddStylesheet(sheet)
	return nil
}

// ContentWidth returns the width of the page body in px
func (e *Estimator) ContentWidth(layout document.LayoutConfig) float64 {
	mm := e.options.Page.Width - math.Max(0, layout.MarginLeft) - math.Max(0, layout.MarginRight)
	return math.Max(0, mm*e.options.MMToPx)
}

// Flow returns the formatting context of a page
func (e *Estimator) Flow(page document.Page, layout document.LayoutConfig) *Flow {
	f := &Flow{Width: e.ContentWidth(layout)}
	if strings.TrimSpace(page.ImageURL) != "" {
		w := f.Width * e.options.FloatRatio
		f.Float = FloatBox{
			Width:  w,
			Height: w * e.options.FloatAspect,
			Gap:    e.options.FloatGap,
			Below:  e.options.FloatBelow,
		}
	}
	return f
}

// Measure lays out every block of a page and reports their heights and the
// height of the container: adjacent margins collapse and the floated image
// extends the container when it is taller than the text.
func (e *Estimator) Measure(page document.Page, layout document.LayoutConfig, blocks []html.Block) (*pagination.Measurement, error) {
	flow := e.Flow(page, layout)
	m := &pagination.Measurement{Blocks: make([]pagination.Metrics, 0, len(blocks))}

	y, prevBottom := 0.0, 0.0
	for i, block := range blocks {
		box, err := e.LayoutBlock(block)
		if err != nil {
			return nil, fmt.Errorf("failed to lay out block %d of page %s: %w", i, page.ID, err)
		}
		box.ResolveEdges(flow.Width)
		gap := box.GetMarginTop()
		if i > 0 {
			gap = math.Max(prevBottom, gap)
		}
		y += gap
		box.SetPosition(0, y)
		box.Layout(flow)
		y += box.GetHeight()
		prevBottom = box.GetMarginBottom()

		m.Blocks = append(m.Blocks, pagination.Metrics{
			Height:       box.GetHeight(),
			MarginTop:    box.GetMarginTop(),
			MarginBottom: box.GetMarginBottom(),
		})
	}
	if len(blocks) > 0 {
		y += prevBottom
	}
	m.ContentHeight = math.Max(y, flow.Float.Bottom())

	if e.options.Debug {
		e.logger.Debug("estimated page",
			"page", page.ID,
			"blocks", len(blocks),
			"width", flow.Width,
			"height", m.ContentHeight,
		)
	}
	return m, nil
}

// LayoutBlock builds the box tree of one top-level block. The box still
// has to be positioned and laid out.
func (e *Estimator) LayoutBlock(block html.Block) (Box, error) {
	doc, err := e.parser.ParseFragment(block.Outer())
	if err != nil {
		return nil, err
	}
	ctx := &buildContext{
		styles:  e.styles.ComputeStyles(doc, style.RootStyle(e.brand)),
		sizes:   make(map[*html.Node]float64),
		shaper:  e.shaper,
		rootKey: doc.Root,
	}
	ctx.resolveFontSizes(doc.Root, style.BaseFontSize)

	root := NewBlockBox(doc.Root, ctx.styleOf(doc.Root), ctx.fontSizeOf(doc.Root))
	ctx.buildChildren(doc.Root, root)

	// A block that parsed into a single element box is that box
	if !block.Anonymous() && len(root.Children) == 1 {
		return root.Children[0], nil
	}
	return root, nil
}

// buildContext carries the cascade results of one block while its box
// tree is built and laid out.
type buildContext struct {
	styles  map[*html.Node]style.ComputedStyle
	sizes   map[*html.Node]float64
	shaper  *text.TextShaper
	rootKey *html.Node
}

var skippedTags = map[string]bool{
	"script": true, "style": true, "template": true, "head": true,
	"title": true, "meta": true, "link": true, "noscript": true,
}

// tableBlockTags are block-level in addition to html.IsBlockTag
var tableBlockTags = map[string]bool{
	"thead": true, "tbody": true, "tfoot": true, "tr": true,
	"td": true, "th": true, "caption": true,
}

func (c *buildContext) styleOf(n *html.Node) style.ComputedStyle {
	if st, ok := c.styles[n]; ok {
		return st
	}
	return c.styles[c.rootKey]
}

func (c *buildContext) fontSizeOf(n *html.Node) float64 {
	if fs, ok := c.sizes[n]; ok {
		return fs
	}
	return style.BaseFontSize
}

// resolveFontSizes computes font sizes top-down so em and % sizes
// resolve against the parent.
func (c *buildContext) resolveFontSizes(n *html.Node, parentSize float64) {
	size := parentSize
	if n.Type == xhtml.ElementNode {
		if prop, ok := c.styleOf(n)["font-size"]; ok && !prop.Inherited {
			size = parseFontSize(prop.Value, parentSize)
		}
		c.sizes[n] = size
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.resolveFontSizes(ch, size)
	}
}

func parseFontSize(value string, parentSize float64) float64 {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "small":
		return 13
	case "medium":
		return 16
	case "large":
		return 18
	case "x-large":
		return 24
	case "smaller":
		return parentSize / 1.2
	case "larger":
		return parentSize * 1.2
	}
	if fs := parseLength(value, parentSize, parentSize, -1); fs > 0 {
		return fs
	}
	return parentSize
}

func (c *buildContext) fontOf(n *html.Node) text.Font {
	st := c.styleOf(n)
	weight := strings.ToLower(st.Get("font-weight", "normal"))
	return text.Font{
		Family: st.Get("font-family", ""),
		Size:   c.fontSizeOf(n),
		Bold:   weight == "bold" || weight == "bolder" || weight == "600" || weight == "700" || weight == "800" || weight == "900",
		Italic: strings.ToLower(st.Get("font-style", "")) == "italic",
	}
}

// lineHeightOf resolves line-height; unitless values scale the font size
func (c *buildContext) lineHeightOf(n *html.Node) float64 {
	fs := c.fontSizeOf(n)
	v := strings.TrimSpace(c.styleOf(n).Get("line-height", ""))
	if v == "" || v == "normal" {
		return 1.2 * fs
	}
	if lh := parseLength(v, fs, fs, -1); lh >= 0 {
		if strings.IndexFunc(v, func(r rune) bool { return r >= 'a' && r <= 'z' || r == '%' }) < 0 {
			return lh * fs
		}
		return lh
	}
	return 1.2 * fs
}

// measure returns the width of a single line of text. Latin-1 text uses the
// core font metrics; other scripts use the shaping approximation.
func (c *buildContext) measure(s string, font text.Font) float64 {
	if text.IsLatin1(s) {
		return measureTextWidth(s, font)
	}
	return c.shaper.MeasureText(s, font)
}

func (c *buildContext) hidden(n *html.Node) bool {
	if skippedTags[strings.ToLower(n.Data)] {
		return true
	}
	return strings.ToLower(c.styleOf(n).Get("display", "")) == "none"
}

func (c *buildContext) isBlockLevel(n *html.Node) bool {
	tag := strings.ToLower(n.Data)
	switch strings.ToLower(c.styleOf(n).Get("display", "")) {
	case "block", "list-item", "table", "table-row", "table-cell", "flex", "grid":
		return true
	case "inline", "inline-block":
		return false
	}
	return html.IsBlockTag(tag) || tableBlockTags[tag]
}

// buildBox creates the box of a block-level element
func (c *buildContext) buildBox(n *html.Node) Box {
	st := c.styleOf(n)
	if strings.ToLower(n.Data) == "img" {
		return &ImageBox{Node: n, Style: st, FontSize: c.fontSizeOf(n)}
	}
	box := NewBlockBox(n, st, c.fontSizeOf(n))
	box.Row = strings.ToLower(n.Data) == "tr" || st.Get("display", "") == "table-row"
	c.buildChildren(n, box)
	return box
}

// buildChildren groups the children of n into block boxes and anonymous
// inline boxes.
func (c *buildContext) buildChildren(n *html.Node, parent *BlockBox) {
	var run []*html.Node
	flush := func() {
		if visible(run) {
			parent.AddChild(NewInlineBox(run, parent.Style, c))
		}
		run = nil
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch ch.Type {
		case xhtml.TextNode:
			run = append(run, ch)
		case xhtml.ElementNode:
			if c.hidden(ch) {
				continue
			}
			if c.isBlockLevel(ch) {
				flush()
				parent.AddChild(c.buildBox(ch))
				continue
			}
			run = append(run, ch)
		}
	}
	flush()
}
