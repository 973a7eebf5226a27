package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/res"
	"github.com/dafterai/dafter/internal/style"
	"github.com/dafterai/dafter/internal/text"
)

// Print geometry in millimetres
const (
	headerHeight = 14.0
	footerHeight = 10.0
	ptToMM       = 25.4 / 72
	pxToPt       = 0.75
)

// headingPx mirrors the heading sizes of the notebook stylesheet
var headingPx = map[int]float64{1: 32, 2: 28, 3: 22, 4: 19, 5: 18, 6: 18}

// Renderer prints a document as an A4 PDF, one sheet or more per page
type Renderer struct {
	// FontPath locates a TrueType font with Arabic glyphs, as a file path or
	// URL. Without it text is set in the core fonts, which only cover Latin-1.
	FontPath string
	// FontData takes precedence over FontPath
	FontData []byte
	// Debug enables verbose logging
	Debug bool

	loader *res.Loader
	logger *slog.Logger
}

// RenderOptions contains options for rendering
type RenderOptions struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
}

// NewRenderer creates a new PDF renderer loading images through loader
func NewRenderer(loader *res.Loader) *Renderer {
	if loader == nil {
		loader = res.NewLoader("")
	}
	return &Renderer{
		loader: loader,
		logger: slog.Default(),
	}
}

// SetLogger sets the logger used for warnings and debug output
func (r *Renderer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// fontSet is the face text is printed in
type fontSet struct {
	family string
	utf8   bool
	tr     func(string) string
}

func (fs fontSet) text(s string) string {
	if fs.utf8 || fs.tr == nil {
		return s
	}
	return fs.tr(s)
}

// printer holds the state of one render
type printer struct {
	r       *Renderer
	ctx     context.Context
	pdf     *fpdf.Fpdf
	doc     document.Document
	font    fontSet
	palette document.Theme
	images  map[string]string
}

// Render writes the document as PDF to w
func (r *Renderer) Render(ctx context.Context, doc document.Document, w io.Writer, options RenderOptions) error {
	layout := doc.Layout
	pdf := fpdf.New("P", "mm", "A4", "")
	top := headerHeight + math.Max(0, layout.HeaderTopGap) + math.Max(0, layout.HeaderContentGap)
	pdf.SetMargins(math.Max(0, layout.MarginLeft), top, math.Max(0, layout.MarginRight))
	pdf.SetAutoPageBreak(true, math.Max(0, layout.MarginBottom)+footerHeight)

	if options.Title == "" {
		options.Title = doc.Title
	}
	pdf.SetTitle(options.Title, true)
	pdf.SetAuthor(options.Author, true)
	pdf.SetSubject(options.Subject, true)
	pdf.SetKeywords(options.Keywords, true)
	pdf.SetCreator(options.Creator, true)
	pdf.SetProducer(options.Producer, true)
	pdf.AliasNbPages("{nb}")

	p := &printer{
		r:       r,
		ctx:     ctx,
		pdf:     pdf,
		doc:     doc,
		font:    r.registerFonts(ctx, pdf),
		palette: doc.Brand.Palette(),
		images:  make(map[string]string),
	}

	// fpdf runs the footer of a sheet inside the next AddPage, after the
	// page being added is known, so the header promotes next to current.
	var current, next document.Page
	pdf.SetHeaderFunc(func() {
		current = next
		p.header(current)
	})
	pdf.SetFooterFunc(func() {
		p.footer(current)
	})

	for _, page := range doc.Pages.Pages() {
		if err := ctx.Err(); err != nil {
			return err
		}
		next = page
		pdf.AddPage()
		pdf.Bookmark(page.Title, 0, -1)
		if page.IsCover {
			p.cover(page)
		} else {
			p.content(page)
		}
		if pdf.Err() {
			return fmt.Errorf("failed to render page %s: %w", page.ID, pdf.Error())
		}
	}
	if doc.Pages.Len() == 0 {
		pdf.AddPage()
	}
	if r.Debug {
		r.logger.Debug("rendered pdf", "pages", doc.Pages.Len(), "sheets", pdf.PageNo())
	}
	return pdf.Output(w)
}

// RenderFile renders the document to a PDF file, creating its directory
func (r *Renderer) RenderFile(ctx context.Context, doc document.Document, outputPath string, options RenderOptions) error {
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := r.Render(ctx, doc, &buf, options); err != nil {
		return err
	}
	return os.WriteFile(outputPath, buf.Bytes(), 0o644)
}

// registerFonts loads the UTF-8 font when one is configured
func (r *Renderer) registerFonts(ctx context.Context, pdf *fpdf.Fpdf) fontSet {
	data := r.FontData
	if len(data) == 0 && r.FontPath != "" {
		font, err := r.loader.LoadFont(ctx, r.FontPath)
		if err != nil {
			r.logger.Warn("failed to load font, using core fonts", "font", r.FontPath, "error", err)
		} else {
			data = font.Data
		}
	}
	if len(data) > 0 {
		pdf.AddUTF8FontFromBytes("notebook", "", data)
		pdf.AddUTF8FontFromBytes("notebook", "B", data)
		if !pdf.Err() {
			return fontSet{family: "notebook", utf8: true}
		}
		r.logger.Warn("failed to register font, using core fonts", "error", pdf.Error())
		pdf.ClearError()
	}
	return fontSet{family: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (p *printer) setFont(bold bool, px float64) {
	styleStr := ""
	if bold {
		styleStr = "B"
	}
	p.pdf.SetFont(p.font.family, styleStr, px*pxToPt)
}

func (p *printer) setTextColor(css string) {
	c := parseColor(css)
	p.pdf.SetTextColor(c[0], c[1], c[2])
}

// lineHeight returns the line height in mm for a px font size
func lineHeight(px, factor float64) float64 {
	return px * pxToPt * factor * ptToMM
}

// write prints a paragraph at the current position. Right-to-left text is
// right aligned and, with a UTF-8 font, set in RTL mode.
func (p *printer) write(s string, px, factor float64, indent float64) {
	rtl := text.IsRTL(s)
	align := "L"
	if rtl {
		align = "R"
	}
	left, _, right, _ := p.pdf.GetMargins()
	pageW, _ := p.pdf.GetPageSize()
	width := pageW - left - right - indent
	x := left
	if !rtl {
		x += indent
	}
	if rtl && p.font.utf8 {
		p.pdf.RTL()
		defer p.pdf.LTR()
	}
	p.pdf.SetX(x)
	p.pdf.MultiCell(width, lineHeight(px, factor), p.font.text(s), "", align, false)
}

func (p *printer) header(page document.Page) {
	pdf := p.pdf
	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	y := 6 + math.Max(0, p.doc.Layout.HeaderTopGap)

	pdf.SetY(y)
	p.setFont(true, 14)
	p.setTextColor(p.palette.Primary)
	pdf.SetX(left)
	pdf.CellFormat(pageW-left-right, 6, p.font.text(p.doc.Brand.Footer()), "", 0, "R", false, 0, "")
	if !page.IsCover {
		p.setFont(false, 12)
		p.setTextColor("#6b7280")
		pdf.SetX(left)
		pdf.CellFormat(pageW-left-right, 6, p.font.text(page.Title), "", 0, "L", false, 0, "")
	}

	c := parseColor(p.palette.Accent)
	pdf.SetDrawColor(c[0], c[1], c[2])
	pdf.SetLineWidth(0.6)
	pdf.Line(left, y+7, pageW-right, y+7)

	_, top, _, _ := pdf.GetMargins()
	pdf.SetY(top)
	pdf.SetTextColor(0, 0, 0)
}

func (p *printer) footer(page document.Page) {
	pdf := p.pdf
	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	pdf.SetY(-(math.Max(0, p.doc.Layout.MarginBottom) + footerHeight - 2))
	p.setFont(false, 11)
	p.setTextColor("#6b7280")
	footer := page.Footer
	if footer == "" {
		footer = p.doc.Brand.Footer()
	}
	w := pageW - left - right
	pdf.SetX(left)
	pdf.CellFormat(w, 5, p.font.text(footer), "", 0, "R", false, 0, "")
	pdf.SetX(left)
	pdf.CellFormat(w, 5, strconv.Itoa(pdf.PageNo())+" / {nb}", "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// cover centres the title and the content vertically
func (p *printer) cover(page document.Page) {
	pdf := p.pdf
	_, pageH := pdf.GetPageSize()
	pdf.SetY(pageH * 0.32)
	p.setFont(true, 40)
	p.setTextColor(p.palette.Primary)
	p.centered(page.Title, 40, 1.4)
	pdf.Ln(6)

	items, err := flatten(page.Content)
	if err != nil {
		p.r.logger.Warn("failed to parse cover content", "page", page.ID, "error", err)
		return
	}
	pdf.SetTextColor(0, 0, 0)
	for _, it := range items {
		switch it.kind {
		case itemHeading:
			p.setFont(true, headingPx[it.level])
			p.setTextColor(p.palette.Secondary)
			p.centered(it.text, headingPx[it.level], 1.4)
			pdf.SetTextColor(0, 0, 0)
		case itemImage:
			p.item(it)
		default:
			p.setFont(false, style.BaseFontSize)
			p.centered(it.text, style.BaseFontSize, style.BaseLineHeight)
		}
		pdf.Ln(2)
	}
}

func (p *printer) centered(s string, px, factor float64) {
	if p.font.utf8 && text.IsRTL(s) {
		p.pdf.RTL()
		defer p.pdf.LTR()
	}
	left, _, _, _ := p.pdf.GetMargins()
	p.pdf.SetX(left)
	p.pdf.MultiCell(0, lineHeight(px, factor), p.font.text(s), "", "C", false)
}

// content prints the page title, the floated image and the body
func (p *printer) content(page document.Page) {
	pdf := p.pdf
	p.setFont(true, headingPx[1])
	p.setTextColor(p.palette.Primary)
	p.write(page.Title, headingPx[1], 1.4, 0)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(3)

	if strings.TrimSpace(page.ImageURL) != "" {
		left, _, right, _ := pdf.GetMargins()
		pageW, _ := pdf.GetPageSize()
		w := (pageW - left - right) * 0.3
		y := pdf.GetY()
		if h, ok := p.image(page.ImageURL, pageW-right-w, y, w, w*4/3); ok {
			pdf.SetY(y + h + 4)
		}
	}

	items, err := flatten(page.Content)
	if err != nil {
		p.r.logger.Warn("failed to parse page content", "page", page.ID, "error", err)
		return
	}
	for _, it := range items {
		p.item(it)
	}
}

func (p *printer) item(it item) {
	pdf := p.pdf
	left, _, right, _ := pdf.GetMargins()
	pageW, pageH := pdf.GetPageSize()
	width := pageW - left - right

	switch it.kind {
	case itemHeading:
		px := headingPx[it.level]
		color := "#111827"
		switch it.level {
		case 2:
			color = p.palette.Primary
		case 3:
			color = p.palette.Secondary
		}
		pdf.Ln(2)
		p.setFont(true, px)
		p.setTextColor(color)
		p.write(it.text, px, 1.4, 0)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	case itemParagraph:
		p.setFont(false, style.BaseFontSize)
		p.write(it.text, style.BaseFontSize, style.BaseLineHeight, 0)
		pdf.Ln(2)
	case itemListItem:
		p.setFont(false, style.BaseFontSize)
		line := it.text
		if it.marker != "" {
			line = it.marker + " " + line
		}
		p.write(line, style.BaseFontSize, style.BaseLineHeight, 7*float64(max(it.level, 1)))
		pdf.Ln(1)
	case itemQuote:
		y := pdf.GetY()
		p.setFont(false, 16)
		p.write(it.text, 16, 1.8, 5)
		c := parseColor(p.palette.Accent)
		pdf.SetFillColor(c[0], c[1], c[2])
		if end := pdf.GetY(); end > y {
			if text.IsRTL(it.text) {
				pdf.Rect(pageW-right-1.2, y, 1.2, end-y, "F")
			} else {
				pdf.Rect(left, y, 1.2, end-y, "F")
			}
		}
		pdf.Ln(2)
	case itemPre:
		pdf.SetFont("Courier", "", 15*pxToPt)
		pdf.SetX(left)
		pdf.MultiCell(0, lineHeight(15, 1.5), p.font.text(it.text), "", "L", false)
		pdf.Ln(2)
	case itemRule:
		pdf.Ln(3)
		pdf.SetDrawColor(229, 231, 235)
		pdf.SetLineWidth(0.3)
		pdf.Line(left, pdf.GetY(), pageW-right, pdf.GetY())
		pdf.Ln(3)
	case itemImage:
		y := pdf.GetY()
		_, _, _, bottom := pdf.GetMargins()
		maxH := pageH - bottom - y
		if h, ok := p.image(it.src, left, y, width, maxH); ok {
			pdf.SetY(y + h + 3)
		}
	}
}

// image places an image at x, y scaled to fit w by maxH and returns the
// printed height. Images that cannot be loaded are skipped.
func (p *printer) image(src string, x, y, w, maxH float64) (float64, bool) {
	name, ok := p.images[src]
	var info *fpdf.ImageInfoType
	if ok {
		info = p.pdf.GetImageInfo(name)
	} else {
		resource, err := p.r.loader.LoadImage(p.ctx, src)
		if err != nil {
			p.r.logger.Warn("failed to load image", "error", err)
			return 0, false
		}
		data, kind, err := res.ToPNG(resource.Data)
		if err != nil {
			p.r.logger.Warn("failed to decode image", "error", err)
			return 0, false
		}
		name = fmt.Sprintf("img%d", len(p.images)+1)
		info = p.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: kind}, bytes.NewReader(data))
		if p.pdf.Err() || info == nil {
			p.r.logger.Warn("failed to embed image", "error", p.pdf.Error())
			p.pdf.ClearError()
			return 0, false
		}
		p.images[src] = name
	}
	if info == nil || info.Width() <= 0 {
		return 0, false
	}

	h := w * info.Height() / info.Width()
	if maxH > 0 && h > maxH {
		w = w * maxH / h
		h = maxH
	}
	p.pdf.ImageOptions(name, x, y, w, h, false, fpdf.ImageOptions{}, 0, "")
	return h, true
}

// parseColor parses a CSS color value
func parseColor(value string) [3]int {
	if strings.HasPrefix(value, "#") {
		if r, g, b, ok := parseHexColor(value); ok {
			return [3]int{r, g, b}
		}
	}

	var r, g, b int
	if _, err := fmt.Sscanf(value, "rgb(%d,%d,%d)", &r, &g, &b); err == nil {
		return [3]int{r, g, b}
	}
	if _, err := fmt.Sscanf(value, "rgb(%d, %d, %d)", &r, &g, &b); err == nil {
		return [3]int{r, g, b}
	}

	return [3]int{0, 0, 0}
}

// parseHexColor parses #RRGGBB or #RGB into r,g,b
func parseHexColor(s string) (int, int, int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
