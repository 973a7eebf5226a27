package layout

import (
	"math"
	"strings"
	"unicode"

	"github.com/dafterai/dafter/internal/parser/html"
	"github.com/dafterai/dafter/internal/style"
	"github.com/dafterai/dafter/internal/text"
	xhtml "golang.org/x/net/html"
)

// InlineBox is an anonymous box holding a run of inline content: the text
// and inline elements between two blocks. Layout wraps it into lines.
type InlineBox struct {
	Nodes []*html.Node
	// Style is the style of the containing block
	Style style.ComputedStyle

	X      float64
	Y      float64
	Width  float64
	Height float64
	// Lines is the number of line boxes after layout
	Lines int

	ctx *buildContext
}

// NewInlineBox creates an inline box over consecutive sibling nodes
func NewInlineBox(nodes []*html.Node, containing style.ComputedStyle, ctx *buildContext) *InlineBox {
	return &InlineBox{Nodes: nodes, Style: containing, ctx: ctx}
}

// ResolveEdges takes the full containing width; anonymous boxes have no edges
func (b *InlineBox) ResolveEdges(containingWidth float64) {
	b.Width = containingWidth
}

// inlineRun represents a contiguous text run with a specific style
type inlineRun struct {
	text       string
	font       text.Font
	lineHeight float64
	whiteSpace string
	// brk is a forced line break
	brk bool
	// image is a replaced element of the given size
	image         bool
	width, height float64
}

// lineToken is a unit of line breaking: a word, a space or a break
type lineToken struct {
	width      float64
	lineHeight float64
	space      bool
	brk        bool
}

// Layout wraps the runs into line boxes at the available width. Lines
// beside the floated page image are shorter.
func (b *InlineBox) Layout(f *Flow) {
	tokens := b.tokens(b.collect())

	y := b.Y
	lines := 0
	lineWidth, lineHeight := 0.0, 0.0
	pendingSpace := -1.0
	avail := f.Available(b.X, y, b.Width)

	emitLine := func(minHeight float64) {
		y += math.Max(lineHeight, minHeight)
		lines++
		lineWidth, lineHeight, pendingSpace = 0, 0, -1
		avail = f.Available(b.X, y, b.Width)
	}

	for _, tk := range tokens {
		switch {
		case tk.brk:
			emitLine(tk.lineHeight)
		case tk.space:
			if lineWidth > 0 {
				pendingSpace = tk.width
			}
		default:
			advance := tk.width
			if pendingSpace > 0 {
				advance += pendingSpace
			}
			if lineWidth > 0 && lineWidth+advance > avail {
				emitLine(0)
				advance = tk.width
			}
			lineWidth += advance
			lineHeight = math.Max(lineHeight, tk.lineHeight)
			pendingSpace = -1
		}
	}
	if lineWidth > 0 {
		emitLine(0)
	}

	b.Lines = lines
	b.Height = y - b.Y
}

// tokens measures the runs and splits them into line-breaking units.
// Pieces of one word spread over several runs are glued together.
func (b *InlineBox) tokens(runs []inlineRun) []lineToken {
	var out []lineToken
	lastWord := func() *lineToken {
		if n := len(out); n > 0 && !out[n-1].space && !out[n-1].brk {
			return &out[n-1]
		}
		return nil
	}
	addWord := func(width, lh float64, glue bool) {
		if prev := lastWord(); glue && prev != nil {
			prev.width += width
			prev.lineHeight = math.Max(prev.lineHeight, lh)
			return
		}
		out = append(out, lineToken{width: width, lineHeight: lh})
	}

	for _, run := range runs {
		switch {
		case run.brk:
			out = append(out, lineToken{brk: true, lineHeight: run.lineHeight})
			continue
		case run.image:
			out = append(out, lineToken{width: run.width, lineHeight: math.Max(run.height, 0)})
			continue
		}

		preserveBreaks := run.whiteSpace == "pre" || run.whiteSpace == "pre-wrap" || run.whiteSpace == "pre-line"
		pieces := []string{run.text}
		if preserveBreaks {
			pieces = strings.Split(run.text, "\n")
		}
		for i, piece := range pieces {
			if i > 0 {
				out = append(out, lineToken{brk: true, lineHeight: run.lineHeight})
			}
			if run.whiteSpace == "pre" {
				if piece != "" {
					addWord(b.ctx.measure(piece, run.font), run.lineHeight, false)
				}
				continue
			}
			glue := true
			for _, tok := range splitTokens(piece) {
				if isAllSpace(tok) {
					out = append(out, lineToken{space: true, width: b.ctx.measure(" ", run.font), lineHeight: run.lineHeight})
					glue = false
					continue
				}
				addWord(b.ctx.measure(tok, run.font), run.lineHeight, glue)
				glue = false
			}
		}
	}
	return out
}

// collect walks the nodes and returns their text runs in order
func (b *InlineBox) collect() []inlineRun {
	var runs []inlineRun
	for _, n := range b.Nodes {
		b.collectInlineRuns(n, &runs)
	}
	return runs
}

// collectInlineRuns traverses a node, collecting text with its computed font
func (b *InlineBox) collectInlineRuns(n *html.Node, out *[]inlineRun) {
	switch n.Type {
	case xhtml.TextNode:
		st := b.ctx.styleOf(n.Parent)
		ws := strings.ToLower(st.Get("white-space", "normal"))
		txt := n.Data
		if ws != "pre" && ws != "pre-wrap" {
			txt = normalizeWhitespace(txt)
		}
		if txt == "" {
			return
		}
		*out = append(*out, inlineRun{
			text:       txt,
			font:       b.ctx.fontOf(n.Parent),
			lineHeight: b.ctx.lineHeightOf(n.Parent),
			whiteSpace: ws,
		})
	case xhtml.ElementNode:
		if b.ctx.hidden(n) {
			return
		}
		switch strings.ToLower(n.Data) {
		case "br":
			*out = append(*out, inlineRun{brk: true, lineHeight: b.ctx.lineHeightOf(n)})
			return
		case "img":
			w, h := imageSize(n, b.ctx.styleOf(n), b.Width, b.ctx.fontSizeOf(n))
			*out = append(*out, inlineRun{image: true, width: w, height: h})
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			b.collectInlineRuns(c, out)
		}
	}
}

// visible reports whether nodes render anything that takes a line
func visible(nodes []*html.Node) bool {
	for _, n := range nodes {
		switch n.Type {
		case xhtml.TextNode:
			if !isAllSpace(n.Data) {
				return true
			}
		case xhtml.ElementNode:
			tag := strings.ToLower(n.Data)
			if tag == "br" || tag == "img" {
				return true
			}
			var children []*html.Node
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				children = append(children, c)
			}
			if visible(children) {
				return true
			}
		}
	}
	return false
}

// GetY returns the y position of the box
func (b *InlineBox) GetY() float64 { return b.Y }

// GetHeight returns the total height of the line boxes
func (b *InlineBox) GetHeight() float64 { return b.Height }

// GetMarginTop returns 0; anonymous boxes have no margins
func (b *InlineBox) GetMarginTop() float64 { return 0 }

// GetMarginBottom returns 0; anonymous boxes have no margins
func (b *InlineBox) GetMarginBottom() float64 { return 0 }

// SetPosition sets the position of the box
func (b *InlineBox) SetPosition(x, y float64) {
	b.X = x
	b.Y = y
}

// GetNode returns the first node of the run
func (b *InlineBox) GetNode() *html.Node {
	if len(b.Nodes) == 0 {
		return nil
	}
	return b.Nodes[0]
}

// splitTokens splits text into words and single spaces
func splitTokens(s string) []string {
	var tokens []string
	var cur strings.Builder
	curSpace := false
	for _, r := range s {
		isSp := unicode.IsSpace(r)
		if cur.Len() > 0 && isSp != curSpace {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
		curSpace = isSp
		if isSp {
			if cur.Len() == 0 {
				cur.WriteByte(' ')
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func isAllSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// normalizeWhitespace collapses runs of whitespace into a single space.
// Unlike strings.TrimSpace, it keeps a leading or trailing space.
func normalizeWhitespace(s string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteByte(' ')
			}
			lastWasSpace = true
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return b.String()
}
