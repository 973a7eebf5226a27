package layout

import (
	"math"

	"github.com/dafterai/dafter/internal/parser/html"
	"github.com/dafterai/dafter/internal/style"
)

// BlockBox represents a block-level box in the layout
type BlockBox struct {
	Node     *html.Node
	Style    style.ComputedStyle
	FontSize float64

	X      float64
	Y      float64
	Width  float64
	Height float64

	Margin  Edges
	Border  Edges
	Padding Edges

	// Row lays children side by side, as table cells
	Row      bool
	Children []Box
}

// NewBlockBox creates a new block box for an element
func NewBlockBox(node *html.Node, computedStyle style.ComputedStyle, fontSize float64) *BlockBox {
	return &BlockBox{
		Node:     node,
		Style:    computedStyle,
		FontSize: fontSize,
		Children: []Box{},
	}
}

// ResolveEdges parses margin, padding, and border properties
func (b *BlockBox) ResolveEdges(containingWidth float64) {
	b.Margin = resolveEdges(b.Style, "margin", containingWidth, b.FontSize)
	b.Padding = resolveEdges(b.Style, "padding", containingWidth, b.FontSize)
	b.Border = resolveBorders(b.Style, b.FontSize)

	inner := containingWidth - b.Margin.Horizontal() - b.Border.Horizontal() - b.Padding.Horizontal()
	if w := parseLength(b.Style.Get("width", ""), containingWidth, b.FontSize, -1); w >= 0 {
		inner = w
	}
	if mw := parseLength(b.Style.Get("max-width", ""), containingWidth, b.FontSize, -1); mw >= 0 {
		inner = math.Min(inner, mw)
	}
	b.Width = math.Max(0, inner)
}

// SetPosition sets the position of the box
func (b *BlockBox) SetPosition(x, y float64) {
	b.X = x + b.Margin.Right
	b.Y = y
}

// contentX is the inset of the content box from the float side
func (b *BlockBox) contentX() float64 {
	return b.X + b.Border.Right + b.Padding.Right
}

func (b *BlockBox) contentY() float64 {
	return b.Y + b.Border.Top + b.Padding.Top
}

// Layout performs layout for this block box and its children
func (b *BlockBox) Layout(f *Flow) {
	var content float64
	if b.Row {
		content = b.layoutRow(f)
	} else {
		content = b.layoutChildren(f)
	}
	b.calculateHeight(content)
}

// layoutChildren stacks children vertically, collapsing the margins of
// adjacent siblings, and returns the content height.
func (b *BlockBox) layoutChildren(f *Flow) float64 {
	top := b.contentY()
	y := top
	prevBottom := 0.0
	for i, child := range b.Children {
		child.ResolveEdges(b.Width)
		gap := child.GetMarginTop()
		if i > 0 {
			gap = math.Max(prevBottom, gap)
		}
		y += gap
		child.SetPosition(b.contentX(), y)
		child.Layout(f)
		y += child.GetHeight()
		prevBottom = child.GetMarginBottom()
	}
	if len(b.Children) > 0 {
		y += prevBottom
	}
	return y - top
}

// layoutRow shares the width equally among the cells and returns the
// height of the tallest one.
func (b *BlockBox) layoutRow(f *Flow) float64 {
	if len(b.Children) == 0 {
		return 0
	}
	cellWidth := b.Width / float64(len(b.Children))
	tallest := 0.0
	for i, cell := range b.Children {
		cell.ResolveEdges(cellWidth)
		cell.SetPosition(b.contentX()+float64(i)*cellWidth, b.contentY()+cell.GetMarginTop())
		cell.Layout(f)
		tallest = math.Max(tallest, cell.GetMarginTop()+cell.GetHeight()+cell.GetMarginBottom())
	}
	return tallest
}

// calculateHeight sets the border-box height from the content height
func (b *BlockBox) calculateHeight(content float64) {
	if h := parseLength(b.Style.Get("height", ""), 0, b.FontSize, -1); h >= 0 {
		content = h
	}
	if mh := parseLength(b.Style.Get("min-height", ""), 0, b.FontSize, -1); mh > content {
		content = mh
	}
	b.Height = content + b.Padding.Vertical() + b.Border.Vertical()
}

// GetY returns the y position of the box
func (b *BlockBox) GetY() float64 {
	return b.Y
}

// GetHeight returns the border-box height of the box
func (b *BlockBox) GetHeight() float64 {
	return b.Height
}

// GetMarginTop returns the top margin of the box
func (b *BlockBox) GetMarginTop() float64 {
	return b.Margin.Top
}

// GetMarginBottom returns the bottom margin of the box
func (b *BlockBox) GetMarginBottom() float64 {
	return b.Margin.Bottom
}

// AddChild adds a child box
func (b *BlockBox) AddChild(child Box) {
	b.Children = append(b.Children, child)
}

// GetNode returns the HTML node associated with this box
func (b *BlockBox) GetNode() *html.Node {
	return b.Node
}
