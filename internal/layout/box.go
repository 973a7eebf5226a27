package layout

import (
	"math"
	"strconv"
	"strings"

	"github.com/dafterai/dafter/internal/parser/html"
	"github.com/dafterai/dafter/internal/style"
)

// Box is one laid out part of a page body.
//
// Positions are in px relative to the content container. X is the inset
// from the start edge, the side the page image floats on; Y grows downward.
type Box interface {
	// ResolveEdges computes margins, borders and padding against the
	// width of the containing block. It is called before SetPosition.
	ResolveEdges(containingWidth float64)
	// Layout lays the box out inside the flow
	Layout(f *Flow)
	GetY() float64
	GetHeight() float64
	GetMarginTop() float64
	GetMarginBottom() float64
	// SetPosition places the box: x is the inset of its margin box,
	// y the top of its border box.
	SetPosition(x, y float64)
	GetNode() *html.Node
}

// Edges holds the four sides of a margin, border or padding
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Horizontal returns the sum of the left and right sides
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns the sum of the top and bottom sides
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// FloatBox is the page image floated at the start of the content container
type FloatBox struct {
	Width  float64
	Height float64
	// Gap separates the float from the text beside it
	Gap float64
	// Below is the margin under the float
	Below float64
}

// Bottom returns the y below which lines use the full width again
func (f FloatBox) Bottom() float64 {
	if f.Height <= 0 {
		return 0
	}
	return f.Height + f.Below
}

// Flow is the formatting context of a page body
type Flow struct {
	// Width is the content width of the container
	Width float64
	Float FloatBox
}

// Available returns the width left for a line starting at y in a box of
// width w whose content starts x px from the float side.
func (f *Flow) Available(x, y, w float64) float64 {
	if y >= f.Float.Bottom() {
		return w
	}
	intrusion := f.Float.Width + f.Float.Gap - x
	if intrusion <= 0 {
		return w
	}
	return math.Max(0, w-intrusion)
}

// Units converting to CSS px at 96 DPI
const (
	pxPerPt = 96.0 / 72.0
	pxPerIn = 96.0
	pxPerCm = 96.0 / 2.54
	pxPerMm = 96.0 / 25.4
)

// parseLength parses a CSS length. Percentages resolve against
// containerSize and em against fontSize.
func parseLength(value string, containerSize, fontSize, defaultValue float64) float64 {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == "auto" || v == "normal" || strings.HasPrefix(v, "var(") || strings.HasPrefix(v, "calc(") {
		return defaultValue
	}
	if fontSize <= 0 {
		fontSize = style.BaseFontSize
	}

	units := []struct {
		suffix string
		scale  float64
	}{
		{"rem", style.BaseFontSize},
		{"px", 1},
		{"em", fontSize},
		{"pt", pxPerPt},
		{"mm", pxPerMm},
		{"cm", pxPerCm},
		{"in", pxPerIn},
		{"%", containerSize / 100},
	}
	for _, u := range units {
		if strings.HasSuffix(v, u.suffix) {
			n, err := strconv.ParseFloat(strings.TrimSpace(v[:len(v)-len(u.suffix)]), 64)
			if err != nil {
				return defaultValue
			}
			return n * u.scale
		}
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

// parseBoxShorthand parses CSS shorthand like:
//   - "10px"
//   - "10px 20px"
//   - "10px 15px 8px"
//   - "10px 12px 8px 6px"
//
// and returns the sides.
func parseBoxShorthand(value string, containerSize, fontSize float64) Edges {
	parts := strings.Fields(value)
	to := func(s string) float64 { return parseLength(s, containerSize, fontSize, 0) }
	switch len(parts) {
	case 0:
		return Edges{}
	case 1:
		a := to(parts[0])
		return Edges{a, a, a, a}
	case 2:
		vtb, vrl := to(parts[0]), to(parts[1])
		return Edges{vtb, vrl, vtb, vrl}
	case 3:
		r := to(parts[1])
		return Edges{to(parts[0]), r, to(parts[2]), r}
	default:
		return Edges{to(parts[0]), to(parts[1]), to(parts[2]), to(parts[3])}
	}
}

// resolveEdges reads a margin or padding shorthand and its per-side
// longhands. Longhands override the shorthand.
func resolveEdges(st style.ComputedStyle, prop string, containerSize, fontSize float64) Edges {
	e := parseBoxShorthand(st.Get(prop, ""), containerSize, fontSize)
	side := func(name string, cur float64) float64 {
		return parseLength(st.Get(prop+"-"+name, ""), containerSize, fontSize, cur)
	}
	e.Top = side("top", e.Top)
	e.Right = side("right", e.Right)
	e.Bottom = side("bottom", e.Bottom)
	e.Left = side("left", e.Left)
	return e
}

// borderWidth extracts the width from a border value like "4px solid red"
func borderWidth(value string, fontSize float64) (float64, bool) {
	for _, part := range strings.Fields(strings.ToLower(value)) {
		switch part {
		case "none", "hidden":
			return 0, true
		case "thin":
			return 1, true
		case "medium":
			return 3, true
		case "thick":
			return 5, true
		}
		if w := parseLength(part, 0, fontSize, -1); w >= 0 {
			return w, true
		}
	}
	if strings.TrimSpace(value) != "" {
		// A style without a width draws a medium border
		return 3, true
	}
	return 0, false
}

// resolveBorders reads border, border-<side> and border-<side>-width
func resolveBorders(st style.ComputedStyle, fontSize float64) Edges {
	var e Edges
	if w, ok := borderWidth(st.Get("border", ""), fontSize); ok {
		e = Edges{w, w, w, w}
	}
	if v := st.Get("border-width", ""); v != "" {
		e = parseBoxShorthand(v, 0, fontSize)
	}
	side := func(name string, cur float64) float64 {
		if w, ok := borderWidth(st.Get("border-"+name, ""), fontSize); ok {
			cur = w
		}
		return parseLength(st.Get("border-"+name+"-width", ""), 0, fontSize, cur)
	}
	e.Top = side("top", e.Top)
	e.Right = side("right", e.Right)
	e.Bottom = side("bottom", e.Bottom)
	e.Left = side("left", e.Left)
	return e
}
