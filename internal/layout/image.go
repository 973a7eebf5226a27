package layout

import (
	"strconv"
	"strings"

	"github.com/dafterai/dafter/internal/parser/html"
	"github.com/dafterai/dafter/internal/res"
	"github.com/dafterai/dafter/internal/style"
)

// Size of an image whose dimensions cannot be determined
const (
	defaultImageWidth  = 300.0
	defaultImageHeight = 225.0
)

// ImageBox represents an <img> laid out as a block, for instance with
// display: block. Inline images are line tokens of their InlineBox.
type ImageBox struct {
	Node     *html.Node
	Style    style.ComputedStyle
	FontSize float64

	X      float64
	Y      float64
	Width  float64
	Height float64

	Margin Edges
	Border Edges

	containingWidth float64
}

// ResolveEdges sizes the image against the containing block
func (b *ImageBox) ResolveEdges(containingWidth float64) {
	b.containingWidth = containingWidth
	b.Margin = resolveEdges(b.Style, "margin", containingWidth, b.FontSize)
	b.Border = resolveBorders(b.Style, b.FontSize)
}

// Layout sizes the image from its attributes, CSS or encoded header
func (b *ImageBox) Layout(*Flow) {
	avail := b.containingWidth - b.Margin.Horizontal() - b.Border.Horizontal()
	b.Width, b.Height = imageSize(b.Node, b.Style, avail, b.FontSize)
	b.Height += b.Border.Vertical()
}

// imageSize returns the rendered size of an image. Without explicit
// dimensions it uses the intrinsic size of a data URL, then a default.
// Images never grow wider than the containing block.
func imageSize(n *html.Node, st style.ComputedStyle, containingWidth, fontSize float64) (float64, float64) {
	w := parseLength(st.Get("width", ""), containingWidth, fontSize, -1)
	h := parseLength(st.Get("height", ""), 0, fontSize, -1)
	if w < 0 {
		w = attrLength(n, "width")
	}
	if h < 0 {
		h = attrLength(n, "height")
	}

	iw, ih := intrinsicSize(n.GetAttr("src"))
	switch {
	case w >= 0 && h >= 0:
	case w >= 0:
		h = w * ih / iw
	case h >= 0:
		w = h * iw / ih
	default:
		w, h = iw, ih
	}

	maxWidth := parseLength(st.Get("max-width", "100%"), containingWidth, fontSize, containingWidth)
	if containingWidth > 0 && maxWidth > 0 && w > maxWidth {
		h *= maxWidth / w
		w = maxWidth
	}
	return w, h
}

func attrLength(n *html.Node, key string) float64 {
	v := strings.TrimSuffix(strings.TrimSpace(n.GetAttr(key)), "px")
	if v == "" {
		return -1
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return -1
	}
	return f
}

// intrinsicSize reads the pixel size of a data URL image
func intrinsicSize(src string) (float64, float64) {
	if strings.HasPrefix(src, "data:") {
		if r, err := res.ParseDataURL(src); err == nil {
			if cfg, _, err := res.ImageConfig(r.Data); err == nil && cfg.Width > 0 && cfg.Height > 0 {
				return float64(cfg.Width), float64(cfg.Height)
			}
		}
	}
	return defaultImageWidth, defaultImageHeight
}

func (b *ImageBox) GetY() float64            { return b.Y }
func (b *ImageBox) GetHeight() float64       { return b.Height }
func (b *ImageBox) GetMarginTop() float64    { return b.Margin.Top }
func (b *ImageBox) GetMarginBottom() float64 { return b.Margin.Bottom }
func (b *ImageBox) GetNode() *html.Node      { return b.Node }

func (b *ImageBox) SetPosition(x, y float64) {
	b.X = x + b.Margin.Right
	b.Y = y
}
