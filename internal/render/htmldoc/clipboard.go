package htmldoc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/parser/html"
	"github.com/dafterai/dafter/internal/style"
	xhtml "golang.org/x/net/html"
)

// Clip is a document prepared for the system clipboard
type Clip struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// clipProperties are copied onto elements as inline styles. Pasting targets
// drop stylesheets, so every visible rule has to travel on the element.
var clipProperties = map[string]bool{
	"color":            true,
	"background-color": true,
	"font-size":        true,
	"font-weight":      true,
	"font-style":       true,
	"line-height":      true,
	"text-align":       true,
	"margin":           true,
	"margin-top":       true,
	"margin-bottom":    true,
	"padding":          true,
	"padding-right":    true,
	"border":           true,
	"border-right":     true,
	"border-top":       true,
	"font-family":      true,
}

var varRef = regexp.MustCompile(`var\(\s*--([a-z-]+)\s*(?:,\s*([^)]*))?\)`)

// Clipboard renders doc as a rich-text fragment with inline styles and a
// plain-text alternative.
func Clipboard(doc document.Document) (Clip, error) {
	palette := doc.Brand.Palette()
	vars := map[string]string{
		"primary":   palette.Primary,
		"secondary": palette.Secondary,
		"accent":    palette.Accent,
		"page-bg":   palette.Background,
		"font":      doc.Brand.Font(),
	}
	engine := style.NewStyleEngine()
	root := style.RootStyle(doc.Brand)

	var rich, plain strings.Builder
	fmt.Fprintf(&rich, `<div dir="rtl" style="font-family: %s; font-size: %gpx; line-height: %g;">`,
		xhtml.EscapeString(doc.Brand.Font()), style.BaseFontSize, style.BaseLineHeight)

	for i, p := range doc.Pages.Pages() {
		if i > 0 {
			rich.WriteString(`<hr style="border: none; border-top: 1px solid #e5e7eb; margin: 24px 0;">`)
			plain.WriteString("\n\n")
		}
		fmt.Fprintf(&rich, `<h1 style="color: %s; font-size: 32px; margin: 0 0 20px 0;">%s</h1>`,
			palette.Primary, xhtml.EscapeString(p.Title))
		plain.WriteString(p.Title)
		plain.WriteString("\n\n")

		parsed, err := html.NewParser().ParseFragment(p.Content)
		if err != nil {
			return Clip{}, fmt.Errorf("failed to parse page %s: %w", p.ID, err)
		}
		styles := engine.ComputeStyles(parsed, root)
		for n, st := range styles {
			if n == parsed.Root {
				continue
			}
			if inline := inlineStyle(st, vars); inline != "" {
				setAttr(n, "style", inline)
			}
		}
		body, err := parsed.Render()
		if err != nil {
			return Clip{}, err
		}
		rich.WriteString(body)
		plain.WriteString(plainText(p.Content))
	}
	rich.WriteString(`</div>`)

	return Clip{HTML: rich.String(), Text: strings.TrimSpace(plain.String())}, nil
}

func inlineStyle(st style.ComputedStyle, vars map[string]string) string {
	names := make([]string, 0, len(st))
	for name, prop := range st {
		if clipProperties[name] && !prop.Inherited {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	decls := make([]string, 0, len(names))
	for _, name := range names {
		decls = append(decls, name+": "+resolveVars(st[name].Value, vars))
	}
	return strings.Join(decls, "; ")
}

// resolveVars substitutes theme custom properties, keeping the fallback of
// unknown ones.
func resolveVars(value string, vars map[string]string) string {
	return varRef.ReplaceAllStringFunc(value, func(m string) string {
		sub := varRef.FindStringSubmatch(m)
		if v, ok := vars[sub[1]]; ok {
			return v
		}
		return strings.TrimSpace(sub[2])
	})
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, xhtml.Attribute{Key: key, Val: val})
}

// plainText extracts readable text from page content: one line per block,
// list items prefixed with a bullet.
func plainText(content string) string {
	doc, err := html.NewParser().ParseFragment(content)
	if err != nil {
		return ""
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case xhtml.TextNode:
				b.WriteString(c.Data)
			case xhtml.ElementNode:
				switch c.Data {
				case "script", "style":
					continue
				case "br":
					b.WriteString("\n")
					continue
				case "li":
					b.WriteString("\n• ")
					walk(c)
					continue
				}
				block := html.IsBlockTag(c.Data)
				if block {
					b.WriteString("\n")
				}
				walk(c)
				if block {
					b.WriteString("\n")
				}
			}
		}
	}
	walk(doc.Root)

	var lines []string
	for _, l := range strings.Split(b.String(), "\n") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}
