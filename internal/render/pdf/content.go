package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dafterai/dafter/internal/parser/html"
	xhtml "golang.org/x/net/html"
)

// itemKind is the print treatment of one piece of page content
type itemKind int

const (
	itemParagraph itemKind = iota
	itemHeading
	itemListItem
	itemQuote
	itemRule
	itemImage
	itemPre
)

// item is one printable unit flattened out of page HTML
type item struct {
	kind   itemKind
	text   string
	level  int
	marker string
	src    string
}

// listContext represents an active list (ul/ol) while flattening
type listContext struct {
	kind    string // "ul" or "ol"
	style   string // list-style-type
	counter int
}

// flatten turns page content into printable items in document order
func flatten(content string) ([]item, error) {
	doc, err := html.NewParser().ParseFragment(content)
	if err != nil {
		return nil, err
	}
	f := &flattener{}
	f.walk(doc.Root)
	f.flushInline()
	return f.items, nil
}

type flattener struct {
	items  []item
	lists  []listContext
	inline strings.Builder
	quote  int
}

func (f *flattener) emit(it item) {
	it.text = collapse(it.text)
	if it.kind != itemRule && it.kind != itemImage && it.text == "" {
		return
	}
	f.items = append(f.items, it)
}

func (f *flattener) flushInline() {
	if f.inline.Len() == 0 {
		return
	}
	kind := itemParagraph
	if f.quote > 0 {
		kind = itemQuote
	}
	f.emit(item{kind: kind, text: f.inline.String()})
	f.inline.Reset()
}

func (f *flattener) walk(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xhtml.TextNode:
			f.inline.WriteString(strings.ReplaceAll(c.Data, "\n", " "))
		case xhtml.ElementNode:
			f.element(c)
		}
	}
}

func (f *flattener) element(n *html.Node) {
	tag := strings.ToLower(n.Data)
	switch tag {
	case "script", "style", "template":
		return
	case "br":
		f.inline.WriteString("\n")
		return
	case "h1", "h2", "h3", "h4", "h5", "h6":
		f.flushInline()
		level, _ := strconv.Atoi(tag[1:])
		f.emit(item{kind: itemHeading, level: level, text: n.Text()})
		return
	case "hr":
		f.flushInline()
		f.emit(item{kind: itemRule})
		return
	case "img":
		f.flushInline()
		f.emit(item{kind: itemImage, src: n.GetAttr("src")})
		return
	case "pre":
		f.flushInline()
		f.items = append(f.items, item{kind: itemPre, text: strings.Trim(n.Text(), "\n")})
		return
	case "ul", "ol":
		f.flushInline()
		lc := listContext{kind: tag, style: strings.ToLower(listStyle(n))}
		if lc.style == "" {
			lc.style = map[string]string{"ul": "disc", "ol": "decimal"}[tag]
		}
		f.lists = append(f.lists, lc)
		f.walk(n)
		f.lists = f.lists[:len(f.lists)-1]
		return
	case "li":
		f.flushInline()
		marker := "•"
		if len(f.lists) > 0 {
			lc := &f.lists[len(f.lists)-1]
			lc.counter++
			marker = listMarker(*lc)
		}
		var sub flattener
		sub.lists = f.lists
		sub.walk(n)
		sub.flushInline()
		first := true
		for _, it := range sub.items {
			if first && (it.kind == itemParagraph || it.kind == itemQuote) {
				f.emit(item{kind: itemListItem, text: it.text, marker: marker, level: len(f.lists)})
				first = false
				continue
			}
			f.items = append(f.items, it)
		}
		return
	case "blockquote":
		f.flushInline()
		f.quote++
		f.walk(n)
		f.flushInline()
		f.quote--
		return
	case "tr":
		f.flushInline()
		var cells []string
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xhtml.ElementNode && (c.Data == "td" || c.Data == "th") {
				cells = append(cells, collapse(c.Text()))
			}
		}
		f.emit(item{kind: itemParagraph, text: strings.Join(cells, "  |  ")})
		return
	}

	if html.IsBlockTag(tag) {
		f.flushInline()
		if class := n.GetAttr("class"); strings.Contains(class, "callout") || strings.Contains(class, "insight-box") || strings.Contains(class, "pro-tip") {
			f.quote++
			f.walk(n)
			f.flushInline()
			f.quote--
			return
		}
		f.walk(n)
		f.flushInline()
		return
	}

	f.walk(n)
}

func listStyle(n *html.Node) string {
	for _, decl := range strings.Split(n.GetAttr("style"), ";") {
		name, value, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(strings.ToLower(name)) == "list-style-type" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func listMarker(lc listContext) string {
	switch lc.style {
	case "decimal":
		return fmt.Sprintf("%d.", lc.counter)
	case "lower-alpha", "lower-latin":
		return toAlpha(lc.counter, false) + "."
	case "upper-alpha", "upper-latin":
		return toAlpha(lc.counter, true) + "."
	case "circle":
		return "◦"
	case "square":
		return "▪"
	case "none":
		return ""
	}
	return "•"
}

// toAlpha converts 1->a, 2->b, ... 26->z, 27->aa
func toAlpha(n int, upper bool) string {
	if n <= 0 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	s := string(b)
	if upper {
		return strings.ToUpper(s)
	}
	return s
}

// collapse normalizes whitespace inside lines and keeps explicit breaks
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
