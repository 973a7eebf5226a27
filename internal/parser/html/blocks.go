package html

import (
	"bytes"
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Block is one top-level unit of page content.
//
// Raw covers the block's whole span, including the whitespace and comments
// that precede it. Trailing whitespace after the last block belongs to the
// last block, so concatenating the Raw of every block reproduces the content.
type Block struct {
	// Tag is the lower-case element name, or "" for an anonymous text run
	Tag string
	// Start and End are byte offsets of Raw in the content
	Start, End int
	Raw        string
	// Lead and Trail are the parts of Raw before and after the element
	Lead, Trail string
	// OpenTag, Inner and CloseTag make up the element itself
	OpenTag, Inner, CloseTag string
}

// Anonymous reports whether the block is a top-level text/inline run
func (b Block) Anonymous() bool {
	return b.Tag == ""
}

// Outer returns the element markup without surrounding whitespace
func (b Block) Outer() string {
	return b.OpenTag + b.Inner + b.CloseTag
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// IsVoid reports whether tag never has content or a closing tag
func IsVoid(tag string) bool {
	return voidElements[tag]
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "ul": true,
}

// IsBlockTag reports whether tag starts a block-level box
func IsBlockTag(tag string) bool {
	return blockElements[tag]
}

// token is one tokenizer step with its byte span
type token struct {
	kind       html.TokenType
	tag        string
	start, end int
}

func tokenize(content string) []token {
	z := html.NewTokenizer(strings.NewReader(content))
	var toks []token
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				// Malformed input: the rest is one text token
				if offset < len(content) {
					toks = append(toks, token{kind: html.TextToken, start: offset, end: len(content)})
				}
			}
			break
		}
		raw := z.Raw()
		tok := token{kind: tt, start: offset, end: offset + len(raw)}
		if tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			tok.tag = string(bytes.ToLower(name))
		}
		offset += len(raw)
		toks = append(toks, tok)
	}
	if offset < len(content) && (len(toks) == 0 || toks[len(toks)-1].end < len(content)) {
		toks = append(toks, token{kind: html.TextToken, start: offset, end: len(content)})
	}
	return toks
}

// SplitBlocks segments page content into its top-level blocks.
//
// A block-level element at the top level is one block, nested content
// included. Consecutive top-level text and inline elements form one
// anonymous block. Whitespace-only text and comments between blocks are
// not blocks themselves. Content is expected to be well-formed, as produced
// by an editing surface; an element left open runs to the end.
func SplitBlocks(content string) []Block {
	toks := tokenize(content)

	var blocks []Block
	pending := 0 // start of the next block's span
	elemStart := -1
	openEnd := -1
	depth := 0
	tag := ""
	anonymous := false

	closeBlock := func(innerEnd, end int) {
		b := Block{
			Tag:   tag,
			Start: pending,
			End:   end,
			Raw:   content[pending:end],
			Lead:  content[pending:elemStart],
		}
		if anonymous {
			b.Tag = ""
			b.Inner = content[elemStart:end]
		} else {
			b.OpenTag = content[elemStart:openEnd]
			if innerEnd >= openEnd {
				b.Inner = content[openEnd:innerEnd]
				b.CloseTag = content[innerEnd:end]
			}
		}
		blocks = append(blocks, b)
		pending = end
		elemStart, openEnd, depth, tag, anonymous = -1, -1, 0, "", false
	}

	lastInline := -1 // end of the last non-whitespace inline token of an anonymous run
	flushAnonymous := func() {
		if anonymous {
			closeBlock(lastInline, lastInline)
			lastInline = -1
		}
	}

	for _, t := range toks {
		if depth > 0 {
			switch t.kind {
			case html.StartTagToken:
				if t.tag == tag && !IsVoid(t.tag) {
					depth++
				}
			case html.EndTagToken:
				if t.tag == tag {
					depth--
					if depth == 0 {
						closeBlock(t.start, t.end)
					}
				}
			}
			continue
		}

		switch t.kind {
		case html.TextToken:
			text := content[t.start:t.end]
			if strings.TrimFunc(text, unicode.IsSpace) == "" {
				continue
			}
			if !anonymous {
				lead := len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
				elemStart, anonymous = t.start+lead, true
			}
			lastInline = t.start + len(strings.TrimRightFunc(text, unicode.IsSpace))

		case html.StartTagToken, html.SelfClosingTagToken:
			if !IsBlockTag(t.tag) {
				if !anonymous {
					elemStart, anonymous = t.start, true
				}
				lastInline = t.end
				continue
			}
			flushAnonymous()
			elemStart, openEnd, tag = t.start, t.end, t.tag
			if t.kind == html.SelfClosingTagToken || IsVoid(t.tag) {
				closeBlock(t.end, t.end)
				continue
			}
			depth = 1

		case html.EndTagToken:
			if anonymous {
				lastInline = t.end
			}

		default:
			// comments and doctypes attach to the surrounding span
		}
	}

	if depth > 0 {
		closeBlock(len(content), len(content))
	}
	flushAnonymous()

	if len(blocks) > 0 && pending < len(content) {
		last := &blocks[len(blocks)-1]
		last.Trail = content[pending:]
		last.End = len(content)
		last.Raw = content[last.Start:]
	}
	return blocks
}

// Join concatenates the Raw spans of blocks
func Join(blocks []Block) string {
	var b strings.Builder
	for _, blk := range blocks {
		b.WriteString(blk.Raw)
	}
	return b.String()
}
