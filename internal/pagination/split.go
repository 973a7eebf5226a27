package pagination

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/parser/html"
	xhtml "golang.org/x/net/html"
)

var (
	// ErrCoverPage is returned when a split is requested on a cover page
	ErrCoverPage = errors.New("split not applicable to a cover page")
	// ErrNoBlocks is returned when a page has no content blocks
	ErrNoBlocks = errors.New("page has no content blocks")
	// ErrNoBoundary is returned when a single block has no usable word boundary
	ErrNoBoundary = errors.New("no whitespace boundary to split at")
	// ErrSplitOutOfRange is returned when the computed split index would leave
	// one side empty
	ErrSplitOutOfRange = errors.New("split index out of range")
)

// IsNoop reports whether err is one of the split refusals that leave the
// document untouched.
func IsNoop(err error) bool {
	return errors.Is(err, ErrCoverPage) ||
		errors.Is(err, ErrNoBlocks) ||
		errors.Is(err, ErrNoBoundary) ||
		errors.Is(err, ErrSplitOutOfRange) ||
		errors.Is(err, ErrNotMeasured)
}

// SplitReason names the rule that chose the split point
type SplitReason string

const (
	// ReasonThreshold: the first block whose running total crosses the threshold
	ReasonThreshold SplitReason = "threshold"
	// ReasonFirstBlock: the first block alone crosses; one block is kept
	ReasonFirstBlock SplitReason = "first-block"
	// ReasonProportional: nothing crosses; a fixed share of blocks is kept
	ReasonProportional SplitReason = "proportional"
	// ReasonTextMidpoint: a single block is cut at a word near its middle
	ReasonTextMidpoint SplitReason = "text-midpoint"
)

// Split is the partition of a page's content
type Split struct {
	PageID string      `json:"pageId"`
	Kept   string      `json:"kept"`
	Excess string      `json:"excess"`
	Index  int         `json:"index"`
	Blocks int         `json:"blocks"`
	Reason SplitReason `json:"reason"`
}

// SplitIndex picks the first excess block from per-block metrics.
// The result is the first block whose running outer height exceeds
// threshold, at least 1; when no block crosses, floor(n*ratio).
func SplitIndex(metrics []Metrics, threshold, ratio float64) (int, SplitReason) {
	total := 0.0
	for i, m := range metrics {
		total += m.Outer()
		if total > threshold {
			if i == 0 {
				return 1, ReasonFirstBlock
			}
			return i, ReasonThreshold
		}
	}
	return int(math.Floor(float64(len(metrics)) * ratio)), ReasonProportional
}

// Split computes the kept/excess partition of a page. It never changes the page.
func (e *Engine) Split(page document.Page, layout document.LayoutConfig) (Split, error) {
	if page.IsCover {
		return Split{}, ErrCoverPage
	}

	blocks := html.SplitBlocks(page.Content)
	if len(blocks) == 0 {
		return Split{}, ErrNoBlocks
	}

	if len(blocks) == 1 {
		kept, excess, err := SplitText(blocks[0], e.options.Search)
		if err != nil {
			return Split{}, err
		}
		e.debug("text split", "page", page.ID, "search", e.options.Search)
		return Split{
			PageID: page.ID,
			Kept:   kept,
			Excess: excess,
			Index:  1,
			Blocks: 1,
			Reason: ReasonTextMidpoint,
		}, nil
	}

	m, err := e.measurer.Measure(page, layout, blocks)
	if err != nil {
		return Split{}, fmt.Errorf("failed to measure page %s: %w", page.ID, err)
	}
	if len(m.Blocks) != len(blocks) {
		return Split{}, fmt.Errorf("%w: %d block metrics for %d blocks", ErrNotMeasured, len(m.Blocks), len(blocks))
	}

	threshold := e.options.SplitThreshold(layout)
	idx, reason := SplitIndex(m.Blocks, threshold, e.options.FallbackSplitRatio)
	if idx <= 0 || idx >= len(blocks) {
		return Split{}, fmt.Errorf("%w: %d of %d", ErrSplitOutOfRange, idx, len(blocks))
	}

	at := blocks[idx].Start
	e.debug("block split",
		"page", page.ID,
		"index", idx,
		"blocks", len(blocks),
		"threshold", threshold,
		"reason", reason,
	)
	return Split{
		PageID: page.ID,
		Kept:   page.Content[:at],
		Excess: page.Content[at:],
		Index:  idx,
		Blocks: len(blocks),
		Reason: reason,
	}, nil
}

// SplitText cuts a single block near the middle of its inner markup.
//
// When the block holds several block-level children it is cut between two
// of them. Otherwise it is cut at the whitespace nearest the midpoint, at
// any nesting depth: inline elements open at the cut are closed at the end
// of the kept half and reopened at the start of the excess. Both halves
// must carry text. Each half is wrapped in the block's own tags; an
// anonymous block is cut without wrapping.
func SplitText(b html.Block, dir SearchDirection) (kept, excess string, err error) {
	inner := b.Inner
	mid := byteOffsetOfRune(inner, utf8.RuneCountInString(inner)/2)

	cut, ok := childBoundary(b, mid, dir)
	if !ok {
		cuts := textBoundaries(inner)
		if len(cuts) == 0 {
			return "", "", ErrNoBoundary
		}
		offsets := make([]int, len(cuts))
		for i, c := range cuts {
			offsets[i] = c.at
		}
		at := nearest(offsets, mid, dir)
		for _, c := range cuts {
			if c.at == at {
				cut = c
				break
			}
		}
	}

	head := inner[:cut.at] + cut.closing()
	tail := cut.reopening() + inner[cut.at:]
	if b.Anonymous() {
		return b.Lead + head, tail + b.Trail, nil
	}

	closeTag := b.CloseTag
	if closeTag == "" {
		closeTag = "</" + b.Tag + ">"
	}
	kept = b.Lead + b.OpenTag + head + closeTag
	excess = b.OpenTag + tail + closeTag + b.Trail
	return kept, excess, nil
}

// openElement is an element still open at some offset of the markup
type openElement struct {
	name, raw string
}

// textCut is a candidate cut with the elements open at that point
type textCut struct {
	at   int
	open []openElement
}

func (c textCut) closing() string {
	var b strings.Builder
	for i := len(c.open) - 1; i >= 0; i-- {
		b.WriteString("</" + c.open[i].name + ">")
	}
	return b.String()
}

func (c textCut) reopening() string {
	var b strings.Builder
	for _, e := range c.open {
		b.WriteString(e.raw)
	}
	return b.String()
}

// childBoundary picks the start of a block-level child of b nearest mid.
// It reports false when b does not hold at least two child blocks.
func childBoundary(b html.Block, mid int, dir SearchDirection) (textCut, bool) {
	if b.Anonymous() {
		return textCut{}, false
	}
	children := html.SplitBlocks(b.Inner)
	if len(children) < 2 {
		return textCut{}, false
	}
	offsets := make([]int, 0, len(children)-1)
	for _, c := range children[1:] {
		offsets = append(offsets, c.Start)
	}
	return textCut{at: nearest(offsets, mid, dir)}, true
}

// rawTextElements hold text that is never split
var rawTextElements = map[string]bool{
	"script": true, "style": true, "textarea": true, "title": true,
}

// IsBreakSpace reports whether r is whitespace a split may happen at.
// No-break spaces never are.
func IsBreakSpace(r rune) bool {
	switch r {
	case '\u00a0', '\u2007', '\u202f', '\u0085':
		return false
	}
	return unicode.IsSpace(r)
}

// textBoundaries returns the whitespace in the text of inner, at any depth,
// that has visible text on both sides.
func textBoundaries(inner string) []textCut {
	z := xhtml.NewTokenizer(strings.NewReader(inner))
	var (
		cuts        []textCut
		open        []openElement
		first, last = -1, -1
		offset      int
	)
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		raw := string(z.Raw())
		switch tt {
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			if !html.IsVoid(string(name)) {
				open = append(open, openElement{name: string(name), raw: raw})
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			for i := len(open) - 1; i >= 0; i-- {
				if open[i].name == string(name) {
					open = open[:i]
					break
				}
			}
		case xhtml.TextToken:
			if len(open) > 0 && rawTextElements[open[len(open)-1].name] {
				break
			}
			for i, r := range raw {
				switch {
				case IsBreakSpace(r):
					cuts = append(cuts, textCut{at: offset + i, open: append([]openElement(nil), open...)})
				case !unicode.IsSpace(r):
					if first < 0 {
						first = offset + i
					}
					last = offset + i + utf8.RuneLen(r)
				}
			}
		}
		offset += len(raw)
	}

	filtered := cuts[:0]
	for _, c := range cuts {
		if first >= 0 && first < c.at && c.at < last {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func hasText(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) >= 0
}

// nearest returns the candidate closest to mid in the preferred direction,
// falling back to the other direction.
func nearest(candidates []int, mid int, dir SearchDirection) int {
	before, after := -1, -1
	for _, c := range candidates {
		if c <= mid {
			before = c
		}
		if c >= mid && after < 0 {
			after = c
		}
	}
	if dir == SearchForward {
		if after >= 0 {
			return after
		}
		return before
	}
	if before >= 0 {
		return before
	}
	return after
}

func byteOffsetOfRune(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}

// Apply applies a computed split to a set: the page keeps the kept fragment
// and a continuation page holding the excess is inserted right after it.
// Either both changes happen or the set is returned unchanged.
func Apply(set document.PageSet, split Split, newID string) (document.PageSet, error) {
	idx := set.Index(split.PageID)
	if idx < 0 {
		return set, fmt.Errorf("%w: %s", document.ErrPageNotFound, split.PageID)
	}
	page := set.At(idx)
	if page.IsCover {
		return set, ErrCoverPage
	}
	if !hasText(split.Kept) || !hasText(split.Excess) {
		return set, ErrSplitOutOfRange
	}

	continuation := page.Continuation(newID, split.Excess)
	page.Content = split.Kept

	next, err := set.Replace(page.ID, page)
	if err != nil {
		return set, err
	}
	next, err = next.Insert(idx+1, continuation)
	if err != nil {
		return set, fmt.Errorf("failed to insert continuation page: %w", err)
	}
	return next, nil
}

// ApplySplit splits the page with the given id and returns the resulting set.
// The input set is never modified.
func (e *Engine) ApplySplit(set document.PageSet, pageID string, layout document.LayoutConfig) (document.PageSet, Split, error) {
	page, err := set.Get(pageID)
	if err != nil {
		return set, Split{}, err
	}
	split, err := e.Split(page, layout)
	if err != nil {
		return set, Split{}, err
	}
	next, err := Apply(set, split, set.UniqueID())
	if err != nil {
		return set, Split{}, err
	}
	return next, split, nil
}
