package pagination

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/parser/html"
)

func paragraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>block %d</p>\n", i)
	}
	return b.String()
}

func contentPage(id, content string) document.Page {
	return document.Page{ID: id, Title: "Lesson", Content: content, Footer: "brand"}
}

func mustSet(t *testing.T, pages ...document.Page) document.PageSet {
	t.Helper()
	set, err := document.NewPageSet(pages...)
	require.NoError(t, err)
	return set
}

func TestThresholds(t *testing.T) {
	o := DefaultOptions()
	layout := document.LayoutConfig{}

	assert.Equal(t, 1000.0, o.DetectionThreshold(true, layout))
	assert.Equal(t, 920.0, o.DetectionThreshold(false, layout))
	assert.Equal(t, 940.0, o.SplitThreshold(layout))

	layout.HeaderTopGap = 10
	layout.HeaderContentGap = 5
	assert.InDelta(t, 920-15*3.78, o.DetectionThreshold(false, layout), 1e-9)
	assert.InDelta(t, 940-15*3.78, o.SplitThreshold(layout), 1e-9)

	layout.HeaderTopGap = -20
	assert.InDelta(t, 920-5*3.78, o.DetectionThreshold(false, layout), 1e-9)

	layout.HeaderTopGap = 1000
	assert.Equal(t, 0.0, o.DetectionThreshold(false, layout))
}

func TestThresholdSensitivity(t *testing.T) {
	o := DefaultOptions()
	prev := o.DetectionThreshold(false, document.LayoutConfig{})
	for gap := 1.0; gap <= 40; gap++ {
		for _, layout := range []document.LayoutConfig{{HeaderTopGap: gap}, {HeaderContentGap: gap}} {
			assert.Less(t, o.DetectionThreshold(false, layout), prev)
		}
		prev = o.DetectionThreshold(false, document.LayoutConfig{HeaderTopGap: gap})
	}

	// a page fitting at gap 0 may overflow at gap 40, never the reverse
	height := 900.0
	assert.False(t, o.Overflowing(height, false, document.LayoutConfig{}))
	assert.True(t, o.Overflowing(height, false, document.LayoutConfig{HeaderTopGap: 40}))
}

func TestCheck_Overflow(t *testing.T) {
	page := contentPage("p", paragraphs(4))

	fits := NewEngine(Heights(200, 200, 200, 200)).Check(page, document.LayoutConfig{})
	assert.True(t, fits.Measured)
	assert.Equal(t, 800.0, fits.ContentHeight)
	assert.False(t, fits.Overflowing)

	over := NewEngine(Heights(250, 250, 250, 250)).Check(page, document.LayoutConfig{})
	assert.True(t, over.Overflowing)
	assert.True(t, over.NeedsSplit())

	exact := NewEngine(Heights(230, 230, 230, 230)).Check(page, document.LayoutConfig{})
	assert.False(t, exact.Overflowing, "equal to the threshold fits")
}

func TestCheck_Idempotent(t *testing.T) {
	e := NewEngine(Heights(300, 300, 300, 300))
	page := contentPage("p", paragraphs(4))
	layout := document.LayoutConfig{HeaderTopGap: 5}

	first := e.Check(page, layout)
	second := e.Check(page, layout)
	assert.Equal(t, first, second)
}

func TestCheck_NotMeasured(t *testing.T) {
	page := contentPage("p", paragraphs(3))

	r := NewEngine(nil).Check(page, document.LayoutConfig{})
	assert.False(t, r.Measured)
	assert.False(t, r.Overflowing)

	stale := &Reported{ContentHeight: 5000, Blocks: []Metrics{{Height: 5000}}}
	r = NewEngine(stale).Check(page, document.LayoutConfig{})
	assert.False(t, r.Overflowing)

	unmounted := &Reported{ContentHeight: -1}
	r = NewEngine(unmounted).Check(page, document.LayoutConfig{})
	assert.False(t, r.Measured)
}

func TestCheck_ReportedHeightOnly(t *testing.T) {
	page := contentPage("p", paragraphs(3))
	r := NewEngine(&Reported{ContentHeight: 1200}).Check(page, document.LayoutConfig{})
	assert.True(t, r.Overflowing)
}

// Scenario C
func TestCoverPage_NeverSplit(t *testing.T) {
	cover := document.Page{ID: "c", Content: paragraphs(5), IsCover: true}
	e := NewEngine(Heights(900, 900, 900, 900, 900))

	r := e.Check(cover, document.LayoutConfig{})
	assert.True(t, r.Overflowing)
	assert.False(t, r.Splittable)
	assert.False(t, r.NeedsSplit())

	_, err := e.Split(cover, document.LayoutConfig{})
	assert.ErrorIs(t, err, ErrCoverPage)

	set := mustSet(t, cover)
	next, _, err := e.ApplySplit(set, "c", document.LayoutConfig{})
	assert.ErrorIs(t, err, ErrCoverPage)
	assert.Equal(t, set.Pages(), next.Pages())
}

func TestSplitIndex(t *testing.T) {
	tests := []struct {
		name       string
		heights    []float64
		wantIndex  int
		wantReason SplitReason
	}{
		{"crosses at 3", []float64{250, 250, 250, 250, 250}, 3, ReasonThreshold},
		{"first block too tall", []float64{1200, 100, 100}, 1, ReasonFirstBlock},
		{"never crosses", []float64{90, 90, 90, 90, 90, 90, 90, 90, 90, 90}, 7, ReasonProportional},
		{"two blocks never cross", []float64{10, 10}, 1, ReasonProportional},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, reason := SplitIndex(Heights(tt.heights...), 940, 0.7)
			assert.Equal(t, tt.wantIndex, idx)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestSplitIndex_CountsMargins(t *testing.T) {
	metrics := []Metrics{
		{Height: 300, MarginTop: 20, MarginBottom: 20},
		{Height: 300, MarginTop: 20, MarginBottom: 20},
		{Height: 300, MarginTop: 20, MarginBottom: 20},
	}
	idx, reason := SplitIndex(metrics, 940, 0.7)
	assert.Equal(t, 2, idx)
	assert.Equal(t, ReasonThreshold, reason)
}

// Scenario A
func TestSplit_FiveBlocks(t *testing.T) {
	content := paragraphs(5)
	page := contentPage("p", content)
	e := NewEngine(Heights(250, 250, 250, 250, 250))

	split, err := e.Split(page, document.LayoutConfig{})
	require.NoError(t, err)

	blocks := html.SplitBlocks(content)
	assert.Equal(t, 3, split.Index)
	assert.Equal(t, html.Join(blocks[:3]), split.Kept)
	assert.Equal(t, html.Join(blocks[3:]), split.Excess)
	assert.Equal(t, content, split.Kept+split.Excess)
	assert.Contains(t, split.Kept, "block 2")
	assert.Contains(t, split.Excess, "block 3")
}

func TestSplit_LosslessAndNeverEmpty(t *testing.T) {
	contents := []string{
		paragraphs(2),
		paragraphs(7),
		"<h2>t</h2>\n<p>a</p><ul><li>x</li></ul><div class=\"insight-box\"><p>y</p></div>",
		"intro text <p>a</p> outro",
	}
	fixtures := []Fixed{
		Heights(2000, 10, 10, 10, 10, 10, 10),
		Heights(10, 10, 10, 10, 10, 10, 10),
		Heights(400, 400, 400, 400, 400, 400, 400),
	}
	for _, content := range contents {
		for _, f := range fixtures {
			split, err := NewEngine(f).Split(contentPage("p", content), document.LayoutConfig{})
			require.NoError(t, err)
			assert.Equal(t, content, split.Kept+split.Excess)
			assert.NotEmpty(t, strings.TrimSpace(split.Kept))
			assert.NotEmpty(t, strings.TrimSpace(split.Excess))
		}
	}
}

func TestSplit_NeedsMeasurementForBlocks(t *testing.T) {
	_, err := NewEngine(nil).Split(contentPage("p", paragraphs(3)), document.LayoutConfig{})
	assert.ErrorIs(t, err, ErrNotMeasured)
	assert.True(t, IsNoop(err))
}

func TestSplit_NoBlocks(t *testing.T) {
	_, err := NewEngine(Heights()).Split(contentPage("p", "  \n"), document.LayoutConfig{})
	assert.ErrorIs(t, err, ErrNoBlocks)
}

// Scenario B
func TestSplit_SingleOversizedBlock(t *testing.T) {
	content := `<p class="lead">one two three four five six seven eight</p>`
	e := NewEngine(Heights(5000))

	split, err := e.Split(contentPage("p", content), document.LayoutConfig{})
	require.NoError(t, err)
	assert.Equal(t, ReasonTextMidpoint, split.Reason)

	kept := html.SplitBlocks(split.Kept)
	excess := html.SplitBlocks(split.Excess)
	require.Len(t, kept, 1)
	require.Len(t, excess, 1)
	assert.Equal(t, "p", kept[0].Tag)
	assert.Equal(t, "p", excess[0].Tag)
	assert.Equal(t, `<p class="lead">`, excess[0].OpenTag)

	assert.Equal(t, `<p class="lead">one two three four</p>`, split.Kept)
	assert.Equal(t, `<p class="lead"> five six seven eight</p>`, split.Excess)
}

func TestSplitText_Directions(t *testing.T) {
	// midpoint falls inside "bbbbbb"
	block := html.SplitBlocks("<p>aa bbbbbb cc</p>")[0]

	kept, excess, err := SplitText(block, SearchBackward)
	require.NoError(t, err)
	assert.Equal(t, "<p>aa</p>", kept)
	assert.Equal(t, "<p> bbbbbb cc</p>", excess)

	kept, excess, err = SplitText(block, SearchForward)
	require.NoError(t, err)
	assert.Equal(t, "<p>aa bbbbbb</p>", kept)
	assert.Equal(t, "<p> cc</p>", excess)
}

func TestSplitText_FallsBackToOtherDirection(t *testing.T) {
	block := html.SplitBlocks("<p>abcdefghij kl</p>")[0]
	kept, _, err := SplitText(block, SearchBackward)
	require.NoError(t, err)
	assert.Equal(t, "<p>abcdefghij</p>", kept)
}

func TestSplitText_NestedInline(t *testing.T) {
	block := html.SplitBlocks("<p><b>aa bbbbbb cc</b></p>")[0]

	kept, excess, err := SplitText(block, SearchBackward)
	require.NoError(t, err)
	assert.Equal(t, "<p><b>aa</b></p>", kept)
	assert.Equal(t, "<p><b> bbbbbb cc</b></p>", excess)

	kept, excess, err = SplitText(block, SearchForward)
	require.NoError(t, err)
	assert.Equal(t, "<p><b>aa bbbbbb</b></p>", kept)
	assert.Equal(t, "<p><b> cc</b></p>", excess)

	block = html.SplitBlocks(`<p><span style="color: red">one two <em>three four</em> five</span></p>`)[0]
	kept, excess, err = SplitText(block, SearchBackward)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(excess, `<p><span style="color: red">`), excess)
	assert.Equal(t, 1, strings.Count(kept, "<span"))
	assert.Equal(t, strings.Count(kept, "<span"), strings.Count(kept, "</span>"))
	assert.Equal(t, strings.Count(kept, "<em>"), strings.Count(kept, "</em>"))
	assert.Equal(t, strings.Count(excess, "<em>"), strings.Count(excess, "</em>"))
}

func TestSplitText_BlockChildren(t *testing.T) {
	block := html.SplitBlocks("<div><p>one two three</p><p>four five six</p><p>seven eight nine</p></div>")[0]

	kept, excess, err := SplitText(block, SearchBackward)
	require.NoError(t, err)
	assert.Equal(t, "<div><p>one two three</p></div>", kept)
	assert.Equal(t, "<div><p>four five six</p><p>seven eight nine</p></div>", excess)

	kept, excess, err = SplitText(block, SearchForward)
	require.NoError(t, err)
	assert.Equal(t, "<div><p>one two three</p><p>four five six</p></div>", kept)
	assert.Equal(t, "<div><p>seven eight nine</p></div>", excess)

	// a single child is cut inside its text
	block = html.SplitBlocks("<div><p>one two three</p></div>")[0]
	kept, excess, err = SplitText(block, SearchBackward)
	require.NoError(t, err)
	assert.Equal(t, "<div><p>one two</p></div>", kept)
	assert.Equal(t, "<div><p> three</p></div>", excess)
}

func TestSplitText_NoUsableWhitespace(t *testing.T) {
	for _, content := range []string{
		`<p><span style="color: red">x</span>word</p>`,
		"<p><b>word </b></p>",
		"<p>aa\u00a0bb</p>",
		"<p>aa\u202fbb</p>",
	} {
		_, _, err := SplitText(html.SplitBlocks(content)[0], SearchBackward)
		assert.ErrorIs(t, err, ErrNoBoundary, content)
	}

	kept, excess, err := SplitText(html.SplitBlocks("<p>aa\u00a0bb cc</p>")[0], SearchBackward)
	require.NoError(t, err)
	assert.Equal(t, "<p>aa\u00a0bb</p>", kept)
	assert.Equal(t, "<p> cc</p>", excess)
}

func TestApplySplit_WrappedSingleBlock(t *testing.T) {
	for _, content := range []string{
		"<p><strong>one two three four five six seven eight</strong></p>",
		"<div><p>one two three</p><p>four five six</p><p>seven eight nine</p></div>",
	} {
		e := NewEngine(Heights(5000))
		page := contentPage("p", content)
		require.True(t, e.Check(page, document.LayoutConfig{}).Overflowing)

		next, split, err := e.ApplySplit(mustSet(t, page), "p", document.LayoutConfig{})
		require.NoError(t, err, content)
		assert.Equal(t, ReasonTextMidpoint, split.Reason)
		require.Equal(t, 2, next.Len())

		tag := html.SplitBlocks(content)[0].Tag
		for _, p := range next.Pages() {
			blocks := html.SplitBlocks(p.Content)
			require.Len(t, blocks, 1, p.Content)
			assert.Equal(t, tag, blocks[0].Tag)
		}
	}
}

func TestSplit_NoBoundaryIsNoop(t *testing.T) {
	page := contentPage("p", "<p>ممتلئةًبدونمسافات</p>")
	set := mustSet(t, page)

	next, _, err := NewEngine(Heights(5000)).ApplySplit(set, "p", document.LayoutConfig{})
	assert.ErrorIs(t, err, ErrNoBoundary)
	assert.True(t, IsNoop(err))
	assert.Equal(t, set.Pages(), next.Pages())
}

func TestSplitText_Anonymous(t *testing.T) {
	block := html.SplitBlocks("  alpha beta gamma delta\n")[0]
	kept, excess, err := SplitText(block, SearchBackward)
	require.NoError(t, err)
	assert.Equal(t, "  alpha beta gamma delta\n", kept+excess)
	assert.NotContains(t, kept, "<")
}

func TestApplySplit_OrderAndIDs(t *testing.T) {
	set := mustSet(t,
		document.Page{ID: "cover", IsCover: true, Content: "<h1>c</h1>"},
		contentPage("target", paragraphs(5)),
		contentPage("after", "<p>z</p>"),
	)
	e := NewEngine(Heights(250, 250, 250, 250, 250))

	next, split, err := e.ApplySplit(set, "target", document.LayoutConfig{})
	require.NoError(t, err)
	require.Equal(t, 4, next.Len())

	assert.Equal(t, "cover", next.At(0).ID)
	assert.Equal(t, "target", next.At(1).ID)
	assert.Equal(t, "after", next.At(3).ID)

	cont := next.At(2)
	assert.False(t, set.Has(cont.ID))
	assert.NotEmpty(t, cont.ID)
	assert.Equal(t, "Lesson (تابع)", cont.Title)
	assert.Equal(t, "brand", cont.Footer)
	assert.False(t, cont.IsCover)
	assert.Equal(t, split.Excess, cont.Content)
	assert.Equal(t, split.Kept, next.At(1).Content)

	seen := map[string]bool{}
	for _, p := range next.Pages() {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}

	// the input set is untouched
	assert.Equal(t, 3, set.Len())
	assert.Equal(t, paragraphs(5), set.At(1).Content)
}

func TestApply_RejectsDuplicateID(t *testing.T) {
	set := mustSet(t, contentPage("a", paragraphs(2)), contentPage("b", "<p>x</p>"))
	split := Split{PageID: "a", Kept: "<p>block 0</p>\n", Excess: "<p>block 1</p>\n"}

	next, err := Apply(set, split, "b")
	assert.ErrorIs(t, err, document.ErrDuplicateID)
	assert.Equal(t, set.Pages(), next.Pages())
}

func TestApply_UnknownPage(t *testing.T) {
	set := mustSet(t, contentPage("a", "<p>x</p>"))
	_, err := Apply(set, Split{PageID: "missing", Kept: "x", Excess: "y"}, "n")
	assert.ErrorIs(t, err, document.ErrPageNotFound)
}

func TestPaginate(t *testing.T) {
	// every block is 250px tall, so pages hold three blocks
	measure := MeasurerFunc(func(_ document.Page, _ document.LayoutConfig, blocks []html.Block) (*Measurement, error) {
		m := &Measurement{}
		for range blocks {
			m.Blocks = append(m.Blocks, Metrics{Height: 250})
			m.ContentHeight += 250
		}
		return m, nil
	})
	set := mustSet(t,
		document.Page{ID: "cover", IsCover: true, Content: paragraphs(9)},
		contentPage("p", paragraphs(10)),
	)

	next, stats := NewEngine(measure).Paginate(set, document.LayoutConfig{})
	assert.Equal(t, 3, stats.Splits)
	assert.Empty(t, stats.Stuck)
	require.Equal(t, 5, next.Len())

	var joined strings.Builder
	for i := 1; i < next.Len(); i++ {
		joined.WriteString(next.At(i).Content)
		assert.LessOrEqual(t, len(html.SplitBlocks(next.At(i).Content)), 3)
	}
	assert.Equal(t, paragraphs(10), joined.String())
	assert.Equal(t, paragraphs(9), next.At(0).Content)
}

func TestPaginate_MaxPages(t *testing.T) {
	e := NewEngine(MeasurerFunc(func(_ document.Page, _ document.LayoutConfig, blocks []html.Block) (*Measurement, error) {
		m := &Measurement{ContentHeight: 10000}
		for range blocks {
			m.Blocks = append(m.Blocks, Metrics{Height: 2000})
		}
		return m, nil
	}))
	e.SetOptions(Options{MaxPages: 3})

	next, stats := e.Paginate(mustSet(t, contentPage("p", paragraphs(10))), document.LayoutConfig{})
	assert.True(t, stats.Truncated)
	assert.Equal(t, 3, next.Len())
}

func TestPaginate_Stuck(t *testing.T) {
	e := NewEngine(&Reported{ContentHeight: 5000})
	set := mustSet(t, contentPage("p", "<p>لامسافات</p>"))

	next, stats := e.Paginate(set, document.LayoutConfig{})
	assert.Equal(t, []string{"p"}, stats.Stuck)
	assert.Equal(t, 1, next.Len())
}

func TestSetOptions_Defaults(t *testing.T) {
	e := NewEngine(nil)
	e.SetOptions(Options{BaseThresholdContent: 800, FallbackSplitRatio: 2})
	o := e.Options()
	assert.Equal(t, 800.0, o.BaseThresholdContent)
	assert.Equal(t, DefaultBaseThresholdCover, o.BaseThresholdCover)
	assert.Equal(t, DefaultFallbackSplitRatio, o.FallbackSplitRatio)
	assert.Equal(t, DefaultMMToPx, o.MMToPx)
}
