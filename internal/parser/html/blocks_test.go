package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBlocks_TopLevelElements(t *testing.T) {
	content := "<h2>Title</h2>\n<p>One <b>bold</b></p>\n<ul><li>a</li><li>b</li></ul>"

	blocks := SplitBlocks(content)
	require.Len(t, blocks, 3)

	assert.Equal(t, "h2", blocks[0].Tag)
	assert.Equal(t, "<h2>Title</h2>", blocks[0].Raw)
	assert.Equal(t, "p", blocks[1].Tag)
	assert.Equal(t, "\n", blocks[1].Lead)
	assert.Equal(t, "<p>", blocks[1].OpenTag)
	assert.Equal(t, "One <b>bold</b>", blocks[1].Inner)
	assert.Equal(t, "</p>", blocks[1].CloseTag)
	assert.Equal(t, "ul", blocks[2].Tag)

	assert.Equal(t, content, Join(blocks))
}

func TestSplitBlocks_NestedSameTag(t *testing.T) {
	content := `<div class="callout"><div>inner</div><p>x</p></div><p>after</p>`

	blocks := SplitBlocks(content)
	require.Len(t, blocks, 2)
	assert.Equal(t, `<div class="callout"><div>inner</div><p>x</p></div>`, blocks[0].Outer())
	assert.Equal(t, `<div class="callout">`, blocks[0].OpenTag)
	assert.Equal(t, "<p>after</p>", blocks[1].Raw)
}

func TestSplitBlocks_VoidAndSelfClosing(t *testing.T) {
	content := "<p>a<br>b</p><hr><p>c</p>"

	blocks := SplitBlocks(content)
	require.Len(t, blocks, 3)
	assert.Equal(t, "<p>a<br>b</p>", blocks[0].Raw)
	assert.Equal(t, "hr", blocks[1].Tag)
	assert.Equal(t, "<hr>", blocks[1].Raw)
	assert.Equal(t, content, Join(blocks))
}

func TestSplitBlocks_AnonymousRun(t *testing.T) {
	content := "plain text with <b>bold</b> words <p>para</p> tail"

	blocks := SplitBlocks(content)
	require.Len(t, blocks, 3)

	assert.True(t, blocks[0].Anonymous())
	assert.Equal(t, "plain text with <b>bold</b> words", blocks[0].Inner)
	assert.Equal(t, " <p>para</p>", blocks[1].Raw)
	assert.True(t, blocks[2].Anonymous())
	assert.Equal(t, "tail", blocks[2].Inner)
	assert.Equal(t, content, Join(blocks))
}

func TestSplitBlocks_WhitespaceAndComments(t *testing.T) {
	content := "  <!-- note --> <p>a</p>\n\n<p>b</p>  \n"

	blocks := SplitBlocks(content)
	require.Len(t, blocks, 2)
	assert.Equal(t, "  <!-- note --> ", blocks[0].Lead)
	assert.Equal(t, "  \n", blocks[1].Trail)
	assert.Equal(t, content, Join(blocks))
}

func TestSplitBlocks_Empty(t *testing.T) {
	assert.Empty(t, SplitBlocks(""))
	assert.Empty(t, SplitBlocks("   \n "))
}

func TestSplitBlocks_UnclosedRunsToEnd(t *testing.T) {
	content := "<p>a</p><div>open"

	blocks := SplitBlocks(content)
	require.Len(t, blocks, 2)
	assert.Equal(t, "<div>open", blocks[1].Raw)
	assert.Equal(t, "open", blocks[1].Inner)
	assert.Empty(t, blocks[1].CloseTag)
}

func TestSplitBlocks_Lossless(t *testing.T) {
	inputs := []string{
		`<h2 dir="rtl">مقدمة</h2><p>نص عربي طويل</p><div class="insight-box"><p>إضاءة</p></div>`,
		"<p>x</p>text<p>y</p>",
		"<P>upper</P><P>case</P>",
		"<ol>\n  <li>one</li>\n  <li>two</li>\n</ol>\n",
	}
	for _, in := range inputs {
		assert.Equal(t, in, Join(SplitBlocks(in)), in)
	}
}

func TestParseFragment(t *testing.T) {
	doc, err := NewParser().ParseFragment(`<p class="a">hello <b>world</b></p><ul><li>x</li></ul>`)
	require.NoError(t, err)

	first := doc.Root.FirstChild
	require.NotNil(t, first)
	assert.Equal(t, "p", first.Data)
	assert.Equal(t, "a", first.GetAttr("class"))
	assert.Equal(t, "hello world", first.Text())
	assert.Equal(t, "ul", first.NextSibling.Data)
	assert.Equal(t, first, doc.Root.LastChild.PrevSibling)

	out, err := doc.Render()
	require.NoError(t, err)
	assert.Equal(t, `<p class="a">hello <b>world</b></p><ul><li>x</li></ul>`, out)
}
