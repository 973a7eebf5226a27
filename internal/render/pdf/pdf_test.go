package pdf

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/res"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 30, 40))
	for x := 0; x < 30; x++ {
		img.Set(x, x, color.RGBA{B: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return res.ToDataURL("image/png", buf.Bytes())
}

func sampleDocument(t *testing.T) document.Document {
	t.Helper()
	doc := document.New(document.Brand{Name: "Acme"})
	page := document.Page{
		ID:       "p1",
		Title:    "Chapter one",
		ImageURL: pngDataURL(t),
		Footer:   "Acme notes",
		Content: `<h2>Overview</h2><p>Plain paragraph with <b>bold</b> text.</p>` +
			`<ul><li>first</li><li>second</li></ul><ol><li>one</li></ol>` +
			`<blockquote>A quote</blockquote><hr><pre>x := 1</pre>` +
			`<table><tr><td>a</td><td>b</td></tr></table>`,
	}
	set, err := doc.Pages.Append(page)
	require.NoError(t, err)
	return doc.WithPages(set)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer(nil).Render(context.Background(), sampleDocument(t), &buf, RenderOptions{Creator: "dafter"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "/Image")
}

func TestRenderSkipsMissingImages(t *testing.T) {
	doc := sampleDocument(t)
	page, err := doc.Pages.Get("p1")
	require.NoError(t, err)
	page.ImageURL = filepath.Join(t.TempDir(), "missing.png")
	set, err := doc.Pages.Replace("p1", page)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(nil).Render(context.Background(), doc.WithPages(set), &buf, RenderOptions{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRenderEmptyDocument(t *testing.T) {
	doc := document.New(document.Brand{}).Clear()
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(nil).Render(context.Background(), doc, &buf, RenderOptions{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewRenderer(nil).Render(ctx, sampleDocument(t), &bytes.Buffer{}, RenderOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "notes.pdf")
	require.NoError(t, NewRenderer(nil).RenderFile(context.Background(), sampleDocument(t), path, RenderOptions{}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestFlatten(t *testing.T) {
	items, err := flatten(`<h2>T</h2><p>a<br>b</p><ol><li>x</li><li>y</li></ol><hr>` +
		`<div class="callout callout-info"><div class="callout-title">Note</div></div><img src="a.png">`)
	require.NoError(t, err)

	kinds := make([]itemKind, 0, len(items))
	for _, it := range items {
		kinds = append(kinds, it.kind)
	}
	assert.Equal(t, []itemKind{itemHeading, itemParagraph, itemListItem, itemListItem, itemRule, itemQuote, itemImage}, kinds)
	assert.Equal(t, 2, items[0].level)
	assert.Equal(t, "a\nb", items[1].text)
	assert.Equal(t, "1.", items[2].marker)
	assert.Equal(t, "2.", items[3].marker)
	assert.Equal(t, "Note", items[5].text)
	assert.Equal(t, "a.png", items[6].src)
}

func TestFlattenCollapsesSourceNewlines(t *testing.T) {
	items, err := flatten("<p>one\n   two</p>")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "one two", items[0].text)
}

func TestToAlpha(t *testing.T) {
	assert.Equal(t, "a", toAlpha(1, false))
	assert.Equal(t, "z", toAlpha(26, false))
	assert.Equal(t, "AA", toAlpha(27, true))
	assert.Equal(t, "", toAlpha(0, false))
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, [3]int{30, 58, 138}, parseColor("#1e3a8a"))
	assert.Equal(t, [3]int{255, 0, 0}, parseColor("#f00"))
	assert.Equal(t, [3]int{1, 2, 3}, parseColor("rgb(1, 2, 3)"))
	assert.Equal(t, [3]int{0, 0, 0}, parseColor("blue"))
}
