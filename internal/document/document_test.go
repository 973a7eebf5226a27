package document

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSet(t *testing.T, pages ...Page) PageSet {
	t.Helper()
	set, err := NewPageSet(pages...)
	require.NoError(t, err)
	return set
}

func TestNewPageSet_RejectsDuplicateIDs(t *testing.T) {
	_, err := NewPageSet(Page{ID: "a"}, Page{ID: "a"})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestPageSet_InsertIsImmutable(t *testing.T) {
	set := mustSet(t, Page{ID: "a"}, Page{ID: "b"})

	next, err := set.Insert(1, Page{ID: "c"})
	require.NoError(t, err)

	assert.Equal(t, 2, set.Len())
	require.Equal(t, 3, next.Len())
	assert.Equal(t, "a", next.At(0).ID)
	assert.Equal(t, "c", next.At(1).ID)
	assert.Equal(t, "b", next.At(2).ID)
}

func TestPageSet_InsertErrors(t *testing.T) {
	set := mustSet(t, Page{ID: "a"})

	_, err := set.Insert(0, Page{ID: "a"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = set.Insert(5, Page{ID: "z"})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestPageSet_ReplaceKeepsID(t *testing.T) {
	set := mustSet(t, Page{ID: "a", Content: "old"})

	next, err := set.Replace("a", Page{ID: "other", Content: "new"})
	require.NoError(t, err)

	p, err := next.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "new", p.Content)
	assert.False(t, next.Has("other"))
}

func TestPageSet_Remove(t *testing.T) {
	set := mustSet(t, Page{ID: "a"}, Page{ID: "b"})

	next, err := set.Remove("a")
	require.NoError(t, err)
	assert.Equal(t, 1, next.Len())
	assert.Equal(t, "b", next.At(0).ID)

	_, err = next.Remove("a")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestPageSet_UniqueID(t *testing.T) {
	set := mustSet(t, Page{ID: "a"})
	id := set.UniqueID()
	assert.NotEmpty(t, id)
	assert.False(t, set.Has(id))
}

func TestPage_Continuation(t *testing.T) {
	p := Page{ID: "a", Title: "الدرس الأول", Footer: "مدرستي", IsCover: true, ImageURL: "x.png"}
	c := p.Continuation("b", "<p>rest</p>")

	assert.Equal(t, "b", c.ID)
	assert.Equal(t, "الدرس الأول (تابع)", c.Title)
	assert.Equal(t, "مدرستي", c.Footer)
	assert.Equal(t, "<p>rest</p>", c.Content)
	assert.False(t, c.IsCover)
	assert.Empty(t, c.ImageURL)
}

func TestNew_WelcomePage(t *testing.T) {
	doc := New(Brand{Name: "أكاديمية النور"})

	require.Equal(t, 1, doc.Pages.Len())
	p := doc.Pages.At(0)
	assert.Equal(t, WelcomePageID, p.ID)
	assert.True(t, p.IsCover)
	assert.Equal(t, "أكاديمية النور", p.Footer)
	assert.Equal(t, ThemeProfessional, doc.Brand.Theme)
	assert.Equal(t, 12.0, doc.Layout.MarginLeft)
}

func TestDocument_AddDeleteClear(t *testing.T) {
	doc := New(Brand{Name: "b"})

	doc, page, err := doc.AddPage()
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Pages.Len())
	assert.Equal(t, BlankPageTitle, page.Title)
	assert.Equal(t, BlankPageContent, page.Content)
	assert.Equal(t, "b", page.Footer)

	doc, err = doc.DeletePage(page.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Pages.Len())

	assert.Equal(t, 0, doc.Clear().Pages.Len())
}

func TestDocument_WithBrandRenamesFooters(t *testing.T) {
	doc := New(Brand{Name: "old"})
	doc, _, err := doc.AddPage()
	require.NoError(t, err)
	doc, err = doc.UpdateContent(WelcomePageID, "<p>x</p>")
	require.NoError(t, err)

	custom := doc.Pages.At(1)
	custom.Footer = "custom"
	set, err := doc.Pages.Replace(custom.ID, custom)
	require.NoError(t, err)
	doc = doc.WithPages(set)

	doc = doc.WithBrand(Brand{Name: "new"})
	assert.Equal(t, "new", doc.Pages.At(0).Footer)
	assert.Equal(t, "custom", doc.Pages.At(1).Footer)
}

func TestBrand_Palette(t *testing.T) {
	p := Brand{Theme: ThemeAcademic, PrimaryColor: "#000000"}.Palette()
	assert.Equal(t, "#000000", p.Primary)
	assert.Equal(t, "#047857", p.Secondary)

	assert.Equal(t, ThemeProfessional, Brand{Theme: "nope"}.Palette().Name)
	assert.Len(t, Themes(), 4)
}

func TestInsertCallout(t *testing.T) {
	p := Page{ID: "a", Content: "<p>x</p>"}

	out, err := p.InsertCallout(CalloutWarning, "<b>careful</b>")
	require.NoError(t, err)
	assert.Contains(t, out.Content, `class="callout callout-warning"`)
	assert.Contains(t, out.Content, "&lt;b&gt;careful&lt;/b&gt;")
	assert.Equal(t, "<p>x</p>", p.Content)

	_, err = p.InsertCallout("shout", "")
	assert.ErrorIs(t, err, ErrUnknownCallout)
}

func TestYAMLRoundTrip(t *testing.T) {
	doc := New(Brand{Name: "b", Theme: ThemeModern})
	doc.Layout.HeaderTopGap = 8

	path := filepath.Join(t.TempDir(), "notebook.yaml")
	require.NoError(t, Save(path, doc))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Brand, got.Brand)
	assert.Equal(t, doc.Layout, got.Layout)
	assert.Equal(t, doc.Pages.Pages(), got.Pages.Pages())
}

func TestDecode_AssignsMissingIDs(t *testing.T) {
	src := `
title: t
pages:
  - title: one
    content: <p>a</p>
  - title: two
    content: <p>b</p>
`
	doc, err := Decode(bytes.NewBufferString(src))
	require.NoError(t, err)
	require.Equal(t, 2, doc.Pages.Len())
	assert.NotEmpty(t, doc.Pages.At(0).ID)
	assert.NotEqual(t, doc.Pages.At(0).ID, doc.Pages.At(1).ID)
	assert.Equal(t, 12.0, doc.Layout.MarginRight)
}

func TestDecode_RejectsDuplicateIDs(t *testing.T) {
	src := "pages:\n  - id: a\n  - id: a\n"
	_, err := Decode(bytes.NewBufferString(src))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestPageSet_JSON(t *testing.T) {
	set := mustSet(t, Page{ID: "a", Title: "x"})
	data, err := json.Marshal(set)
	require.NoError(t, err)

	var got PageSet
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, set.Pages(), got.Pages())

	empty, err := json.Marshal(PageSet{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
