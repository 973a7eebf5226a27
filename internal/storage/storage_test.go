package storage

import (
	"errors"
	"sync"
	"testing"

	"github.com/dafterai/dafter/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGetDelete(t *testing.T) {
	store := New(0)
	s := store.Create(document.New(document.Brand{Name: "Acme"}))
	require.NotEmpty(t, s.ID)

	got, ok := store.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, "Acme", got.Document().Brand.Name)
	assert.Len(t, store.List(), 1)

	store.Delete(s.ID)
	_, ok = store.Get(s.ID)
	assert.False(t, ok)
}

func TestCreateSeedsHistory(t *testing.T) {
	store := New(0)
	s := store.Create(document.New(document.Brand{}))
	page := s.Document().Pages.At(0)

	s.History().Record(page.ID, "<p>edited</p>")
	prev, ok := s.History().Undo(page.ID)
	require.True(t, ok)
	assert.Equal(t, page.Content, prev)
}

func TestUpdate(t *testing.T) {
	s := New(0).Create(document.New(document.Brand{}))

	doc, err := s.Update(func(d document.Document) (document.Document, error) {
		next, _, err := d.AddPage()
		return next, err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Pages.Len())
	assert.Equal(t, 2, s.Document().Pages.Len())

	_, err = s.Update(func(d document.Document) (document.Document, error) {
		return d.Clear(), errors.New("rejected")
	})
	assert.Error(t, err)
	assert.Equal(t, 2, s.Document().Pages.Len(), "failed updates are discarded")
}

func TestUpdateConcurrent(t *testing.T) {
	s := New(0).Create(document.New(document.Brand{}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(func(d document.Document) (document.Document, error) {
				next, _, err := d.AddPage()
				return next, err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 21, s.Document().Pages.Len())
}

func TestListOrder(t *testing.T) {
	store := New(0)
	a := store.Create(document.New(document.Brand{}))
	b := store.Create(document.New(document.Brand{}))
	list := store.List()
	require.Len(t, list, 2)
	assert.False(t, list[1].CreatedAt.Before(list[0].CreatedAt))
	assert.ElementsMatch(t, []string{a.ID, b.ID}, []string{list[0].ID, list[1].ID})
}
