package document

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrPageNotFound is returned when a page id is not in the set.
	ErrPageNotFound = errors.New("page not found")
	// ErrDuplicateID is returned when inserting a page whose id is already used.
	ErrDuplicateID = errors.New("duplicate page id")
	// ErrIndexOutOfRange is returned when inserting outside the set bounds.
	ErrIndexOutOfRange = errors.New("page index out of range")
)

const (
	// BlankPageTitle is the title of a page added by the user.
	BlankPageTitle = "صفحة جديدة"
	// BlankPageContent is the placeholder content of a page added by the user.
	BlankPageContent = "<p>اكتب هنا...</p>"
	// ContinuationSuffix is appended to the title of a continuation page.
	ContinuationSuffix = " (تابع)"
)

// Page represents one A4 sheet of the notebook
type Page struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Content  string `json:"content" yaml:"content"`
	ImageURL string `json:"imageUrl,omitempty" yaml:"image_url,omitempty"`
	IsCover  bool   `json:"isCover,omitempty" yaml:"is_cover,omitempty"`
	Footer   string `json:"footer" yaml:"footer"`
}

// NewID returns a fresh page identifier
func NewID() string {
	return uuid.New().String()
}

// NewBlankPage creates the placeholder page inserted by "add page"
func NewBlankPage(footer string) Page {
	return Page{
		ID:      NewID(),
		Title:   BlankPageTitle,
		Content: BlankPageContent,
		Footer:  footer,
	}
}

// Continuation creates the page that receives the excess of a split.
// It inherits the footer and is never a cover.
func (p Page) Continuation(id, content string) Page {
	return Page{
		ID:      id,
		Title:   ContinuationTitle(p.Title),
		Content: content,
		Footer:  p.Footer,
	}
}

// ContinuationTitle returns the default title of a continuation page
func ContinuationTitle(title string) string {
	if title == "" {
		return BlankPageTitle + ContinuationSuffix
	}
	return title + ContinuationSuffix
}

// PageSet is an ordered, immutable sequence of pages with unique ids.
// Every mutating method returns a new set and leaves the receiver untouched.
type PageSet struct {
	pages []Page
}

// NewPageSet creates a page set, rejecting duplicate ids
func NewPageSet(pages ...Page) (PageSet, error) {
	seen := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		if _, ok := seen[p.ID]; ok {
			return PageSet{}, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	cp := make([]Page, len(pages))
	copy(cp, pages)
	return PageSet{pages: cp}, nil
}

// Len returns the number of pages
func (s PageSet) Len() int {
	return len(s.pages)
}

// Pages returns a copy of the pages in reading order
func (s PageSet) Pages() []Page {
	cp := make([]Page, len(s.pages))
	copy(cp, s.pages)
	return cp
}

// At returns the page at position i
func (s PageSet) At(i int) Page {
	return s.pages[i]
}

// Index returns the position of the page with the given id, or -1
func (s PageSet) Index(id string) int {
	for i, p := range s.pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the page with the given id
func (s PageSet) Get(id string) (Page, error) {
	i := s.Index(id)
	if i < 0 {
		return Page{}, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	return s.pages[i], nil
}

// Has reports whether a page with the given id exists
func (s PageSet) Has(id string) bool {
	return s.Index(id) >= 0
}

// Insert returns a new set with page inserted at position at
func (s PageSet) Insert(at int, page Page) (PageSet, error) {
	if at < 0 || at > len(s.pages) {
		return s, fmt.Errorf("%w: %d", ErrIndexOutOfRange, at)
	}
	if s.Has(page.ID) {
		return s, fmt.Errorf("%w: %s", ErrDuplicateID, page.ID)
	}

	pages := make([]Page, 0, len(s.pages)+1)
	pages = append(pages, s.pages[:at]...)
	pages = append(pages, page)
	pages = append(pages, s.pages[at:]...)
	return PageSet{pages: pages}, nil
}

// Append returns a new set with page added at the end
func (s PageSet) Append(page Page) (PageSet, error) {
	return s.Insert(len(s.pages), page)
}

// Replace returns a new set where the page with the given id is swapped for page.
// The replacement keeps the original id.
func (s PageSet) Replace(id string, page Page) (PageSet, error) {
	i := s.Index(id)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	page.ID = id
	pages := s.Pages()
	pages[i] = page
	return PageSet{pages: pages}, nil
}

// Remove returns a new set without the page with the given id
func (s PageSet) Remove(id string) (PageSet, error) {
	i := s.Index(id)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	pages := make([]Page, 0, len(s.pages)-1)
	pages = append(pages, s.pages[:i]...)
	pages = append(pages, s.pages[i+1:]...)
	return PageSet{pages: pages}, nil
}

// UniqueID returns a fresh id that is not used in the set
func (s PageSet) UniqueID() string {
	for {
		id := NewID()
		if !s.Has(id) {
			return id
		}
	}
}
