package document

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// WelcomePageID is the id of the cover page of a new document
const WelcomePageID = "welcome"

// DefaultBrandName is used when no brand name is configured
const DefaultBrandName = "دفتر"

// LayoutConfig holds page-set-wide spacing in millimetres
type LayoutConfig struct {
	HeaderTopGap     float64 `json:"headerTopGap" yaml:"header_top_gap" toml:"header_top_gap"`
	HeaderContentGap float64 `json:"headerContentGap" yaml:"header_content_gap" toml:"header_content_gap"`
	MarginLeft       float64 `json:"marginLeft" yaml:"margin_left" toml:"margin_left"`
	MarginRight      float64 `json:"marginRight" yaml:"margin_right" toml:"margin_right"`
	MarginBottom     float64 `json:"marginBottom" yaml:"margin_bottom" toml:"margin_bottom"`
}

// DefaultLayout returns the layout of a new document
func DefaultLayout() LayoutConfig {
	return LayoutConfig{
		MarginLeft:   12,
		MarginRight:  12,
		MarginBottom: 10,
	}
}

// Brand describes the identity printed on every page
type Brand struct {
	Name           string    `json:"name" yaml:"name"`
	Theme          ThemeName `json:"theme" yaml:"theme"`
	PrimaryColor   string    `json:"primaryColor,omitempty" yaml:"primary_color,omitempty"`
	SecondaryColor string    `json:"secondaryColor,omitempty" yaml:"secondary_color,omitempty"`
	LogoURL        string    `json:"logoUrl,omitempty" yaml:"logo_url,omitempty"`
	FontFamily     string    `json:"fontFamily,omitempty" yaml:"font_family,omitempty"`
	PhoneNumber    string    `json:"phoneNumber,omitempty" yaml:"phone_number,omitempty"`
}

// Palette returns the brand theme with any explicit colour overrides applied
func (b Brand) Palette() Theme {
	t := LookupTheme(b.Theme)
	if b.PrimaryColor != "" {
		t.Primary = b.PrimaryColor
	}
	if b.SecondaryColor != "" {
		t.Secondary = b.SecondaryColor
	}
	return t
}

// Font returns the body font family, defaulting to the first offered font
func (b Brand) Font() string {
	if b.FontFamily != "" {
		return b.FontFamily
	}
	return Fonts[0].Family
}

// Footer returns the default footer text for pages of this brand
func (b Brand) Footer() string {
	if b.Name != "" {
		return b.Name
	}
	return DefaultBrandName
}

// Document is a notebook: brand, layout and the ordered pages
type Document struct {
	Title  string       `json:"title" yaml:"title"`
	Brand  Brand        `json:"brand" yaml:"brand"`
	Layout LayoutConfig `json:"layout" yaml:"layout"`
	Pages  PageSet      `json:"pages" yaml:"pages"`
}

// New creates a document holding only the welcome cover page
func New(brand Brand) Document {
	if brand.Theme == "" {
		brand.Theme = ThemeProfessional
	}
	welcome := Page{
		ID:      WelcomePageID,
		Title:   "مرحباً بك في دفتر",
		Content: `<h2>ابدأ مذكرتك الأولى</h2><p>أدخل الموضوع والمادة العلمية من الشريط الجانبي ثم اضغط توليد، أو أضف صفحة فارغة وابدأ الكتابة.</p>`,
		IsCover: true,
		Footer:  brand.Footer(),
	}
	set, _ := NewPageSet(welcome)
	return Document{
		Title:  brand.Footer(),
		Brand:  brand,
		Layout: DefaultLayout(),
		Pages:  set,
	}
}

// WithPages returns a copy of the document using the given pages
func (d Document) WithPages(set PageSet) Document {
	d.Pages = set
	return d
}

// WithLayout returns a copy of the document using the given layout
func (d Document) WithLayout(layout LayoutConfig) Document {
	d.Layout = layout
	return d
}

// WithBrand returns a copy of the document using the given brand.
// Footers that still carry the previous brand name follow the rename.
func (d Document) WithBrand(brand Brand) Document {
	oldFooter := d.Brand.Footer()
	newFooter := brand.Footer()
	if oldFooter != newFooter {
		pages := d.Pages.Pages()
		for i := range pages {
			if pages[i].Footer == oldFooter {
				pages[i].Footer = newFooter
			}
		}
		d.Pages = PageSet{pages: pages}
	}
	d.Brand = brand
	return d
}

// AddPage appends a blank page and returns it
func (d Document) AddPage() (Document, Page, error) {
	page := NewBlankPage(d.Brand.Footer())
	page.ID = d.Pages.UniqueID()
	set, err := d.Pages.Append(page)
	if err != nil {
		return d, Page{}, fmt.Errorf("failed to add page: %w", err)
	}
	return d.WithPages(set), page, nil
}

// DeletePage removes the page with the given id
func (d Document) DeletePage(id string) (Document, error) {
	set, err := d.Pages.Remove(id)
	if err != nil {
		return d, err
	}
	return d.WithPages(set), nil
}

// Clear removes every page
func (d Document) Clear() Document {
	return d.WithPages(PageSet{})
}

// UpdateContent replaces the content of a page
func (d Document) UpdateContent(id, content string) (Document, error) {
	page, err := d.Pages.Get(id)
	if err != nil {
		return d, err
	}
	page.Content = content
	set, err := d.Pages.Replace(id, page)
	if err != nil {
		return d, err
	}
	return d.WithPages(set), nil
}

// MarshalJSON encodes the set as a list of pages
func (s PageSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Pages())
}

// UnmarshalJSON decodes a list of pages, assigning ids to pages without one
func (s *PageSet) UnmarshalJSON(data []byte) error {
	var pages []Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return err
	}
	return s.assign(pages)
}

// MarshalYAML encodes the set as a list of pages
func (s PageSet) MarshalYAML() (interface{}, error) {
	return s.Pages(), nil
}

// UnmarshalYAML decodes a list of pages, assigning ids to pages without one
func (s *PageSet) UnmarshalYAML(value *yaml.Node) error {
	var pages []Page
	if err := value.Decode(&pages); err != nil {
		return err
	}
	return s.assign(pages)
}

func (s *PageSet) assign(pages []Page) error {
	for i := range pages {
		if pages[i].ID == "" {
			pages[i].ID = NewID()
		}
	}
	set, err := NewPageSet(pages...)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
