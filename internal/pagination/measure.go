package pagination

import (
	"errors"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/parser/html"
)

// ErrNotMeasured is returned when no usable measurement exists for a page,
// for instance before the editing surface has laid it out.
var ErrNotMeasured = errors.New("page not measured")

// Metrics is the rendered size of one top-level block in px
type Metrics struct {
	Height       float64 `json:"height"`
	MarginTop    float64 `json:"marginTop"`
	MarginBottom float64 `json:"marginBottom"`
}

// Outer returns the height including both vertical margins
func (m Metrics) Outer() float64 {
	return m.Height + m.MarginTop + m.MarginBottom
}

// Measurement is the rendered size of a page's content container
type Measurement struct {
	// ContentHeight is the full scroll height of the container, floated
	// image included
	ContentHeight float64 `json:"contentHeight"`
	// Blocks holds one entry per top-level block, in document order
	Blocks []Metrics `json:"blocks,omitempty"`
}

// Measurer obtains the rendered size of a page's content
type Measurer interface {
	Measure(page document.Page, layout document.LayoutConfig, blocks []html.Block) (*Measurement, error)
}

// MeasurerFunc adapts a function to the Measurer interface
type MeasurerFunc func(page document.Page, layout document.LayoutConfig, blocks []html.Block) (*Measurement, error)

// Measure calls f
func (f MeasurerFunc) Measure(page document.Page, layout document.LayoutConfig, blocks []html.Block) (*Measurement, error) {
	return f(page, layout, blocks)
}

// Reported is a measurement taken by an editing surface from its live layout.
// It is only valid for the content it was taken from: a block count that
// no longer matches marks it stale.
type Reported Measurement

// Measure returns the reported measurement when it still fits the content
func (r *Reported) Measure(_ document.Page, _ document.LayoutConfig, blocks []html.Block) (*Measurement, error) {
	if r == nil || r.ContentHeight < 0 {
		return nil, ErrNotMeasured
	}
	if len(r.Blocks) > 0 && len(r.Blocks) != len(blocks) {
		return nil, ErrNotMeasured
	}
	m := Measurement(*r)
	return &m, nil
}

// Fixed returns the same block metrics for any page. The content height is
// the plain sum of the outer block heights.
type Fixed []Metrics

// Measure returns the fixed metrics, one per block
func (f Fixed) Measure(_ document.Page, _ document.LayoutConfig, blocks []html.Block) (*Measurement, error) {
	if len(f) < len(blocks) {
		return nil, ErrNotMeasured
	}
	m := &Measurement{Blocks: make([]Metrics, len(blocks))}
	copy(m.Blocks, f)
	for _, b := range m.Blocks {
		m.ContentHeight += b.Outer()
	}
	return m, nil
}

// Heights builds fixed metrics from plain block heights without margins
func Heights(heights ...float64) Fixed {
	f := make(Fixed, len(heights))
	for i, h := range heights {
		f[i] = Metrics{Height: h}
	}
	return f
}

// unmeasured never has a measurement
type unmeasured struct{}

func (unmeasured) Measure(document.Page, document.LayoutConfig, []html.Block) (*Measurement, error) {
	return nil, ErrNotMeasured
}
