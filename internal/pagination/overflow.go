package pagination

import (
	"errors"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/parser/html"
)

// Report is the outcome of an overflow check for one page
type Report struct {
	PageID        string  `json:"pageId"`
	Cover         bool    `json:"cover"`
	Measured      bool    `json:"measured"`
	ContentHeight float64 `json:"contentHeight"`
	Threshold     float64 `json:"threshold"`
	// Overflowing reports whether the content is taller than the threshold
	Overflowing bool `json:"overflowing"`
	// Splittable is false for cover pages
	Splittable bool `json:"splittable"`
}

// NeedsSplit reports whether the page should be offered a split
func (r Report) NeedsSplit() bool {
	return r.Overflowing && r.Splittable
}

// Overflowing decides whether a measured content height exceeds the
// threshold for the page kind.
func (o Options) Overflowing(contentHeight float64, isCover bool, layout document.LayoutConfig) bool {
	return contentHeight > o.DetectionThreshold(isCover, layout)
}

// Check measures a page and reports whether it overflows. A page that cannot
// be measured is reported as fitting.
func (e *Engine) Check(page document.Page, layout document.LayoutConfig) Report {
	report := Report{
		PageID:     page.ID,
		Cover:      page.IsCover,
		Threshold:  e.options.DetectionThreshold(page.IsCover, layout),
		Splittable: !page.IsCover,
	}

	blocks := html.SplitBlocks(page.Content)
	m, err := e.measurer.Measure(page, layout, blocks)
	if err != nil {
		if !errors.Is(err, ErrNotMeasured) {
			e.logger.Warn("failed to measure page", "page", page.ID, "error", err)
		}
		return report
	}

	report.Measured = true
	report.ContentHeight = m.ContentHeight
	report.Overflowing = e.options.Overflowing(m.ContentHeight, page.IsCover, layout)
	e.debug("overflow check",
		"page", page.ID,
		"height", m.ContentHeight,
		"threshold", report.Threshold,
		"overflowing", report.Overflowing,
	)
	return report
}

// CheckAll checks every page of a set, in order
func (e *Engine) CheckAll(set document.PageSet, layout document.LayoutConfig) []Report {
	reports := make([]Report, 0, set.Len())
	for _, p := range set.Pages() {
		reports = append(reports, e.Check(p, layout))
	}
	return reports
}
