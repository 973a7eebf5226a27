package pagination

import (
	"github.com/dafterai/dafter/internal/document"
)

// PageSize represents a paper size in millimetres
type PageSize struct {
	Width  float64
	Height float64
	Name   string
}

// PageSizeA4 is the only sheet notebooks are laid out on
var PageSizeA4 = PageSize{Width: 210, Height: 297, Name: "A4"}

// Stats summarises a Paginate run
type Stats struct {
	Splits int `json:"splits"`
	// Stuck lists pages that overflow but could not be split
	Stuck []string `json:"stuck,omitempty"`
	// Truncated is set when MaxPages stopped the run
	Truncated bool `json:"truncated"`
}

// Paginate splits overflowing pages until every page fits, no split is
// possible, or the set reaches MaxPages. A page that was just split is
// checked again before moving on to its continuation.
func (e *Engine) Paginate(set document.PageSet, layout document.LayoutConfig) (document.PageSet, Stats) {
	var stats Stats
	stuck := make(map[string]bool)

	for i := 0; i < set.Len(); i++ {
		page := set.At(i)
		if stuck[page.ID] || !e.Check(page, layout).NeedsSplit() {
			continue
		}
		if set.Len() >= e.options.MaxPages {
			stats.Truncated = true
			e.logger.Warn("pagination stopped at page limit", "pages", set.Len(), "limit", e.options.MaxPages)
			break
		}

		next, split, err := e.ApplySplit(set, page.ID, layout)
		if err != nil {
			stuck[page.ID] = true
			stats.Stuck = append(stats.Stuck, page.ID)
			e.debug("page left overflowing", "page", page.ID, "error", err)
			continue
		}

		set = next
		stats.Splits++
		e.debug("page split", "page", page.ID, "index", split.Index, "reason", split.Reason)
		i--
	}
	return set, stats
}
