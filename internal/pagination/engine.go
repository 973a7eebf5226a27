package pagination

import (
	"log/slog"
	"math"

	"github.com/dafterai/dafter/internal/document"
)

// Default heuristic constants, in CSS px at 96 DPI
const (
	DefaultBaseThresholdCover   = 1000.0
	DefaultBaseThresholdContent = 920.0
	DefaultBaseThresholdSplit   = 940.0
	DefaultMMToPx               = 3.78
	DefaultFallbackSplitRatio   = 0.7
	DefaultMaxPages             = 50
)

// SearchDirection selects where the text fallback looks for a word boundary first
type SearchDirection int

const (
	// SearchBackward looks before the midpoint first, as the editor does
	SearchBackward SearchDirection = iota
	// SearchForward looks after the midpoint first, as the exported document does
	SearchForward
)

// String returns the direction name
func (d SearchDirection) String() string {
	if d == SearchForward {
		return "forward"
	}
	return "backward"
}

// Options represents options for the pagination engine
type Options struct {
	// BaseThresholdCover is the content budget of a cover page
	BaseThresholdCover float64 `json:"baseThresholdCover"`
	// BaseThresholdContent is the content budget of a regular page
	BaseThresholdContent float64 `json:"baseThresholdContent"`
	// BaseThresholdSplit is the budget block heights are accumulated against
	// when choosing a split point. Block sums count every margin in full while
	// the container collapses adjacent ones, so it sits above the detection budget.
	BaseThresholdSplit float64 `json:"baseThresholdSplit"`
	// MMToPx converts layout gaps from millimetres
	MMToPx float64 `json:"mmToPx"`
	// FallbackSplitRatio picks the split index when no block crosses the threshold
	FallbackSplitRatio float64 `json:"fallbackSplitRatio"`
	// Search is the preferred direction of the single-block text fallback
	Search SearchDirection `json:"search"`
	// MaxPages stops Paginate from growing a set past this many pages
	MaxPages int `json:"maxPages"`
	Debug    bool
}

// DefaultOptions returns the editor defaults
func DefaultOptions() Options {
	return Options{
		BaseThresholdCover:   DefaultBaseThresholdCover,
		BaseThresholdContent: DefaultBaseThresholdContent,
		BaseThresholdSplit:   DefaultBaseThresholdSplit,
		MMToPx:               DefaultMMToPx,
		FallbackSplitRatio:   DefaultFallbackSplitRatio,
		Search:               SearchBackward,
		MaxPages:             DefaultMaxPages,
	}
}

// GapAdjustment returns the px budget taken by the configured header gaps.
// Negative gaps count as zero.
func (o Options) GapAdjustment(layout document.LayoutConfig) float64 {
	gaps := math.Max(0, layout.HeaderTopGap) + math.Max(0, layout.HeaderContentGap)
	return gaps * o.MMToPx
}

// adjust subtracts the gap budget from base without going below zero
func (o Options) adjust(base float64, layout document.LayoutConfig) float64 {
	return math.Max(0, base-o.GapAdjustment(layout))
}

// DetectionThreshold returns the content height above which a page overflows
func (o Options) DetectionThreshold(isCover bool, layout document.LayoutConfig) float64 {
	if isCover {
		return o.adjust(o.BaseThresholdCover, layout)
	}
	return o.adjust(o.BaseThresholdContent, layout)
}

// SplitThreshold returns the cumulative block height a split point is sought at
func (o Options) SplitThreshold(layout document.LayoutConfig) float64 {
	return o.adjust(o.BaseThresholdSplit, layout)
}

// Engine detects overflowing pages and splits them
type Engine struct {
	options  Options
	measurer Measurer
	logger   *slog.Logger
}

// NewEngine creates a new pagination engine measuring with m.
// A nil measurer never measures, so no page is ever reported as overflowing.
func NewEngine(m Measurer) *Engine {
	if m == nil {
		m = unmeasured{}
	}
	return &Engine{
		options:  DefaultOptions(),
		measurer: m,
		logger:   slog.Default(),
	}
}

// SetOptions sets the options for the pagination engine.
// Zero values fall back to the defaults.
func (e *Engine) SetOptions(options Options) {
	def := DefaultOptions()
	if options.BaseThresholdCover <= 0 {
		options.BaseThresholdCover = def.BaseThresholdCover
	}
	if options.BaseThresholdContent <= 0 {
		options.BaseThresholdContent = def.BaseThresholdContent
	}
	if options.BaseThresholdSplit <= 0 {
		options.BaseThresholdSplit = def.BaseThresholdSplit
	}
	if options.MMToPx <= 0 {
		options.MMToPx = def.MMToPx
	}
	if options.FallbackSplitRatio <= 0 || options.FallbackSplitRatio >= 1 {
		options.FallbackSplitRatio = def.FallbackSplitRatio
	}
	if options.MaxPages <= 0 {
		options.MaxPages = def.MaxPages
	}
	e.options = options
}

// Options returns the engine options
func (e *Engine) Options() Options {
	return e.options
}

// SetLogger sets the logger used for debug output
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// WithMeasurer returns a copy of the engine that measures with m
func (e *Engine) WithMeasurer(m Measurer) *Engine {
	cp := *e
	if m == nil {
		m = unmeasured{}
	}
	cp.measurer = m
	return &cp
}

func (e *Engine) debug(msg string, args ...any) {
	if e.options.Debug {
		e.logger.Debug(msg, args...)
	}
}
