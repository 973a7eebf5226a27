package api

import (
	"log/slog"

	"github.com/dafterai/dafter/internal/generate"
	"github.com/dafterai/dafter/internal/pagination"
)

// Options represents configuration options for the notebook editor
type Options struct {
	// Overflow detection budgets in px, before the header gap adjustment
	BaseThresholdCover   float64
	BaseThresholdContent float64
	// BaseThresholdSplit is the budget a split point is chosen against
	BaseThresholdSplit float64
	// MMToPx converts layout millimetres to px
	MMToPx float64
	// FallbackSplitRatio is the share of blocks kept when none crosses the budget
	FallbackSplitRatio float64
	// Search is the preferred direction of the single-block word search
	Search SearchDirection
	// MaxPages bounds Reflow
	MaxPages int

	// Measurer measures pages when a call does not bring its own.
	// When nil the server-side estimator is used.
	Measurer pagination.Measurer

	// Rendering options
	Debug  bool
	Logger *slog.Logger

	// HistoryDepth bounds undo snapshots per page
	HistoryDepth int

	// Resource paths searched for images and fonts
	ResourcePaths []string
	// FontPath is a TTF used for PDF output; Arabic text needs one
	FontPath string
	// Stylesheets are author CSS applied on top of the notebook stylesheet
	Stylesheets []string
	// InlineImages embeds page images as data URLs in HTML exports
	InlineImages bool

	// Document metadata
	Title    string
	Author   string
	Subject  string
	Keywords string

	// Generation backends; generation is unavailable while ContentGenerator is nil
	ContentGenerator generate.ContentGenerator
	ImageGenerator   generate.ImageGenerator
	Generation       generate.Options
}

// Option is a function that modifies Options
type Option func(*Options)

// SearchDirection selects where a single block is cut first
type SearchDirection = pagination.SearchDirection

const (
	// SearchBackward looks before the midpoint first
	SearchBackward = pagination.SearchBackward
	// SearchForward looks after the midpoint first
	SearchForward = pagination.SearchForward
)

// DefaultOptions returns the default options
func DefaultOptions() Options {
	p := pagination.DefaultOptions()
	return Options{
		BaseThresholdCover:   p.BaseThresholdCover,
		BaseThresholdContent: p.BaseThresholdContent,
		BaseThresholdSplit:   p.BaseThresholdSplit,
		MMToPx:               p.MMToPx,
		FallbackSplitRatio:   p.FallbackSplitRatio,
		Search:               p.Search,
		MaxPages:             p.MaxPages,

		Debug:        false,
		HistoryDepth: 50,

		ResourcePaths: []string{},
		Stylesheets:   []string{},
		InlineImages:  true,

		Generation: generate.DefaultOptions(),
	}
}

// paginationOptions returns the engine options
func (o Options) paginationOptions() pagination.Options {
	return pagination.Options{
		BaseThresholdCover:   o.BaseThresholdCover,
		BaseThresholdContent: o.BaseThresholdContent,
		BaseThresholdSplit:   o.BaseThresholdSplit,
		MMToPx:               o.MMToPx,
		FallbackSplitRatio:   o.FallbackSplitRatio,
		Search:               o.Search,
		MaxPages:             o.MaxPages,
		Debug:                o.Debug,
	}
}

// WithThresholds sets the cover, content and split budgets
func WithThresholds(cover, content, split float64) Option {
	return func(o *Options) {
		o.BaseThresholdCover = cover
		o.BaseThresholdContent = content
		o.BaseThresholdSplit = split
	}
}

// WithPagination copies every heuristic from a pagination option set
func WithPagination(p pagination.Options) Option {
	return func(o *Options) {
		o.BaseThresholdCover = p.BaseThresholdCover
		o.BaseThresholdContent = p.BaseThresholdContent
		o.BaseThresholdSplit = p.BaseThresholdSplit
		if p.MMToPx > 0 {
			o.MMToPx = p.MMToPx
		}
		o.FallbackSplitRatio = p.FallbackSplitRatio
		o.Search = p.Search
		o.MaxPages = p.MaxPages
	}
}

// WithMMToPx sets the millimetre to px factor
func WithMMToPx(factor float64) Option {
	return func(o *Options) {
		o.MMToPx = factor
	}
}

// WithFallbackSplitRatio sets the share of blocks kept when none crosses the budget
func WithFallbackSplitRatio(ratio float64) Option {
	return func(o *Options) {
		o.FallbackSplitRatio = ratio
	}
}

// WithSearchDirection sets the preferred word search direction
func WithSearchDirection(dir SearchDirection) Option {
	return func(o *Options) {
		o.Search = dir
	}
}

// WithMaxPages bounds Reflow
func WithMaxPages(n int) Option {
	return func(o *Options) {
		o.MaxPages = n
	}
}

// WithMeasurer sets the default measurer
func WithMeasurer(m pagination.Measurer) Option {
	return func(o *Options) {
		o.Measurer = m
	}
}

// WithDebug sets the debug mode
func WithDebug(debug bool) Option {
	return func(o *Options) {
		o.Debug = debug
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithHistoryDepth bounds undo snapshots per page
func WithHistoryDepth(depth int) Option {
	return func(o *Options) {
		o.HistoryDepth = depth
	}
}

// WithResourcePath adds a path to search for resources
func WithResourcePath(path string) Option {
	return func(o *Options) {
		o.ResourcePaths = append(o.ResourcePaths, path)
	}
}

// WithFontPath sets the TTF used for PDF output
func WithFontPath(path string) Option {
	return func(o *Options) {
		o.FontPath = path
	}
}

// WithStylesheet adds author CSS
func WithStylesheet(css string) Option {
	return func(o *Options) {
		o.Stylesheets = append(o.Stylesheets, css)
	}
}

// WithInlineImages sets whether HTML exports embed page images
func WithInlineImages(inline bool) Option {
	return func(o *Options) {
		o.InlineImages = inline
	}
}

// WithTitle sets the PDF title; the document title is used when empty
func WithTitle(title string) Option {
	return func(o *Options) {
		o.Title = title
	}
}

// WithAuthor sets the document author
func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithSubject sets the document subject
func WithSubject(subject string) Option {
	return func(o *Options) {
		o.Subject = subject
	}
}

// WithKeywords sets the document keywords
func WithKeywords(keywords string) Option {
	return func(o *Options) {
		o.Keywords = keywords
	}
}

// WithGenerators sets the content and image generation backends
func WithGenerators(content generate.ContentGenerator, images generate.ImageGenerator) Option {
	return func(o *Options) {
		o.ContentGenerator = content
		o.ImageGenerator = images
	}
}

// WithGeneration sets the image fan-out options
func WithGeneration(g generate.Options) Option {
	return func(o *Options) {
		o.Generation = g
	}
}
