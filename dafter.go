// Package dafter lays out A4 educational notebooks: it detects pages whose
// content overflows the sheet and splits them into continuation pages.
package dafter

import (
	"github.com/dafterai/dafter/pkg/api"
)

type Editor = api.Editor
type Options = api.Options
type Option = api.Option
type Format = api.Format
type SplitResult = api.SplitResult
type SearchDirection = api.SearchDirection

func New(opts ...Option) *Editor { return api.New(opts...) }
func NewWithOptions(options Options) *Editor { return api.NewWithOptions(options) }
func DefaultOptions() Options { return api.DefaultOptions() }
func ParseFormat(s string) (Format, error) { return api.ParseFormat(s) }

var (
	WithThresholds         = api.WithThresholds
	WithPagination         = api.WithPagination
	WithMMToPx             = api.WithMMToPx
	WithFallbackSplitRatio = api.WithFallbackSplitRatio
	WithSearchDirection    = api.WithSearchDirection
	WithMaxPages           = api.WithMaxPages
	WithMeasurer           = api.WithMeasurer
	WithDebug              = api.WithDebug
	WithLogger             = api.WithLogger
	WithHistoryDepth       = api.WithHistoryDepth
	WithResourcePath       = api.WithResourcePath
	WithFontPath           = api.WithFontPath
	WithStylesheet         = api.WithStylesheet
	WithInlineImages       = api.WithInlineImages
	WithTitle              = api.WithTitle
	WithAuthor             = api.WithAuthor
	WithSubject            = api.WithSubject
	WithKeywords           = api.WithKeywords
	WithGenerators         = api.WithGenerators
	WithGeneration         = api.WithGeneration
)

var (
	ErrNoGenerator   = api.ErrNoGenerator
	ErrUnknownFormat = api.ErrUnknownFormat
)

const (
	SearchBackward = api.SearchBackward
	SearchForward  = api.SearchForward

	FormatHTML      = api.FormatHTML
	FormatPDF       = api.FormatPDF
	FormatClipboard = api.FormatClipboard
)
